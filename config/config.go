// Package config holds the gateway's JSON file configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agglayer/agglayer-go/common"
)

// RPCConfig configures the JSON-RPC server.
type RPCConfig struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
	// MaxRequestBodySize caps inbound request bodies, in bytes.
	MaxRequestBodySize int64 `json:"maxRequestBodySize"`
	// MaxConnections caps concurrently served connections.
	MaxConnections int `json:"maxConnections"`
	// PingIntervalSeconds sets the websocket keepalive ping interval.
	PingIntervalSeconds uint64 `json:"pingIntervalSeconds"`
}

// RollupConfig describes one registered rollup.
type RollupConfig struct {
	// TrustedSequencer is the only address accepted as the signer of this
	// rollup's submissions.
	TrustedSequencer common.Address `json:"trustedSequencer"`
	// NodeURL is the rollup node queried for batch state consistency.
	NodeURL string `json:"nodeURL"`
}

// ClockConfig configures the epoch clock.
type ClockConfig struct {
	// EpochDuration is the number of blocks per epoch. Must be positive.
	EpochDuration uint64 `json:"epochDuration"`
	// GenesisTimestamp is the unix second the chain started; zero means the
	// clock starts from the current time.
	GenesisTimestamp int64 `json:"genesisTimestamp"`
}

// L1Config describes the settlement chain.
type L1Config struct {
	ChainID               uint64         `json:"chainId"`
	NodeURL               string         `json:"nodeURL"`
	RollupManagerContract common.Address `json:"rollupManagerContract"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level   string   `json:"level"`
	Modules []string `json:"modules"`
}

// Config is the top-level gateway configuration.
type Config struct {
	RPC     RPCConfig               `json:"rpc"`
	Log     LogConfig               `json:"log"`
	Clock   ClockConfig             `json:"clock"`
	L1      L1Config                `json:"l1"`
	Rollups map[uint32]RollupConfig `json:"rollups"`
	DataDir string                  `json:"datadir"`
	// SignerPrivateKey is the hex key of the local settlement signer. Leave
	// empty when an external signing service provides the key.
	SignerPrivateKey string `json:"signerPrivateKey,omitempty"`
}

// Default returns the configuration used when a field is absent from the
// config file.
func Default() *Config {
	return &Config{
		RPC: RPCConfig{
			Host:                "0.0.0.0",
			Port:                4444,
			MaxRequestBodySize:  10 * 1024 * 1024,
			MaxConnections:      100,
			PingIntervalSeconds: 30,
		},
		Log: LogConfig{Level: "info"},
		Clock: ClockConfig{
			EpochDuration: 60,
		},
		L1: L1Config{
			ChainID: 1,
			NodeURL: "http://localhost:8545",
		},
		Rollups: make(map[uint32]RollupConfig),
		DataDir: filepath.Join(os.Getenv("HOME"), ".agglayer"),
	}
}

// Load reads a JSON config file, applying defaults for missing fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if cfg.Clock.EpochDuration == 0 {
		return nil, fmt.Errorf("config %s: clock.epochDuration must be positive", path)
	}

	return cfg, nil
}

// RPCAddr returns the host:port the RPC server binds to.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("%s:%d", c.RPC.Host, c.RPC.Port)
}

// ReceiptDBPath returns the receipt store location under the data dir.
func (c *Config) ReceiptDBPath() string {
	return filepath.Join(c.DataDir, "receipts")
}

// String returns the Config as a formatted JSON string.
func (c *Config) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
