package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agglayer/agglayer-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agglayer.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"rollups": {
			"1": {
				"trustedSequencer": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
				"nodeURL": "http://zkevm-node:8123"
			}
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4444", cfg.RPCAddr())
	assert.Equal(t, uint64(60), cfg.Clock.EpochDuration)
	assert.Equal(t, int64(10*1024*1024), cfg.RPC.MaxRequestBodySize)

	rollup, ok := cfg.Rollups[1]
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), rollup.TrustedSequencer)
	assert.Equal(t, "http://zkevm-node:8123", rollup.NodeURL)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"rpc": {"host": "127.0.0.1", "port": 8080},
		"clock": {"epochDuration": 5, "genesisTimestamp": 1700000000},
		"log": {"level": "debug", "modules": ["clock_mod"]}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.RPCAddr())
	assert.Equal(t, uint64(5), cfg.Clock.EpochDuration)
	assert.Equal(t, int64(1700000000), cfg.Clock.GenesisTimestamp)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsZeroEpochDuration(t *testing.T) {
	path := writeConfig(t, `{"clock": {"epochDuration": 0}}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReceiptDBPath(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/agglayer"
	assert.Equal(t, "/var/lib/agglayer/receipts", cfg.ReceiptDBPath())
}
