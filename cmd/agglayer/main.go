// Aggregation layer gateway: accepts signed proof submissions from rollup
// sequencers over JSON-RPC, verifies them, and settles them on the
// settlement chain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agglayer/agglayer-go/clock"
	"github.com/agglayer/agglayer-go/common"
	"github.com/agglayer/agglayer-go/config"
	"github.com/agglayer/agglayer-go/kernel"
	"github.com/agglayer/agglayer-go/log"
	"github.com/agglayer/agglayer-go/rpc"
	"github.com/agglayer/agglayer-go/settlement"
	"github.com/agglayer/agglayer-go/signer"
	"github.com/agglayer/agglayer-go/storage"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "agglayer",
		Short: "Aggregation layer gateway",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var cfgPath string

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start the gateway",
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(cfgPath); err != nil {
				fmt.Fprintf(os.Stderr, "agglayer: %v\n", err)
				os.Exit(1)
			}
		},
	}
	runCmd.Flags().StringVar(&cfgPath, "cfg", "", "path to the JSON configuration file")
	runCmd.MarkFlagRequired("cfg")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agglayer %s (commit %s, built %s)\n", common.Version, common.GetCommitHash(), common.BuildTime)
		},
	}

	rootCmd.AddCommand(runCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log.InitLogger(cfg.Log.Level)
	for _, module := range cfg.Log.Modules {
		log.EnableModule(module)
	}
	log.Info(log.NodeMonitoring, "Starting aggregation layer gateway",
		"version", common.Version, "commit", common.GetCommitHash(), "rollups", len(cfg.Rollups))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ethClient, err := ethclient.DialContext(ctx, cfg.L1.NodeURL)
	if err != nil {
		return fmt.Errorf("dial settlement chain %s: %w", cfg.L1.NodeURL, err)
	}
	defer ethClient.Close()

	backend, err := signer.NewLocalBackend(cfg.SignerPrivateKey)
	if err != nil {
		return fmt.Errorf("load settlement signer: %w", err)
	}
	settleSigner := signer.New(backend, cfg.L1.ChainID)
	log.Info(log.SignerMonitoring, "Settlement signer loaded", "address", settleSigner.Address().Hex())

	settleBackend := settlement.NewBackend(ethClient, cfg.L1.RollupManagerContract, settleSigner)
	k := kernel.New(cfg, settleBackend)

	store, err := storage.NewReceiptStore(cfg.ReceiptDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	var timeClock *clock.TimeClock
	if cfg.Clock.GenesisTimestamp > 0 {
		timeClock, err = clock.NewTimeClock(time.Unix(cfg.Clock.GenesisTimestamp, 0), cfg.Clock.EpochDuration)
	} else {
		timeClock, err = clock.NewTimeClockNow(cfg.Clock.EpochDuration)
	}
	if err != nil {
		return err
	}
	clockRef, err := timeClock.Start(ctx)
	if err != nil {
		return err
	}
	log.Info(log.ClockMonitoring, "Epoch clock started",
		"block", clockRef.CurrentBlock(), "epoch", clockRef.CurrentEpoch())

	server := rpc.NewServer(cfg, k, clockRef, store)
	if err := server.Start(ctx); err != nil {
		return err
	}

	log.Info(log.NodeMonitoring, "Graceful shutdown complete")
	return nil
}
