package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"supplyArchive/internal/archive"
	"supplyArchive/internal/chain"
	"supplyArchive/internal/config"
	"supplyArchive/internal/contract"
	"supplyArchive/internal/storage/postgres"
)

func runBackfill(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBackfill(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	if cfg.UID == 0 {
		return fmt.Errorf("uid is required")
	}
	contractAddr, err := parseContractAddress(cfg.ContractAddress)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	caller, err := contract.NewCaller(chainClient, contractAddr, cfg.CallTimeout)
	if err != nil {
		return fmt.Errorf("bind contract: %w", err)
	}

	pipeline := archive.NewPipeline(store, archive.NewAssembler(caller), caller.Address(), cfg.StoreTimeout, logger, nil)
	backfill := archive.NewBackfill(caller, pipeline, logger)

	rec, already, err := backfill.Run(ctx, cfg.UID)
	if err != nil {
		return err
	}

	if already {
		logger.Info("product already archived",
			zap.Uint64("uid", rec.UID),
			zap.Time("archived_at", rec.ArchivedAt),
		)
		return nil
	}

	logger.Info("product archived",
		zap.Uint64("uid", rec.UID),
		zap.String("product_name", rec.ProductName),
		zap.Int("days_in_supply_chain", rec.DaysInSupplyChain),
	)
	return nil
}
