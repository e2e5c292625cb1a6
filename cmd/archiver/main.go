package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"supplyArchive/internal/api"
	"supplyArchive/internal/archive"
	"supplyArchive/internal/chain"
	"supplyArchive/internal/config"
	"supplyArchive/internal/contract"
	"supplyArchive/internal/metrics"
	"supplyArchive/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:          "archiver",
		Short:        "Supply chain completion archiver",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the event subscriber and the archive API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("rpc", "", "Ethereum websocket RPC URL")
	serveCmd.Flags().String("contract", "", "supply chain contract address")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("call-timeout", 30*time.Second, "per-call contract read timeout")
	serveCmd.Flags().Duration("store-timeout", 10*time.Second, "per-call store operation timeout")
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (comma-separated, empty allows all)")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Archive one completed product by uid",
		RunE:  runBackfill,
	}

	backfillCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	backfillCmd.Flags().String("contract", "", "supply chain contract address")
	backfillCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	backfillCmd.Flags().Duration("call-timeout", 30*time.Second, "per-call contract read timeout")
	backfillCmd.Flags().Duration("store-timeout", 10*time.Second, "per-call store operation timeout")
	backfillCmd.Flags().Uint64("uid", 0, "product uid to archive")
	backfillCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(backfillCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the archive to a JSONL file",
		RunE:  runExport,
	}

	exportCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	exportCmd.Flags().String("out", "./data/archive-export.jsonl", "output JSONL path")
	exportCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(exportCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
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

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}
	head, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("read head block: %w", err)
	}

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

	m := metrics.New()
	assembler := archive.NewAssembler(caller)
	pipeline := archive.NewPipeline(store, assembler, caller.Address(), cfg.StoreTimeout, logger, m)
	subscriber := archive.NewSubscriber(chainClient, contractAddr, pipeline, logger, m)
	backfill := archive.NewBackfill(caller, pipeline, logger)

	handler := api.NewHandler(store, backfill, store.Ping, logger, m)
	router := api.NewRouter(handler, logger, m, cfg.CORSOrigins)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	logger.Info("archiver start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.Uint64("head_block", head),
		zap.String("contract", caller.Address()),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("listen", cfg.ListenAddr),
		zap.Duration("call_timeout", cfg.CallTimeout),
		zap.Duration("store_timeout", cfg.StoreTimeout),
	)

	errCh := make(chan error, 2)

	go func() {
		if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("subscriber: %w", err)
			return
		}
		errCh <- nil
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	logger.Info("archiver stopped")
	return runErr
}

func parseContractAddress(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, fmt.Errorf("contract address is required")
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid contract address: %s", raw)
	}
	return common.HexToAddress(raw), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
