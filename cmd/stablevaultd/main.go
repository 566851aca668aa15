package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stablevault/config"
	"stablevault/core/events"
	nativecommon "stablevault/native/common"
	"stablevault/native/pricing"
	"stablevault/native/token"
	"stablevault/native/vault"
	"stablevault/observability"
	"stablevault/observability/logging"
	"stablevault/observability/otel"
	"stablevault/rpc"
	"stablevault/storage"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	env := strings.TrimSpace(os.Getenv("STABLEVAULT_ENV"))
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.Setup(cfg.ServiceName, env, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Metrics || cfg.Telemetry.Traces {
		shutdown, err := otel.Init(ctx, otel.Config{
			ServiceName: cfg.ServiceName,
			Environment: env,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     otel.ParseHeaders(cfg.Telemetry.Headers),
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Traces,
		})
		if err != nil {
			logger.Error("failed to initialise telemetry", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	var db storage.Database
	if strings.TrimSpace(cfg.DataDir) == "" {
		logger.Warn("no data directory configured, state is in-memory only")
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	module := ethcommon.HexToAddress(cfg.ModuleAddress)
	owner := ethcommon.HexToAddress(cfg.OwnerAddress)

	engine := vault.NewEngine(module, owner, vault.RiskParameters{
		MinMarginRatio:       cfg.Risk.MinMarginRatio,
		LiquidationThreshold: cfg.Risk.LiquidationThreshold,
		LiquidationBonus:     cfg.Risk.LiquidationBonus,
		LiquidationFee:       cfg.Risk.LiquidationFee,
	})
	engine.SetState(storage.NewVaultStore(db))
	engine.SetStableToken(token.NewLedger(cfg.StableSymbol, 18))
	engine.SetEmitter(observability.NewMeteredEmitter(events.NewLogEmitter(logger)))

	board := nativecommon.NewSwitchboard()
	engine.SetPauses(board)
	engine.SetBlacklist(board)

	quota := nativecommon.Quota{
		MaxRequestsPerEpoch: cfg.MintQuota.MaxRequestsPerEpoch,
		MaxUnitsPerEpoch:    cfg.MintQuota.MaxUnitsPerEpoch,
		EpochSeconds:        cfg.MintQuota.EpochSeconds,
	}
	if quota.Enabled() {
		engine.SetMintQuota(quota)
	}

	server := rpc.NewServer(engine, board, logger)
	server.SetRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	for _, asset := range cfg.Assets {
		symbol := strings.ToUpper(strings.TrimSpace(asset.Symbol))
		feed := pricing.NewManualFeed(asset.FeedDecimals)
		if asset.InitialPrice > 0 {
			feed.Set(big.NewInt(asset.InitialPrice))
		}
		info := vault.AssetInfo{
			Symbol:   symbol,
			Decimals: asset.Decimals,
			Token:    token.NewLedger(symbol, asset.Decimals),
			Feed:     feed,
		}
		if err := engine.AddAsset(owner, info); err != nil {
			logger.Error("failed to register asset", slog.String("asset", symbol), slog.Any("error", err))
			os.Exit(1)
		}
		server.RegisterFeed(symbol, feed)
		logger.Info("asset registered", slog.String("asset", symbol), slog.Int("decimals", int(asset.Decimals)))
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", slog.String("address", cfg.ListenAddress))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api server shutdown failed", slog.Any("error", err))
	}
}
