package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fadedpez/tucoroulette/internal/config"
	idiscord "github.com/fadedpez/tucoroulette/internal/discord"
	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/internal/metrics"
	"github.com/fadedpez/tucoroulette/pkg/db"
	"github.com/fadedpez/tucoroulette/pkg/discord"
	"github.com/fadedpez/tucoroulette/pkg/ledger/evm"
	"github.com/fadedpez/tucoroulette/pkg/notify"
	historyRepo "github.com/fadedpez/tucoroulette/pkg/repositories/history"
	walletRepo "github.com/fadedpez/tucoroulette/pkg/repositories/wallet"
	"github.com/fadedpez/tucoroulette/pkg/scheduler"
	"github.com/fadedpez/tucoroulette/pkg/services/history"
	"github.com/fadedpez/tucoroulette/pkg/services/image"
	"github.com/fadedpez/tucoroulette/pkg/services/recovery"
	"github.com/fadedpez/tucoroulette/pkg/services/statistics"
	"github.com/fadedpez/tucoroulette/pkg/services/status"
	"github.com/fadedpez/tucoroulette/pkg/services/submission"
	"github.com/fadedpez/tucoroulette/pkg/services/wallet"
	"github.com/fadedpez/tucoroulette/pkg/storage"
	"github.com/fadedpez/tucoroulette/pkg/storage/file"
)

const dialTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Default.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))
	if err := run(cfg, logger); err != nil {
		logger.Error("¡Ay caramba! %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("Metrics server stopped: %v", err)
			}
		}()
		defer srv.Close()
		logger.Info("Serving metrics on %s", cfg.MetricsAddr)
	}

	// Initialize repositories
	var (
		wallets walletRepo.Repository
		rounds  historyRepo.Repository
	)
	if cfg.StorageType == "sqlite" {
		dbPath := filepath.Join(cfg.DataDir, "tucoroulette.db")
		conn, err := db.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer conn.Close()
		wallets = walletRepo.NewSQLiteRepository(conn)
		rounds = historyRepo.NewSQLiteRepository(conn)
		logger.Info("Using SQLite storage at %s", dbPath)
	} else {
		wallets = walletRepo.NewMemoryRepository()
		rounds = historyRepo.NewMemoryRepository()
		logger.Warn("Using in-memory storage, accounts and rounds are lost on restart")
	}

	if cfg.ElasticsearchEnabled() {
		es, err := historyRepo.NewElasticsearchRepository(ctx, rounds, &historyRepo.ElasticsearchConfig{
			URL:         cfg.ESURL,
			Username:    cfg.ESUsername,
			Password:    cfg.ESPassword,
			IndexPrefix: cfg.ESIndexPrefix,
		}, logger)
		if err != nil {
			logger.Warn("Elasticsearch unavailable, continuing without the round index: %v", err)
		} else {
			maintenance := scheduler.NewElasticsearchMaintenanceScheduler(es, logger)
			maintenance.Start(ctx)
			defer maintenance.Stop()
			rounds = es
		}
	}

	ks := wallet.NewKeyStore(filepath.Join(cfg.DataDir, "keystore"))
	walletSvc := wallet.NewService(wallets, ks, cfg.KeystorePassphrase, logger)

	dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
	ledger, err := evm.Dial(dialCtx, evm.Config{
		RPCURL:        cfg.RPCURL,
		ChainID:       cfg.ChainID,
		GameContract:  cfg.GameContract,
		TokenContract: cfg.TokenContract,
		Interface:     cfg.LedgerInterface,
	}, walletSvc, logger)
	dialCancel()
	if err != nil {
		return fmt.Errorf("failed to connect to the chain: %w", err)
	}
	logger.Info("Connected to chain %d, game contract %s (%s interface)",
		cfg.ChainID, cfg.GameContract, ledger.Capabilities().Interface)

	pipeline := submission.NewPipeline(ledger, submission.Config{}, logger)
	reconciler := history.NewReconciler(0)
	intervals := status.Intervals{
		VRFPending: cfg.PollVRFPending,
		Active:     cfg.PollActive,
		Idle:       cfg.PollIdle,
	}

	opts := storage.NewOptions()
	opts.Path = cfg.SessionPath
	prefs, err := file.New(opts)
	if err != nil {
		return fmt.Errorf("failed to open preference storage: %w", err)
	}
	defer prefs.Close()

	images, err := image.NewService(cfg.ImagesPath)
	if err != nil {
		logger.Warn("Images unavailable: %v", err)
	}

	session, err := idiscord.NewSession(cfg.Token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	bot, err := discord.NewBot(session, discord.Config{
		AppID:           cfg.AppID,
		GuildID:         cfg.GuildID,
		CommandRate:     cfg.CommandRate,
		CommandBurst:    cfg.CommandBurst,
		CleanupCommands: cfg.IsDevelopment(),
	}, discord.Deps{
		Ledger:      ledger,
		Submitter:   pipeline,
		Recovery:    recovery.NewService(ledger, pipeline, logger),
		Wallets:     walletSvc,
		Statistics:  statistics.NewService(rounds, wallets),
		History:     rounds,
		Notifier:    notify.NewNotifier(session, notify.NewRecentErrors(notify.DefaultCapacity, notify.DefaultWindow), logger),
		Preferences: prefs,
		Images:      images,
		Logger:      logger,
		Pollers: func(account string) discord.StatusPoller {
			return status.NewPoller(ledger, status.Config{Account: account, Intervals: intervals},
				reconciler, pipeline.Awaiting(), rounds, logger)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	pipeline.OnEpoch(func(account string, _ uint64) {
		bot.RefreshAccount(account)
	})

	// Start the bot
	if err := bot.Start(); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}
	logger.Info("Tuco is spinning the wheel. Press CTRL-C to exit.")

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	logger.Info("Shutting down...")
	return bot.Stop()
}
