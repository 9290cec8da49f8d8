package app

import (
	"context"

	"github.com/yooncheol/pricewatch/internal/config"
	"github.com/yooncheol/pricewatch/internal/delivery/httpapi"
	"github.com/yooncheol/pricewatch/internal/infra/db"
	"github.com/yooncheol/pricewatch/internal/infra/log"
	"github.com/yooncheol/pricewatch/internal/infra/marketdata"
	"github.com/yooncheol/pricewatch/internal/scheduler"
	"github.com/yooncheol/pricewatch/internal/usecase"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	server    *httpapi.Server
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
	cleanupFn func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	conditionRepo := db.NewConditionRepository(dbConn)
	alertRepo := db.NewAlertRepository(dbConn)
	watchRepo := db.NewWatchEntryRepository(dbConn)
	firingStore := db.NewFiringStore(dbConn)
	prices := marketdata.NewClient(cfg.MarketDataBaseURL, cfg.MarketDataTimeout, cfg.MarketDataRateLimit, logger)

	monitor := usecase.NewMonitor(conditionRepo, alertRepo, firingStore, prices, cfg.MonitorWorkers, logger)
	conditionUC := usecase.NewConditionUsecase(conditionRepo, watchRepo, prices, logger)
	inboxUC := usecase.NewInboxUsecase(alertRepo, logger)
	cleanupUC := usecase.NewCleanupUsecase(alertRepo, conditionRepo, logger)

	sched, err := scheduler.New(monitor, cleanupUC, cfg.MonitorInterval, cfg.CleanupInterval,
		cfg.SessionOpen, cfg.SessionClose, cfg.SessionTimezone, logger)
	if err != nil {
		return nil, err
	}

	handlers := httpapi.NewHandlers(conditionUC, inboxUC, monitor, logger)
	server := httpapi.NewServer(cfg.HTTPAddr, handlers, logger)

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{server: server, scheduler: sched, logger: logger, cleanupFn: cleanup}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("pricewatch service starting")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a.scheduler.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		return a.server.Start(groupCtx)
	})
	return group.Wait()
}

func (a *App) Shutdown() {
	a.logger.Info("pricewatch service shutting down")
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
