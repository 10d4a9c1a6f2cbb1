package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dushixiang/marmot/internal/collector"
	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/handler"
	"github.com/dushixiang/marmot/internal/metric"
	"github.com/dushixiang/marmot/internal/models"
	"github.com/dushixiang/marmot/internal/scheduler"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/dushixiang/marmot/internal/xlog"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// App 应用实例，负责组件装配和生命周期
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	echo      *echo.Echo
	scheduler *scheduler.CollectScheduler
	tracker   *metric.Tracker
}

// New 装配应用
func New(cfg *config.Config) (*App, error) {
	logger := xlog.New(cfg.Log)

	db, err := OpenDatabase(cfg.History.Database)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	tracker, err := metric.NewTracker(logger, cfg.Tracker.StateFile)
	if err != nil {
		return nil, fmt.Errorf("初始化计数器跟踪器失败: %w", err)
	}

	interval := time.Duration(cfg.History.IntervalSeconds) * time.Second

	monitorService := service.NewMonitorService(logger, collector.New(logger), interval)
	alertService := service.NewAlertService(logger, cfg.Thresholds, cfg.Alert.HistoryLimit)
	historyService := service.NewHistoryService(logger, db, cfg.History)
	expositionService := service.NewExpositionService(logger, monitorService, tracker)
	exportService := service.NewExportService(logger, afero.NewOsFs(), cfg.Export.Directory, historyService)

	notifier := service.NewNotifier(logger, cfg.SMTP)
	alertService.RegisterCallback(notifier.Notify)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handler.Register(e, cfg.Server.EnableCORS,
		handler.NewMonitorHandler(logger, cfg, monitorService, alertService, expositionService),
		handler.NewHistoryHandler(logger, historyService),
		handler.NewAlertHandler(logger, alertService),
		handler.NewExportHandler(logger, monitorService, exportService),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		echo:      e,
		tracker:   tracker,
		scheduler: scheduler.NewCollectScheduler(logger, cfg, monitorService, alertService, historyService, tracker),
	}, nil
}

// OpenDatabase 打开 sqlite 数据库并迁移历史表
func OpenDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = "marmot.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.CPUHistory{},
		&models.MemoryHistory{},
		&models.DiskHistory{},
		&models.NetworkHistory{},
		&models.GPUHistory{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Logger 应用日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Run 启动调度器和 HTTP 服务，阻塞到 ctx 取消后优雅退出
func (a *App) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	a.logger.Info("启动 HTTP 服务", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := a.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return err
	case <-ctx.Done():
		a.Shutdown()
		return nil
	}
}

// Shutdown 停止全部组件
func (a *App) Shutdown() {
	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("关闭 HTTP 服务失败", zap.Error(err))
	}

	if err := a.tracker.Close(); err != nil {
		a.logger.Error("关闭计数器跟踪器失败", zap.Error(err))
	}

	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	a.logger.Info("服务已退出")
	_ = a.logger.Sync()
}
