package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/metric"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CollectScheduler 采集调度器
// 按固定周期执行 采集 -> 阈值检查 -> 落库，并定时清理过期历史
type CollectScheduler struct {
	cron           *cron.Cron
	cfg            *config.Config
	monitorService *service.MonitorService
	alertService   *service.AlertService
	historyService *service.HistoryService
	tracker        *metric.Tracker
	logger         *zap.Logger
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewCollectScheduler 创建采集调度器
func NewCollectScheduler(
	logger *zap.Logger,
	cfg *config.Config,
	monitorService *service.MonitorService,
	alertService *service.AlertService,
	historyService *service.HistoryService,
	tracker *metric.Tracker,
) *CollectScheduler {
	return &CollectScheduler{
		cron:           cron.New(cron.WithSeconds()), // 支持秒级调度
		cfg:            cfg,
		monitorService: monitorService,
		alertService:   alertService,
		historyService: historyService,
		tracker:        tracker,
		logger:         logger,
	}
}

// Start 启动调度器
func (s *CollectScheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	interval := s.cfg.History.IntervalSeconds
	if interval <= 0 {
		interval = 5
	}

	spec := fmt.Sprintf("@every %ds", interval)
	if _, err := s.cron.AddFunc(spec, s.runCycle); err != nil {
		return fmt.Errorf("添加采集任务失败: %w", err)
	}

	if s.cfg.History.Enabled {
		if _, err := s.cron.AddFunc("@every 1h", s.runPurge); err != nil {
			return fmt.Errorf("添加清理任务失败: %w", err)
		}
	}

	s.logger.Info("启动采集调度器",
		zap.Int("intervalSeconds", interval),
		zap.Bool("historyEnabled", s.cfg.History.Enabled),
	)

	// 启动时先跑一轮，立刻有数据可查
	go s.runCycle()

	s.cron.Start()
	return nil
}

// Stop 停止调度器，等待在途任务结束
func (s *CollectScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("采集调度器已停止")
}

// runCycle 执行一个采集周期
func (s *CollectScheduler) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("采集周期发生panic", zap.Any("panic", r))
		}
	}()

	bundle := s.monitorService.Collect(s.ctx)
	s.alertService.Evaluate(bundle)

	if s.cfg.History.Enabled {
		s.historyService.Record(s.ctx, bundle)
	}

	if err := s.tracker.Flush(); err != nil {
		s.logger.Error("保存计数器基线失败", zap.Error(err))
	}
}

// runPurge 清理超过保留期的历史记录
func (s *CollectScheduler) runPurge() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("清理任务发生panic", zap.Any("panic", r))
		}
	}()

	retention := time.Duration(s.cfg.History.RetentionHours) * time.Hour
	if _, err := s.historyService.Purge(s.ctx, retention); err != nil {
		s.logger.Error("清理历史记录失败", zap.Error(err))
	}
}
