package service

import (
	"context"
	"time"

	"github.com/dushixiang/marmot/internal/collector"
	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/go-orz/cache"
	"go.uber.org/zap"
)

const latestBundleKey = "latest"

// MonitorService 快照服务
// 持有聚合采集器，缓存最近一次采集的快照供查询接口和指标抓取复用
type MonitorService struct {
	collector   *collector.Collector
	latestCache cache.Cache[string, *protocol.SnapshotBundle]
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewMonitorService 创建快照服务
// interval 为采集周期，缓存有效期取两个周期，保证抓取总能命中最近的快照
func NewMonitorService(logger *zap.Logger, c *collector.Collector, interval time.Duration) *MonitorService {
	cacheTTL := 2 * interval
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Second
	}
	return &MonitorService{
		collector:   c,
		latestCache: cache.New[string, *protocol.SnapshotBundle](time.Minute),
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Collect 立即采集一份新快照并更新缓存
func (s *MonitorService) Collect(ctx context.Context) *protocol.SnapshotBundle {
	bundle := s.collector.Collect(ctx)
	s.latestCache.Set(latestBundleKey, bundle, s.cacheTTL)
	return bundle
}

// Latest 返回最近的快照，缓存过期时触发一次新采集
func (s *MonitorService) Latest(ctx context.Context) *protocol.SnapshotBundle {
	if bundle, ok := s.latestCache.Get(latestBundleKey); ok {
		return bundle
	}
	return s.Collect(ctx)
}

// GPUAvailable GPU 采集是否可用
func (s *MonitorService) GPUAvailable() bool {
	return s.collector.GPUAvailable()
}
