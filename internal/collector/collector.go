package collector

import (
	"context"
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Collector 聚合采集器，一次采集产出完整的指标快照
type Collector struct {
	cpu     *CPUCollector
	memory  *MemoryCollector
	disk    *DiskCollector
	network *NetworkCollector
	gpu     *GPUCollector
	logger  *zap.Logger
}

// New 创建聚合采集器
func New(logger *zap.Logger) *Collector {
	return &Collector{
		cpu:     NewCPUCollector(),
		memory:  NewMemoryCollector(),
		disk:    NewDiskCollector(),
		network: NewNetworkCollector(),
		gpu:     NewGPUCollector(),
		logger:  logger,
	}
}

// GPUAvailable GPU 采集是否可用
func (c *Collector) GPUAvailable() bool {
	return c.gpu.Available()
}

// Collect 并行采集所有域的指标
// 单个域失败只记日志，对应字段留空，不影响其他域
func (c *Collector) Collect(ctx context.Context) *protocol.SnapshotBundle {
	bundle := &protocol.SnapshotBundle{
		Timestamp: time.Now().UnixMilli(),
	}

	var wg conc.WaitGroup

	wg.Go(func() {
		data, err := c.cpu.Collect()
		if err != nil {
			c.logger.Warn("采集CPU指标失败", zap.Error(err))
			return
		}
		bundle.CPU = data
	})

	wg.Go(func() {
		data, err := c.memory.Collect()
		if err != nil {
			c.logger.Warn("采集内存指标失败", zap.Error(err))
			return
		}
		bundle.Memory = data
	})

	wg.Go(func() {
		data, err := c.disk.Collect()
		if err != nil {
			c.logger.Warn("采集磁盘指标失败", zap.Error(err))
			return
		}
		bundle.Disk = data
	})

	wg.Go(func() {
		data, err := c.disk.CollectIO()
		if err != nil {
			c.logger.Warn("采集磁盘IO指标失败", zap.Error(err))
			return
		}
		bundle.DiskIO = data
	})

	wg.Go(func() {
		data, err := c.network.Collect()
		if err != nil {
			c.logger.Warn("采集网络指标失败", zap.Error(err))
			return
		}
		bundle.Network = data
	})

	wg.Go(func() {
		data, err := c.gpu.Collect(ctx)
		if err != nil {
			c.logger.Warn("采集GPU指标失败", zap.Error(err))
			return
		}
		bundle.GPU = data
	})

	if recovered := wg.WaitAndRecover(); recovered != nil {
		c.logger.Error("采集指标时发生panic", zap.Any("panic", recovered.Value))
	}

	return bundle
}
