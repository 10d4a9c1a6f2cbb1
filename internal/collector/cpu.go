package collector

import (
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
)

// CPUCollector CPU 指标采集器
type CPUCollector struct{}

// NewCPUCollector 创建 CPU 采集器
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{}
}

// Collect 采集 CPU 指标
func (c *CPUCollector) Collect() (*protocol.CPUData, error) {
	// 非阻塞采样，使用上次调用以来的累计值
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return nil, err
	}

	data := &protocol.CPUData{
		Timestamp: time.Now().UnixMilli(),
	}
	if len(percents) > 0 {
		data.UsagePercent = percents[0]
	}

	if perCPU, err := cpu.Percent(0, true); err == nil {
		data.PerCPUPercent = perCPU
	}

	if logical, err := cpu.Counts(true); err == nil {
		data.LogicalCores = logical
	}
	if physical, err := cpu.Counts(false); err == nil {
		data.PhysicalCores = physical
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		data.FrequencyMHz = infos[0].Mhz
	}

	if loadAvg, err := load.Avg(); err == nil && loadAvg != nil {
		data.Load1 = loadAvg.Load1
		data.Load5 = loadAvg.Load5
		data.Load15 = loadAvg.Load15
	}

	return data, nil
}
