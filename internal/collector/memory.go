package collector

import (
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/shirou/gopsutil/v4/mem"
)

// MemoryCollector 内存指标采集器
type MemoryCollector struct{}

// NewMemoryCollector 创建内存采集器
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Collect 采集内存指标（物理内存 + 交换分区）
func (c *MemoryCollector) Collect() (*protocol.MemoryData, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}

	data := &protocol.MemoryData{
		Total:        vm.Total,
		Available:    vm.Available,
		Used:         vm.Used,
		Free:         vm.Free,
		UsagePercent: vm.UsedPercent,
		Timestamp:    time.Now().UnixMilli(),
	}

	// 交换分区采集失败不影响主内存指标
	if swap, err := mem.SwapMemory(); err == nil {
		data.SwapTotal = swap.Total
		data.SwapUsed = swap.Used
		data.SwapFree = swap.Free
		data.SwapPercent = swap.UsedPercent
	}

	return data, nil
}
