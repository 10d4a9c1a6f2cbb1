package collector

import (
	"strings"
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/shirou/gopsutil/v4/disk"
)

// DiskCollector 磁盘指标采集器
type DiskCollector struct{}

// NewDiskCollector 创建磁盘采集器
func NewDiskCollector() *DiskCollector {
	return &DiskCollector{}
}

// skipFstype 跳过虚拟文件系统
func skipFstype(fstype string) bool {
	switch strings.ToLower(fstype) {
	case "tmpfs", "devtmpfs", "devfs", "overlay", "squashfs", "aufs", "proc", "sysfs", "cgroup", "cgroup2":
		return true
	}
	return false
}

// Collect 采集所有分区的使用情况
// 单个分区读取失败时写入 Error 字段，不中断其余分区
func (c *DiskCollector) Collect() ([]protocol.DiskData, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	result := make([]protocol.DiskData, 0, len(partitions))

	for _, p := range partitions {
		if skipFstype(p.Fstype) {
			continue
		}

		entry := protocol.DiskData{
			Device:     p.Device,
			MountPoint: p.Mountpoint,
			Fstype:     p.Fstype,
			Timestamp:  now,
		}

		usage, err := disk.Usage(p.Mountpoint)
		if err != nil {
			entry.Error = err.Error()
			result = append(result, entry)
			continue
		}

		entry.Total = usage.Total
		entry.Used = usage.Used
		entry.Free = usage.Free
		entry.UsagePercent = usage.UsedPercent
		result = append(result, entry)
	}

	return result, nil
}

// CollectIO 采集各磁盘的累计 IO 计数器
func (c *DiskCollector) CollectIO() ([]protocol.DiskIOData, error) {
	counters, err := disk.IOCounters()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	result := make([]protocol.DiskIOData, 0, len(counters))
	for name, stat := range counters {
		result = append(result, protocol.DiskIOData{
			Device:     name,
			ReadCount:  stat.ReadCount,
			WriteCount: stat.WriteCount,
			ReadBytes:  stat.ReadBytes,
			WriteBytes: stat.WriteBytes,
			Timestamp:  now,
		})
	}

	return result, nil
}
