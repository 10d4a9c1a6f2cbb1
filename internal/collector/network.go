package collector

import (
	"sync"
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/shirou/gopsutil/v4/net"
)

// NetworkCollector 网络指标采集器
// 保存上次采样的累计计数器，用于计算每个网卡的实时速率
type NetworkCollector struct {
	mu       sync.Mutex
	lastTime time.Time
	lastStat map[string]net.IOCountersStat
}

// NewNetworkCollector 创建网络采集器
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{}
}

// Collect 采集各网卡的累计计数器和速率
// 首次调用没有参照样本，速率为 0
func (c *NetworkCollector) Collect() ([]protocol.NetworkData, error) {
	counters, err := net.IOCounters(true)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	c.mu.Lock()
	lastTime := c.lastTime
	lastStat := c.lastStat

	currentStat := make(map[string]net.IOCountersStat, len(counters))
	for _, stat := range counters {
		currentStat[stat.Name] = stat
	}
	c.lastTime = now
	c.lastStat = currentStat
	c.mu.Unlock()

	elapsed := now.Sub(lastTime).Seconds()
	ts := now.UnixMilli()

	result := make([]protocol.NetworkData, 0, len(counters))
	for _, stat := range counters {
		entry := protocol.NetworkData{
			Interface:   stat.Name,
			BytesSent:   stat.BytesSent,
			BytesRecv:   stat.BytesRecv,
			PacketsSent: stat.PacketsSent,
			PacketsRecv: stat.PacketsRecv,
			ErrIn:       stat.Errin,
			ErrOut:      stat.Errout,
			DropIn:      stat.Dropin,
			DropOut:     stat.Dropout,
			Timestamp:   ts,
		}

		if lastStat != nil && elapsed > 0 {
			if prev, ok := lastStat[stat.Name]; ok {
				// 计数器回绕（网卡重置）时本轮速率记为 0
				if stat.BytesSent >= prev.BytesSent {
					entry.UploadSpeed = float64(stat.BytesSent-prev.BytesSent) / elapsed
				}
				if stat.BytesRecv >= prev.BytesRecv {
					entry.DownloadSpeed = float64(stat.BytesRecv-prev.BytesRecv) / elapsed
				}
			}
		}

		result = append(result, entry)
	}

	return result, nil
}
