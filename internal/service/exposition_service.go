package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/dushixiang/marmot/internal/metric"
	"github.com/dushixiang/marmot/internal/protocol"
	"go.uber.org/zap"
)

// ExpositionService 指标抓取服务
// 每次抓取读取最近的快照，累计计数器经过增量跟踪后以单调递增的总量输出
type ExpositionService struct {
	mu             sync.Mutex
	totals         map[string]float64 // 抓取口径下的累计总量，按 指标名|标签 聚合
	monitorService *MonitorService
	tracker        *metric.Tracker
	logger         *zap.Logger
}

// NewExpositionService 创建指标抓取服务
func NewExpositionService(logger *zap.Logger, monitorService *MonitorService, tracker *metric.Tracker) *ExpositionService {
	return &ExpositionService{
		totals:         make(map[string]float64),
		monitorService: monitorService,
		tracker:        tracker,
		logger:         logger,
	}
}

// accumulate 把一次计数器观测的增量累加进抓取总量
func (s *ExpositionService) accumulate(name string, labels map[string]string, value uint64) float64 {
	delta := s.tracker.Observe(name, labels, value)

	key := name
	for k, v := range labels {
		key += "|" + k + "=" + v
	}

	s.mu.Lock()
	s.totals[key] += float64(delta)
	total := s.totals[key]
	s.mu.Unlock()
	return total
}

// Render 采集当前指标并渲染为 Prometheus 文本格式
func (s *ExpositionService) Render(ctx context.Context) string {
	bundle := s.monitorService.Latest(ctx)

	b := metric.NewBuilder()
	s.renderCPU(b, bundle.CPU)
	s.renderMemory(b, bundle.Memory)
	s.renderDisk(b, bundle.Disk, bundle.DiskIO)
	s.renderNetwork(b, bundle.Network)
	s.renderGPU(b, bundle.GPU)
	return b.Render()
}

func (s *ExpositionService) renderCPU(b *metric.Builder, data *protocol.CPUData) {
	if data == nil {
		return
	}

	percent := b.Gauge("system_cpu_percent", "CPU usage percentage")
	percent.Add(map[string]string{"cpu": "overall"}, data.UsagePercent)
	for i, v := range data.PerCPUPercent {
		percent.Add(map[string]string{"cpu": fmt.Sprintf("cpu%d", i)}, v)
	}

	count := b.Gauge("system_cpu_count", "Number of CPUs")
	count.Add(map[string]string{"type": "logical"}, float64(data.LogicalCores))
	count.Add(map[string]string{"type": "physical"}, float64(data.PhysicalCores))

	freq := b.Gauge("system_cpu_frequency_mhz", "CPU frequency in MHz")
	freq.Add(map[string]string{"cpu": "overall", "type": "current"}, data.FrequencyMHz)

	load := b.Gauge("system_cpu_load_average", "CPU load average")
	load.Add(map[string]string{"interval": "1min"}, data.Load1)
	load.Add(map[string]string{"interval": "5min"}, data.Load5)
	load.Add(map[string]string{"interval": "15min"}, data.Load15)
}

func (s *ExpositionService) renderMemory(b *metric.Builder, data *protocol.MemoryData) {
	if data == nil {
		return
	}

	b.Gauge("system_memory_total_bytes", "Total memory in bytes").Add(nil, float64(data.Total))
	b.Gauge("system_memory_available_bytes", "Available memory in bytes").Add(nil, float64(data.Available))
	b.Gauge("system_memory_used_bytes", "Used memory in bytes").Add(nil, float64(data.Used))
	b.Gauge("system_memory_percent", "Memory usage percentage").Add(nil, data.UsagePercent)
	b.Gauge("system_swap_total_bytes", "Total swap in bytes").Add(nil, float64(data.SwapTotal))
	b.Gauge("system_swap_used_bytes", "Used swap in bytes").Add(nil, float64(data.SwapUsed))
	b.Gauge("system_swap_percent", "Swap usage percentage").Add(nil, data.SwapPercent)
}

func (s *ExpositionService) renderDisk(b *metric.Builder, disks []protocol.DiskData, diskIO []protocol.DiskIOData) {
	total := b.Gauge("system_disk_total_bytes", "Total disk space in bytes")
	used := b.Gauge("system_disk_used_bytes", "Used disk space in bytes")
	free := b.Gauge("system_disk_free_bytes", "Free disk space in bytes")
	percent := b.Gauge("system_disk_percent", "Disk usage percentage")

	for _, d := range disks {
		if d.Error != "" {
			continue
		}
		labels := map[string]string{"device": d.Device, "mountpoint": d.MountPoint}
		total.Add(labels, float64(d.Total))
		used.Add(labels, float64(d.Used))
		free.Add(labels, float64(d.Free))
		percent.Add(labels, d.UsagePercent)
	}

	readBytes := b.Counter("system_disk_read_bytes_total", "Total bytes read from disk")
	writeBytes := b.Counter("system_disk_write_bytes_total", "Total bytes written to disk")
	readCount := b.Counter("system_disk_read_count_total", "Total read operations")
	writeCount := b.Counter("system_disk_write_count_total", "Total write operations")

	for _, io := range diskIO {
		labels := map[string]string{"device": io.Device}
		readBytes.Add(labels, s.accumulate("system_disk_read_bytes_total", labels, io.ReadBytes))
		writeBytes.Add(labels, s.accumulate("system_disk_write_bytes_total", labels, io.WriteBytes))
		readCount.Add(labels, s.accumulate("system_disk_read_count_total", labels, io.ReadCount))
		writeCount.Add(labels, s.accumulate("system_disk_write_count_total", labels, io.WriteCount))
	}
}

func (s *ExpositionService) renderNetwork(b *metric.Builder, networks []protocol.NetworkData) {
	families := []struct {
		name  string
		help  string
		value func(protocol.NetworkData) uint64
	}{
		{"system_network_bytes_sent_total", "Total bytes sent", func(n protocol.NetworkData) uint64 { return n.BytesSent }},
		{"system_network_bytes_recv_total", "Total bytes received", func(n protocol.NetworkData) uint64 { return n.BytesRecv }},
		{"system_network_packets_sent_total", "Total packets sent", func(n protocol.NetworkData) uint64 { return n.PacketsSent }},
		{"system_network_packets_recv_total", "Total packets received", func(n protocol.NetworkData) uint64 { return n.PacketsRecv }},
		{"system_network_errors_in_total", "Total incoming errors", func(n protocol.NetworkData) uint64 { return n.ErrIn }},
		{"system_network_errors_out_total", "Total outgoing errors", func(n protocol.NetworkData) uint64 { return n.ErrOut }},
		{"system_network_drops_in_total", "Total incoming drops", func(n protocol.NetworkData) uint64 { return n.DropIn }},
		{"system_network_drops_out_total", "Total outgoing drops", func(n protocol.NetworkData) uint64 { return n.DropOut }},
	}

	for _, family := range families {
		f := b.Counter(family.name, family.help)
		for _, n := range networks {
			labels := map[string]string{"interface": n.Interface}
			f.Add(labels, s.accumulate(family.name, labels, family.value(n)))
		}
	}
}

func (s *ExpositionService) renderGPU(b *metric.Builder, gpus []protocol.GPUData) {
	utilization := b.Gauge("system_gpu_utilization_percent", "GPU utilization percentage")
	memPercent := b.Gauge("system_gpu_memory_percent", "GPU memory usage percentage")
	memTotal := b.Gauge("system_gpu_memory_total_mb", "Total GPU memory in MB")
	memUsed := b.Gauge("system_gpu_memory_used_mb", "Used GPU memory in MB")
	memFree := b.Gauge("system_gpu_memory_free_mb", "Free GPU memory in MB")
	temperature := b.Gauge("system_gpu_temperature_celsius", "GPU temperature in Celsius")
	powerDraw := b.Gauge("system_gpu_power_draw_watts", "GPU power draw in watts")
	powerLimit := b.Gauge("system_gpu_power_limit_watts", "GPU power limit in watts")

	const mib = 1024 * 1024
	for _, g := range gpus {
		if g.Error != "" {
			continue
		}
		labels := map[string]string{
			"gpu_id":   fmt.Sprintf("%d", g.Index),
			"gpu_name": g.Name,
		}
		utilization.Add(labels, g.Utilization)
		memPercent.Add(labels, g.MemoryPercent)
		memTotal.Add(labels, float64(g.MemoryTotal)/mib)
		memUsed.Add(labels, float64(g.MemoryUsed)/mib)
		memFree.Add(labels, float64(g.MemoryFree)/mib)
		temperature.Add(labels, g.Temperature)
		powerDraw.Add(labels, g.PowerUsage)
		powerLimit.Add(labels, g.PowerLimit)
	}
}
