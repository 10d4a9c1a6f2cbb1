package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertCallback 告警回调，在每次评估中按注册顺序同步调用
type AlertCallback func(alert protocol.Alert)

// AlertService 阈值告警引擎
// 每次 Evaluate 对一份快照做无状态检查，活动告警集整体替换
type AlertService struct {
	mu           sync.RWMutex
	thresholds   config.Thresholds
	active       []protocol.Alert
	history      []protocol.Alert
	historyLimit int
	callbacks    []AlertCallback
	logger       *zap.Logger
	now          func() time.Time
}

// NewAlertService 创建告警引擎
func NewAlertService(logger *zap.Logger, thresholds config.Thresholds, historyLimit int) *AlertService {
	if historyLimit <= 0 {
		historyLimit = 1000
	}
	return &AlertService{
		thresholds:   thresholds,
		historyLimit: historyLimit,
		logger:       logger,
		now:          time.Now,
	}
}

// RegisterCallback 注册告警回调
func (s *AlertService) RegisterCallback(callback AlertCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

// Evaluate 对一份快照执行所有阈值检查
// 无论结果如何，活动告警集都会被本次结果整体替换；
// 产生的告警追加进历史并逐条触发回调
func (s *AlertService) Evaluate(bundle *protocol.SnapshotBundle) []protocol.Alert {
	var alerts []protocol.Alert

	if bundle != nil {
		if bundle.CPU != nil {
			alerts = append(alerts, s.checkCPU(bundle.CPU)...)
		}
		if bundle.Memory != nil {
			alerts = append(alerts, s.checkMemory(bundle.Memory)...)
		}
		if bundle.Disk != nil {
			alerts = append(alerts, s.checkDisk(bundle.Disk)...)
		}
		if bundle.GPU != nil {
			alerts = append(alerts, s.checkGPU(bundle.GPU)...)
		}
	}

	s.mu.Lock()
	s.active = alerts
	s.history = append(s.history, alerts...)
	// 历史超限时丢弃最旧的
	if overflow := len(s.history) - s.historyLimit; overflow > 0 {
		s.history = append(s.history[:0], s.history[overflow:]...)
	}
	callbacks := make([]AlertCallback, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, alert := range alerts {
		s.logger.Warn("触发告警",
			zap.String("level", string(alert.Level)),
			zap.String("metric", alert.Metric),
			zap.Float64("value", alert.Value),
			zap.Float64("threshold", alert.Threshold),
		)
		for _, callback := range callbacks {
			s.invokeCallback(callback, alert)
		}
	}

	return alerts
}

// invokeCallback 调用单个回调，panic 只影响该回调
func (s *AlertService) invokeCallback(callback AlertCallback, alert protocol.Alert) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("告警回调发生panic",
				zap.Any("panic", r),
				zap.String("metric", alert.Metric),
			)
		}
	}()
	callback(alert)
}

// checkCPU 检查 CPU 使用率，critical 命中时不再产生 warning
func (s *AlertService) checkCPU(data *protocol.CPUData) []protocol.Alert {
	var alerts []protocol.Alert
	usage := data.UsagePercent
	t := s.thresholds.CPU

	if usage >= t.Critical {
		alerts = append(alerts, s.newAlert(protocol.AlertLevelCritical, "cpu_usage",
			fmt.Sprintf("CPU使用率达到%.1f%%，超过严重阈值%.1f%%", usage, t.Critical),
			usage, t.Critical))
	} else if usage >= t.Warning {
		alerts = append(alerts, s.newAlert(protocol.AlertLevelWarning, "cpu_usage",
			fmt.Sprintf("CPU使用率达到%.1f%%，超过警告阈值%.1f%%", usage, t.Warning),
			usage, t.Warning))
	}

	return alerts
}

// checkMemory 物理内存和交换分区分别检查，使用同一组阈值
func (s *AlertService) checkMemory(data *protocol.MemoryData) []protocol.Alert {
	var alerts []protocol.Alert
	t := s.thresholds.Memory

	if data.UsagePercent >= t.Critical {
		alerts = append(alerts, s.newAlert(protocol.AlertLevelCritical, "memory_usage",
			fmt.Sprintf("内存使用率达到%.1f%%，超过严重阈值%.1f%%", data.UsagePercent, t.Critical),
			data.UsagePercent, t.Critical))
	} else if data.UsagePercent >= t.Warning {
		alerts = append(alerts, s.newAlert(protocol.AlertLevelWarning, "memory_usage",
			fmt.Sprintf("内存使用率达到%.1f%%，超过警告阈值%.1f%%", data.UsagePercent, t.Warning),
			data.UsagePercent, t.Warning))
	}

	if data.SwapPercent >= t.Critical {
		alerts = append(alerts, s.newAlert(protocol.AlertLevelCritical, "swap_usage",
			fmt.Sprintf("交换分区使用率达到%.1f%%，超过严重阈值%.1f%%", data.SwapPercent, t.Critical),
			data.SwapPercent, t.Critical))
	} else if data.SwapPercent >= t.Warning {
		alerts = append(alerts, s.newAlert(protocol.AlertLevelWarning, "swap_usage",
			fmt.Sprintf("交换分区使用率达到%.1f%%，超过警告阈值%.1f%%", data.SwapPercent, t.Warning),
			data.SwapPercent, t.Warning))
	}

	return alerts
}

// checkDisk 按挂载点逐个检查，读取失败的分区跳过
func (s *AlertService) checkDisk(disks []protocol.DiskData) []protocol.Alert {
	var alerts []protocol.Alert
	t := s.thresholds.Disk

	for _, d := range disks {
		if d.Error != "" {
			continue
		}

		metric := "disk_usage_" + d.MountPoint
		if d.UsagePercent >= t.Critical {
			alerts = append(alerts, s.newAlert(protocol.AlertLevelCritical, metric,
				fmt.Sprintf("磁盘 %s 使用率达到%.1f%%，超过严重阈值%.1f%%", d.MountPoint, d.UsagePercent, t.Critical),
				d.UsagePercent, t.Critical))
		} else if d.UsagePercent >= t.Warning {
			alerts = append(alerts, s.newAlert(protocol.AlertLevelWarning, metric,
				fmt.Sprintf("磁盘 %s 使用率达到%.1f%%，超过警告阈值%.1f%%", d.MountPoint, d.UsagePercent, t.Warning),
				d.UsagePercent, t.Warning))
		}
	}

	return alerts
}

// checkGPU 每块卡的利用率和显存占用分别检查，采集失败的卡跳过
func (s *AlertService) checkGPU(gpus []protocol.GPUData) []protocol.Alert {
	var alerts []protocol.Alert
	t := s.thresholds.GPU

	for _, g := range gpus {
		if g.Error != "" {
			continue
		}

		utilMetric := fmt.Sprintf("gpu_utilization_%d", g.Index)
		if g.Utilization >= t.Critical {
			alerts = append(alerts, s.newAlert(protocol.AlertLevelCritical, utilMetric,
				fmt.Sprintf("GPU %d 使用率达到%.1f%%，超过严重阈值%.1f%%", g.Index, g.Utilization, t.Critical),
				g.Utilization, t.Critical))
		} else if g.Utilization >= t.Warning {
			alerts = append(alerts, s.newAlert(protocol.AlertLevelWarning, utilMetric,
				fmt.Sprintf("GPU %d 使用率达到%.1f%%，超过警告阈值%.1f%%", g.Index, g.Utilization, t.Warning),
				g.Utilization, t.Warning))
		}

		memMetric := fmt.Sprintf("gpu_memory_%d", g.Index)
		if g.MemoryPercent >= t.Critical {
			alerts = append(alerts, s.newAlert(protocol.AlertLevelCritical, memMetric,
				fmt.Sprintf("GPU %d 显存使用率达到%.1f%%，超过严重阈值%.1f%%", g.Index, g.MemoryPercent, t.Critical),
				g.MemoryPercent, t.Critical))
		} else if g.MemoryPercent >= t.Warning {
			alerts = append(alerts, s.newAlert(protocol.AlertLevelWarning, memMetric,
				fmt.Sprintf("GPU %d 显存使用率达到%.1f%%，超过警告阈值%.1f%%", g.Index, g.MemoryPercent, t.Warning),
				g.MemoryPercent, t.Warning))
		}
	}

	return alerts
}

func (s *AlertService) newAlert(level protocol.AlertLevel, metric, message string, value, threshold float64) protocol.Alert {
	return protocol.Alert{
		ID:        uuid.NewString(),
		Level:     level,
		Metric:    metric,
		Message:   message,
		Value:     value,
		Threshold: threshold,
		Timestamp: s.now().UnixMilli(),
	}
}

// GetActiveAlerts 获取当前活动的告警
func (s *AlertService) GetActiveAlerts() []protocol.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]protocol.Alert, len(s.active))
	copy(result, s.active)
	return result
}

// GetAlertHistory 获取告警历史，limit > 0 时返回最近的 limit 条
func (s *AlertService) GetAlertHistory(limit int) []protocol.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.history
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	result := make([]protocol.Alert, len(history))
	copy(result, history)
	return result
}

// ClearAlerts 清空活动告警
func (s *AlertService) ClearAlerts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}

// ClearHistory 清空告警历史
func (s *AlertService) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Thresholds 当前阈值配置
func (s *AlertService) Thresholds() config.Thresholds {
	return s.thresholds
}
