package protocol

// AlertLevel 告警级别
type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "info"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelCritical AlertLevel = "critical"
)

// Alert 一条告警
type Alert struct {
	ID        string     `json:"id"`        // 告警ID
	Level     AlertLevel `json:"level"`     // 级别
	Metric    string     `json:"metric"`    // 触发告警的指标键，如 cpu_usage、disk_usage_/data
	Message   string     `json:"message"`   // 告警消息
	Value     float64    `json:"value"`     // 触发时的指标值
	Threshold float64    `json:"threshold"` // 被越过的阈值
	Timestamp int64      `json:"timestamp"` // 触发时间(毫秒时间戳)
}
