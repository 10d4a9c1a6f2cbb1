package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/jpillora/backoff"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// 告警邮件正文模板
const alertMailTemplate = `告警级别: {level}
指标: {metric}
详情: {message}
当前值: {value}
阈值: {threshold}
触发时间: {time}
`

// Notifier 告警邮件通知器
// 作为告警引擎的回调注册，同一指标在冷却期内只发送一次，
// 重复告警的去重发生在这里而不是引擎里
type Notifier struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	cfg      config.SMTPConfig
	template *fasttemplate.Template
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotifier 创建通知器
func NewNotifier(logger *zap.Logger, cfg config.SMTPConfig) *Notifier {
	return &Notifier{
		lastSent: make(map[string]time.Time),
		cfg:      cfg,
		template: fasttemplate.New(alertMailTemplate, "{", "}"),
		logger:   logger,
		now:      time.Now,
	}
}

// Notify 处理一条告警
// 冷却期内的重复告警直接丢弃，发送在独立 goroutine 中进行，不阻塞评估
func (n *Notifier) Notify(alert protocol.Alert) {
	if !n.cfg.Enabled || len(n.cfg.To) == 0 {
		return
	}

	if !n.shouldSend(alert.Metric) {
		return
	}

	go n.sendWithRecover(alert)
}

// shouldSend 冷却期去重，允许发送时立即记录时间
func (n *Notifier) shouldSend(metric string) bool {
	cooldown := time.Duration(n.cfg.CooldownMinutes) * time.Minute

	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if last, ok := n.lastSent[metric]; ok && cooldown > 0 && now.Sub(last) < cooldown {
		return false
	}
	n.lastSent[metric] = now
	return true
}

// sendWithRecover 发送邮件（带panic恢复）
func (n *Notifier) sendWithRecover(alert protocol.Alert) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("发送告警通知时发生panic",
				zap.Any("panic", r),
				zap.String("metric", alert.Metric),
			)
		}
	}()

	subject := fmt.Sprintf("【监控告警】[%s] %s", alert.Level, alert.Metric)
	body := n.template.ExecuteString(map[string]interface{}{
		"level":     string(alert.Level),
		"metric":    alert.Metric,
		"message":   alert.Message,
		"value":     fmt.Sprintf("%.2f", alert.Value),
		"threshold": fmt.Sprintf("%.2f", alert.Threshold),
		"time":      time.UnixMilli(alert.Timestamp).Format("2006-01-02 15:04:05"),
	})

	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	const maxAttempts = 3
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = n.send(subject, body); err == nil {
			n.logger.Info("告警通知已发送",
				zap.String("metric", alert.Metric),
				zap.String("level", string(alert.Level)),
			)
			return
		}
		if attempt < maxAttempts {
			time.Sleep(b.Duration())
		}
	}

	n.logger.Error("发送告警通知失败",
		zap.String("metric", alert.Metric),
		zap.Error(err),
	)
}

func (n *Notifier) send(subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.To...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	return d.DialAndSend(m)
}
