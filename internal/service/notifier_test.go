package service

import (
	"testing"
	"time"

	"github.com/dushixiang/marmot/internal/config"
	"go.uber.org/zap"
)

func newTestNotifier(cooldownMinutes int) (*Notifier, *time.Time) {
	current := time.UnixMilli(1700000000000)
	n := NewNotifier(zap.NewNop(), config.SMTPConfig{
		Enabled:         true,
		To:              []string{"ops@example.com"},
		CooldownMinutes: cooldownMinutes,
	})
	n.now = func() time.Time { return current }
	return n, &current
}

func TestShouldSendCooldown(t *testing.T) {
	n, current := newTestNotifier(10)

	if !n.shouldSend("cpu_usage") {
		t.Fatal("首次告警应允许发送")
	}
	if n.shouldSend("cpu_usage") {
		t.Error("冷却期内的重复告警应被丢弃")
	}

	// 不同指标互不影响
	if !n.shouldSend("memory_usage") {
		t.Error("不同指标应独立冷却")
	}

	// 冷却期过后恢复发送
	*current = current.Add(11 * time.Minute)
	if !n.shouldSend("cpu_usage") {
		t.Error("冷却期过后应允许发送")
	}
}

func TestShouldSendNoCooldown(t *testing.T) {
	n, _ := newTestNotifier(0)

	if !n.shouldSend("cpu_usage") || !n.shouldSend("cpu_usage") {
		t.Error("冷却时间为 0 时不应去重")
	}
}
