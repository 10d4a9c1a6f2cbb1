package metric

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestObserveDeltaSequence(t *testing.T) {
	tracker, err := NewTracker(zap.NewNop(), "")
	if err != nil {
		t.Fatalf("创建跟踪器失败: %v", err)
	}
	defer tracker.Close()

	// 首次观测建立基线, 回退时重建基线, 绝不产生负增量
	sequence := []struct {
		value uint64
		want  uint64
	}{
		{100, 0},
		{150, 50},
		{90, 0},
		{140, 50},
		{140, 0},
	}

	for i, step := range sequence {
		got := tracker.Observe("net_bytes_sent", map[string]string{"interface": "eth0"}, step.value)
		if got != step.want {
			t.Errorf("第 %d 次观测 %d: 期望增量 %d, 实际 %d", i, step.value, step.want, got)
		}
	}
}

func TestObserveSeparateKeys(t *testing.T) {
	tracker, err := NewTracker(zap.NewNop(), "")
	if err != nil {
		t.Fatalf("创建跟踪器失败: %v", err)
	}
	defer tracker.Close()

	tracker.Observe("net_bytes_sent", map[string]string{"interface": "eth0"}, 100)
	tracker.Observe("net_bytes_sent", map[string]string{"interface": "eth1"}, 500)

	if got := tracker.Observe("net_bytes_sent", map[string]string{"interface": "eth0"}, 110); got != 10 {
		t.Errorf("eth0 增量不对: %d", got)
	}
	if got := tracker.Observe("net_bytes_sent", map[string]string{"interface": "eth1"}, 530); got != 30 {
		t.Errorf("eth1 增量不对: %d", got)
	}
}

func TestBuildKeyLabelOrderIndependent(t *testing.T) {
	a := buildKey("metric", map[string]string{"a": "1", "b": "2"})
	b := buildKey("metric", map[string]string{"b": "2", "a": "1"})
	if a != b {
		t.Errorf("标签顺序不应影响键: %q != %q", a, b)
	}
	if got := buildKey("metric", nil); got != "metric" {
		t.Errorf("无标签时键应为指标名: %q", got)
	}
}

func TestTrackerPersistence(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "baselines.db")

	tracker, err := NewTracker(zap.NewNop(), stateFile)
	if err != nil {
		t.Fatalf("创建跟踪器失败: %v", err)
	}

	tracker.Observe("net_bytes_sent", map[string]string{"interface": "eth0"}, 1000)
	if err := tracker.Close(); err != nil {
		t.Fatalf("关闭跟踪器失败: %v", err)
	}

	// 重新打开后基线仍然有效, 不会把已统计过的量重复计入
	reopened, err := NewTracker(zap.NewNop(), stateFile)
	if err != nil {
		t.Fatalf("重新打开跟踪器失败: %v", err)
	}
	defer reopened.Close()

	if got := reopened.Observe("net_bytes_sent", map[string]string{"interface": "eth0"}, 1200); got != 200 {
		t.Errorf("重启后增量应基于持久化的基线: 期望 200, 实际 %d", got)
	}
}

func TestTrackerFlushWithoutStateFile(t *testing.T) {
	tracker, err := NewTracker(zap.NewNop(), "")
	if err != nil {
		t.Fatalf("创建跟踪器失败: %v", err)
	}

	if err := tracker.Flush(); err != nil {
		t.Errorf("未配置持久化时 Flush 应为空操作: %v", err)
	}
	if err := tracker.Close(); err != nil {
		t.Errorf("未配置持久化时 Close 应为空操作: %v", err)
	}
}
