package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Thresholds.CPU.Warning != 70 || cfg.Thresholds.CPU.Critical != 90 {
		t.Errorf("CPU 默认阈值不对: %+v", cfg.Thresholds.CPU)
	}
	if cfg.Thresholds.Disk.Warning != 80 || cfg.Thresholds.Disk.Critical != 95 {
		t.Errorf("磁盘默认阈值不对: %+v", cfg.Thresholds.Disk)
	}
	if cfg.History.IntervalSeconds != 5 {
		t.Errorf("默认采集间隔不对: %d", cfg.History.IntervalSeconds)
	}
	if cfg.History.RetentionHours != 24 {
		t.Errorf("默认保留时长不对: %d", cfg.History.RetentionHours)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("默认端口不对: %d", cfg.Server.Port)
	}
	if cfg.Alert.HistoryLimit != 1000 {
		t.Errorf("默认告警历史上限不对: %d", cfg.Alert.HistoryLimit)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("默认配置应通过校验: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("配置文件不存在时应回退默认配置: %v", err)
	}
	if cfg.Thresholds.Memory.Critical != 90 {
		t.Errorf("默认内存严重阈值不对: %v", cfg.Thresholds.Memory.Critical)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
thresholds:
  cpu:
    warning: 60
    critical: 80
server:
  port: 9000
history:
  enabled: false
  retentionHours: 48
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试配置失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Thresholds.CPU.Warning != 60 || cfg.Thresholds.CPU.Critical != 80 {
		t.Errorf("CPU 阈值未被覆盖: %+v", cfg.Thresholds.CPU)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("端口未被覆盖: %d", cfg.Server.Port)
	}
	if cfg.History.Enabled {
		t.Error("历史开关未被覆盖")
	}
	if cfg.History.RetentionHours != 48 {
		t.Errorf("保留时长未被覆盖: %d", cfg.History.RetentionHours)
	}
	// 未出现的配置项保持默认值
	if cfg.Thresholds.Memory.Warning != 75 {
		t.Errorf("未覆盖的阈值应保持默认: %v", cfg.Thresholds.Memory.Warning)
	}
}

func TestLoadInvalidThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	// warning 不得高于等于 critical
	content := `
thresholds:
  cpu:
    warning: 95
    critical: 90
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试配置失败: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("warning 高于 critical 时应校验失败")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("thresholds: ["), 0644); err != nil {
		t.Fatalf("写入测试配置失败: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("非法 YAML 应返回错误")
	}
}
