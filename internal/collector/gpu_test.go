package collector

import (
	"testing"
)

func TestParseGPULine(t *testing.T) {
	line := "0, NVIDIA GeForce RTX 4090, 35, 24564, 1024, 23540, 45, 120.5, 450.0"

	data := parseGPULine(line, 9, 1700000000000)
	if data.Error != "" {
		t.Fatalf("解析失败: %s", data.Error)
	}
	if data.Index != 0 {
		t.Errorf("序号不对: %d", data.Index)
	}
	if data.Name != "NVIDIA GeForce RTX 4090" {
		t.Errorf("名称不对: %q", data.Name)
	}
	if data.Utilization != 35 {
		t.Errorf("使用率不对: %v", data.Utilization)
	}
	// MiB 转字节
	if data.MemoryTotal != 24564*1024*1024 {
		t.Errorf("显存总量不对: %d", data.MemoryTotal)
	}
	if data.MemoryUsed != 1024*1024*1024 {
		t.Errorf("显存已用不对: %d", data.MemoryUsed)
	}
	wantPercent := 1024.0 / 24564.0 * 100
	if data.MemoryPercent != wantPercent {
		t.Errorf("显存使用率不对: %v", data.MemoryPercent)
	}
	if data.Temperature != 45 {
		t.Errorf("温度不对: %v", data.Temperature)
	}
	if data.PowerUsage != 120.5 {
		t.Errorf("功耗不对: %v", data.PowerUsage)
	}
	if data.Timestamp != 1700000000000 {
		t.Errorf("时间戳不对: %d", data.Timestamp)
	}
}

func TestParseGPULineNotAvailable(t *testing.T) {
	// 部分字段在某些卡上返回 [N/A]
	line := "1, Tesla T4, 10, 15360, 512, 14848, 38, [N/A], [N/A]"

	data := parseGPULine(line, 0, 0)
	if data.Error != "" {
		t.Fatalf("解析失败: %s", data.Error)
	}
	if data.Index != 1 {
		t.Errorf("序号不对: %d", data.Index)
	}
	if data.PowerUsage != 0 || data.PowerLimit != 0 {
		t.Errorf("[N/A] 字段应记为 0: %v, %v", data.PowerUsage, data.PowerLimit)
	}
}

func TestParseGPULineMalformed(t *testing.T) {
	data := parseGPULine("garbage output", 2, 0)
	if data.Error == "" {
		t.Error("字段不足时应记录错误")
	}
	if data.Index != 2 {
		t.Errorf("解析失败时应回退到行号: %d", data.Index)
	}
}
