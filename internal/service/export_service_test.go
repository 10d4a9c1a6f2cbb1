package service

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func newTestExportService(fs afero.Fs) *ExportService {
	s := NewExportService(zap.NewNop(), fs, "/exports", nil)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func sampleBundle() *protocol.SnapshotBundle {
	return &protocol.SnapshotBundle{
		Timestamp: 1700000000000,
		CPU:       &protocol.CPUData{UsagePercent: 42.5, LogicalCores: 8},
		Memory:    &protocol.MemoryData{UsagePercent: 60, Total: 16 << 30},
	}
}

func TestExportSnapshotJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestExportService(fs)

	path, err := s.ExportSnapshot(sampleBundle(), "json")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if path != "/exports/snapshot_20240102_030405.json" {
		t.Errorf("导出文件名不对: %s", path)
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}

	var decoded protocol.SnapshotBundle
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("导出内容不是合法 JSON: %v", err)
	}
	if decoded.CPU == nil || decoded.CPU.UsagePercent != 42.5 {
		t.Errorf("导出内容不完整: %+v", decoded.CPU)
	}
}

func TestExportSnapshotCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestExportService(fs)

	path, err := s.ExportSnapshot(sampleBundle(), "csv")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if path != "/exports/snapshot_20240102_030405.csv" {
		t.Errorf("导出文件名不对: %s", path)
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	if err != nil {
		t.Fatalf("导出内容不是合法 CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("单行 CSV 应为表头加一行数据: %d 行", len(rows))
	}

	// 嵌套字段展平为 parent_child 形式
	values := make(map[string]string, len(rows[0]))
	for i, header := range rows[0] {
		values[header] = rows[1][i]
	}
	if values["cpu_usagePercent"] != "42.5" {
		t.Errorf("展平字段值不对: %q", values["cpu_usagePercent"])
	}
	if values["cpu_logicalCores"] != "8" {
		t.Errorf("整数值不应带小数: %q", values["cpu_logicalCores"])
	}
}

func TestExportSnapshotUnsupportedFormat(t *testing.T) {
	s := newTestExportService(afero.NewMemMapFs())

	if _, err := s.ExportSnapshot(sampleBundle(), "xml"); err == nil {
		t.Error("不支持的格式应返回错误")
	}
}

func TestExportJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestExportService(fs)

	path, err := s.ExportJSON(map[string]string{"status": "ok"})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if path != "/exports/monitor_export_20240102_030405.json" {
		t.Errorf("导出文件名不对: %s", path)
	}
}

func TestFormatCSVValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{float64(5), "5"},
		{42.5, "42.5"},
		{true, "true"},
	}

	for _, tt := range tests {
		if got := formatCSVValue(tt.in); got != tt.want {
			t.Errorf("formatCSVValue(%v) = %q, 期望 %q", tt.in, got, tt.want)
		}
	}
}
