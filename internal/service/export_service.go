package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/go-errors/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const exportTimeLayout = "20060102_150405"

// ExportService 数据导出服务
// 把快照和历史数据导出为 JSON/CSV 文件
type ExportService struct {
	fs             afero.Fs
	dir            string
	historyService *HistoryService
	logger         *zap.Logger
	now            func() time.Time
}

// NewExportService 创建导出服务
func NewExportService(logger *zap.Logger, fs afero.Fs, dir string, historyService *HistoryService) *ExportService {
	if dir == "" {
		dir = "./exports"
	}
	return &ExportService{
		fs:             fs,
		dir:            dir,
		historyService: historyService,
		logger:         logger,
		now:            time.Now,
	}
}

// ExportSnapshot 导出一份快照，format 支持 json 和 csv
func (s *ExportService) ExportSnapshot(bundle *protocol.SnapshotBundle, format string) (string, error) {
	timestamp := s.now().Format(exportTimeLayout)

	switch format {
	case "json":
		return s.writeJSON(fmt.Sprintf("snapshot_%s.json", timestamp), bundle)
	case "csv":
		flattened, err := flattenJSON(bundle)
		if err != nil {
			return "", err
		}
		return s.writeFlatCSV(fmt.Sprintf("snapshot_%s.csv", timestamp), flattened)
	default:
		return "", errors.Errorf("不支持的导出格式: %s", format)
	}
}

// ExportHistory 把某类指标的历史记录导出为 CSV
func (s *ExportService) ExportHistory(ctx context.Context, metricType protocol.MetricType, since int64, limit int) (string, error) {
	records, err := s.historyService.Query(ctx, metricType, since, limit)
	if err != nil {
		return "", err
	}

	timestamp := s.now().Format(exportTimeLayout)
	filename := fmt.Sprintf("history_%s_%s.csv", metricType, timestamp)
	return s.writeRecordsCSV(filename, records)
}

// ExportJSON 导出任意数据为 JSON
func (s *ExportService) ExportJSON(data interface{}) (string, error) {
	timestamp := s.now().Format(exportTimeLayout)
	return s.writeJSON(fmt.Sprintf("monitor_export_%s.json", timestamp), data)
}

func (s *ExportService) writeJSON(filename string, data interface{}) (string, error) {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, 0)
	}
	return s.writeFile(filename, content)
}

// writeFlatCSV 把展平后的键值对写成单行 CSV
func (s *ExportService) writeFlatCSV(filename string, flattened map[string]string) (string, error) {
	keys := make([]string, 0, len(flattened))
	for k := range flattened {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, flattened[k])
	}

	return s.writeCSV(filename, [][]string{keys, values})
}

// writeRecordsCSV 把结构体切片写成 CSV，列来自 JSON 字段
func (s *ExportService) writeRecordsCSV(filename string, records interface{}) (string, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return "", errors.Wrap(err, 0)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return "", errors.Wrap(err, 0)
	}
	if len(rows) == 0 {
		return "", errors.New("没有可导出的数据")
	}

	headers := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	lines := [][]string{headers}
	for _, row := range rows {
		line := make([]string, 0, len(headers))
		for _, h := range headers {
			line = append(line, formatCSVValue(row[h]))
		}
		lines = append(lines, line)
	}

	return s.writeCSV(filename, lines)
}

func (s *ExportService) writeCSV(filename string, lines [][]string) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", errors.Wrap(err, 0)
	}

	path := filepath.Join(s.dir, filename)
	file, err := s.fs.Create(path)
	if err != nil {
		return "", errors.Wrap(err, 0)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(lines); err != nil {
		return "", errors.Wrap(err, 0)
	}
	return path, nil
}

func (s *ExportService) writeFile(filename string, content []byte) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", errors.Wrap(err, 0)
	}

	path := filepath.Join(s.dir, filename)
	if err := afero.WriteFile(s.fs, path, content, 0644); err != nil {
		return "", errors.Wrap(err, 0)
	}
	return path, nil
}

// flattenJSON 把嵌套结构展平为 parent_child 形式的键值对，数组保留为 JSON 串
func flattenJSON(data interface{}) (map[string]string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	var nested map[string]interface{}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	result := make(map[string]string)
	flattenInto(result, "", nested)
	return result, nil
}

func flattenInto(result map[string]string, prefix string, value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "_" + k
			}
			flattenInto(result, key, child)
		}
	default:
		result[prefix] = formatCSVValue(value)
	}
}

func formatCSVValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON 数字统一按 float64 解码，整数值不带小数输出
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
