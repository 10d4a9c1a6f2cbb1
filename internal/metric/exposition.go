package metric

import (
	"sort"
	"strconv"
	"strings"
)

// Prometheus 文本格式的指标族类型
const (
	TypeGauge   = "gauge"
	TypeCounter = "counter"
)

// Sample 一条样本
type Sample struct {
	Labels map[string]string
	Value  float64
}

// Family 同名指标的集合，对应输出中的一段 HELP/TYPE 及其样本行
type Family struct {
	Name    string
	Help    string
	Type    string
	Samples []Sample
}

// Add 追加一条样本
func (f *Family) Add(labels map[string]string, value float64) {
	f.Samples = append(f.Samples, Sample{Labels: labels, Value: value})
}

// Builder 按注册顺序组装 Prometheus 文本格式输出
type Builder struct {
	families []*Family
	index    map[string]*Family
}

// NewBuilder 创建输出组装器
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[string]*Family),
	}
}

// Gauge 注册或获取一个 gauge 指标族
func (b *Builder) Gauge(name, help string) *Family {
	return b.family(name, help, TypeGauge)
}

// Counter 注册或获取一个 counter 指标族
func (b *Builder) Counter(name, help string) *Family {
	return b.family(name, help, TypeCounter)
}

func (b *Builder) family(name, help, typ string) *Family {
	if f, ok := b.index[name]; ok {
		return f
	}
	f := &Family{Name: name, Help: help, Type: typ}
	b.families = append(b.families, f)
	b.index[name] = f
	return f
}

// Render 渲染全部指标族
// 指标族按注册顺序排列，样本按标签序列排序，输出可复现
func (b *Builder) Render() string {
	var sb strings.Builder

	for _, f := range b.families {
		if len(f.Samples) == 0 {
			continue
		}

		sb.WriteString("# HELP ")
		sb.WriteString(f.Name)
		sb.WriteByte(' ')
		sb.WriteString(f.Help)
		sb.WriteByte('\n')

		sb.WriteString("# TYPE ")
		sb.WriteString(f.Name)
		sb.WriteByte(' ')
		sb.WriteString(f.Type)
		sb.WriteByte('\n')

		lines := make([]string, 0, len(f.Samples))
		for _, sample := range f.Samples {
			lines = append(lines, renderSample(f.Name, sample))
		}
		sort.Strings(lines)
		for _, line := range lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

func renderSample(name string, sample Sample) string {
	var sb strings.Builder
	sb.WriteString(name)

	if len(sample.Labels) > 0 {
		keys := make([]string, 0, len(sample.Labels))
		for k := range sample.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteString(`="`)
			sb.WriteString(escapeLabelValue(sample.Labels[k]))
			sb.WriteByte('"')
		}
		sb.WriteByte('}')
	}

	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(sample.Value, 'g', -1, 64))
	return sb.String()
}

// escapeLabelValue 标签值转义，遵循 Prometheus 文本格式
func escapeLabelValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	return v
}
