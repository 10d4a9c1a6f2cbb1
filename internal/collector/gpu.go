package collector

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dushixiang/marmot/internal/protocol"
)

// nvidia-smi 查询字段，顺序与 parseGPULine 对应
const nvidiaSMIQuery = "index,name,utilization.gpu,memory.total,memory.used,memory.free,temperature.gpu,power.draw,power.limit"

// GPUCollector GPU 指标采集器
// 通过 nvidia-smi 查询，机器上没有 NVIDIA 驱动时 Available 为 false
type GPUCollector struct {
	binary    string
	available bool
}

// NewGPUCollector 创建 GPU 采集器
func NewGPUCollector() *GPUCollector {
	binary, err := exec.LookPath("nvidia-smi")
	return &GPUCollector{
		binary:    binary,
		available: err == nil,
	}
}

// Available GPU 采集是否可用
func (c *GPUCollector) Available() bool {
	return c.available
}

// Collect 采集所有 GPU 的指标
// 不可用时返回空列表而非错误，单卡解析失败写入该卡的 Error 字段
func (c *GPUCollector) Collect(ctx context.Context) ([]protocol.GPUData, error) {
	if !c.available {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary,
		"--query-gpu="+nvidiaSMIQuery,
		"--format=csv,noheader,nounits",
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	var result []protocol.GPUData

	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		result = append(result, parseGPULine(line, len(result), now))
	}

	return result, nil
}

// parseGPULine 解析 nvidia-smi csv 输出的一行
func parseGPULine(line string, fallbackIndex int, ts int64) protocol.GPUData {
	data := protocol.GPUData{
		Index:     fallbackIndex,
		Timestamp: ts,
	}

	fields := strings.Split(line, ",")
	if len(fields) < 9 {
		data.Error = "unexpected nvidia-smi output: " + line
		return data
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if index, err := strconv.Atoi(fields[0]); err == nil {
		data.Index = index
	}
	data.Name = fields[1]
	data.Utilization = parseGPUFloat(fields[2])

	// nvidia-smi 显存单位为 MiB
	memTotal := parseGPUFloat(fields[3])
	memUsed := parseGPUFloat(fields[4])
	memFree := parseGPUFloat(fields[5])
	data.MemoryTotal = uint64(memTotal * 1024 * 1024)
	data.MemoryUsed = uint64(memUsed * 1024 * 1024)
	data.MemoryFree = uint64(memFree * 1024 * 1024)
	if memTotal > 0 {
		data.MemoryPercent = memUsed / memTotal * 100
	}

	data.Temperature = parseGPUFloat(fields[6])
	data.PowerUsage = parseGPUFloat(fields[7])
	data.PowerLimit = parseGPUFloat(fields[8])

	return data
}

// parseGPUFloat 解析数值字段，不支持的字段（如 [N/A]）记为 0
func parseGPUFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
