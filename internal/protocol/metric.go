package protocol

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCPU     MetricType = "cpu"
	MetricTypeMemory  MetricType = "memory"
	MetricTypeDisk    MetricType = "disk"
	MetricTypeNetwork MetricType = "network"
	MetricTypeGPU     MetricType = "gpu"
)

// AllMetricTypes 全部指标类型（用于参数校验和遍历）
func AllMetricTypes() []MetricType {
	return []MetricType{
		MetricTypeCPU,
		MetricTypeMemory,
		MetricTypeDisk,
		MetricTypeNetwork,
		MetricTypeGPU,
	}
}

// Valid 判断指标类型是否合法
func (t MetricType) Valid() bool {
	switch t {
	case MetricTypeCPU, MetricTypeMemory, MetricTypeDisk, MetricTypeNetwork, MetricTypeGPU:
		return true
	}
	return false
}

// CPUData CPU 指标数据
type CPUData struct {
	UsagePercent  float64   `json:"usagePercent"`            // 总体使用率(%)
	PerCPUPercent []float64 `json:"perCpuPercent,omitempty"` // 每核使用率(%)
	LogicalCores  int       `json:"logicalCores"`            // 逻辑核心数
	PhysicalCores int       `json:"physicalCores"`           // 物理核心数
	FrequencyMHz  float64   `json:"frequencyMhz"`            // 当前频率(MHz)
	Load1         float64   `json:"load1"`                   // 1分钟负载
	Load5         float64   `json:"load5"`                   // 5分钟负载
	Load15        float64   `json:"load15"`                  // 15分钟负载
	Timestamp     int64     `json:"timestamp"`               // 采集时间(毫秒时间戳)
}

// MemoryData 内存指标数据（物理内存 + 交换分区）
type MemoryData struct {
	Total        uint64  `json:"total"`        // 总内存(字节)
	Available    uint64  `json:"available"`    // 可用内存(字节)
	Used         uint64  `json:"used"`         // 已用内存(字节)
	Free         uint64  `json:"free"`         // 空闲内存(字节)
	UsagePercent float64 `json:"usagePercent"` // 内存使用率(%)
	SwapTotal    uint64  `json:"swapTotal"`    // 交换分区总量(字节)
	SwapUsed     uint64  `json:"swapUsed"`     // 交换分区已用(字节)
	SwapFree     uint64  `json:"swapFree"`     // 交换分区空闲(字节)
	SwapPercent  float64 `json:"swapPercent"`  // 交换分区使用率(%)
	Timestamp    int64   `json:"timestamp"`    // 采集时间(毫秒时间戳)
}

// DiskData 单个分区的磁盘指标数据
type DiskData struct {
	Device       string  `json:"device"`          // 设备名
	MountPoint   string  `json:"mountPoint"`      // 挂载点
	Fstype       string  `json:"fstype"`          // 文件系统类型
	Total        uint64  `json:"total"`           // 总容量(字节)
	Used         uint64  `json:"used"`            // 已使用(字节)
	Free         uint64  `json:"free"`            // 空闲(字节)
	UsagePercent float64 `json:"usagePercent"`    // 使用率(%)
	Error        string  `json:"error,omitempty"` // 采集失败原因（非空时其余字段无效）
	Timestamp    int64   `json:"timestamp"`       // 采集时间(毫秒时间戳)
}

// DiskIOData 单块磁盘的累计 IO 计数器
type DiskIOData struct {
	Device     string `json:"device"`     // 设备名
	ReadCount  uint64 `json:"readCount"`  // 累计读次数
	WriteCount uint64 `json:"writeCount"` // 累计写次数
	ReadBytes  uint64 `json:"readBytes"`  // 累计读字节数
	WriteBytes uint64 `json:"writeBytes"` // 累计写字节数
	Timestamp  int64  `json:"timestamp"`  // 采集时间(毫秒时间戳)
}

// NetworkData 单个网卡的网络指标数据
// BytesSent/BytesRecv 等字段为操作系统报告的累计计数器，可能因网卡重置而回绕
type NetworkData struct {
	Interface     string  `json:"interface"`     // 网卡名
	BytesSent     uint64  `json:"bytesSent"`     // 累计发送字节数
	BytesRecv     uint64  `json:"bytesRecv"`     // 累计接收字节数
	PacketsSent   uint64  `json:"packetsSent"`   // 累计发送包数
	PacketsRecv   uint64  `json:"packetsRecv"`   // 累计接收包数
	ErrIn         uint64  `json:"errIn"`         // 累计接收错误数
	ErrOut        uint64  `json:"errOut"`        // 累计发送错误数
	DropIn        uint64  `json:"dropIn"`        // 累计接收丢包数
	DropOut       uint64  `json:"dropOut"`       // 累计发送丢包数
	UploadSpeed   float64 `json:"uploadSpeed"`   // 上行速率(字节/秒)
	DownloadSpeed float64 `json:"downloadSpeed"` // 下行速率(字节/秒)
	Timestamp     int64   `json:"timestamp"`     // 采集时间(毫秒时间戳)
}

// GPUData 单块 GPU 的指标数据
type GPUData struct {
	Index         int     `json:"index"`           // GPU 序号
	Name          string  `json:"name"`            // GPU 名称
	Utilization   float64 `json:"utilization"`     // GPU 使用率(%)
	MemoryPercent float64 `json:"memoryPercent"`   // 显存使用率(%)
	MemoryTotal   uint64  `json:"memoryTotal"`     // 显存总量(字节)
	MemoryUsed    uint64  `json:"memoryUsed"`      // 显存已用(字节)
	MemoryFree    uint64  `json:"memoryFree"`      // 显存空闲(字节)
	Temperature   float64 `json:"temperature"`     // 温度(摄氏度)
	PowerUsage    float64 `json:"powerUsage"`      // 功耗(瓦)
	PowerLimit    float64 `json:"powerLimit"`      // 功耗上限(瓦)
	Error         string  `json:"error,omitempty"` // 采集失败原因（非空时其余字段无效）
	Timestamp     int64   `json:"timestamp"`       // 采集时间(毫秒时间戳)
}

// SnapshotBundle 一个采集周期内的全部指标快照
// 字段允许为空：某个域采集失败时对应字段为 nil，消费方按"缺失即无告警"处理
type SnapshotBundle struct {
	CPU       *CPUData      `json:"cpu,omitempty"`
	Memory    *MemoryData   `json:"memory,omitempty"`
	Disk      []DiskData    `json:"disk,omitempty"`
	DiskIO    []DiskIOData  `json:"diskIo,omitempty"`
	Network   []NetworkData `json:"network,omitempty"`
	GPU       []GPUData     `json:"gpu,omitempty"`
	Timestamp int64         `json:"timestamp"` // 本周期采集时间(毫秒时间戳)
}
