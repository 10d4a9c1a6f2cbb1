package models

// CPUHistory CPU 历史记录
type CPUHistory struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp    int64   `gorm:"index:idx_cpu_timestamp" json:"timestamp"` // 采集时间（毫秒）
	UsagePercent float64 `json:"usagePercent"`                             // 总体使用率(%)
	FrequencyMHz float64 `json:"frequencyMhz"`                             // 当前频率(MHz)
	Load1        float64 `json:"load1"`
	Load5        float64 `json:"load5"`
	Load15       float64 `json:"load15"`
}

func (CPUHistory) TableName() string {
	return "cpu_history"
}

// MemoryHistory 内存历史记录
type MemoryHistory struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp      int64   `gorm:"index:idx_memory_timestamp" json:"timestamp"` // 采集时间（毫秒）
	VirtualTotal   uint64  `json:"virtualTotal"`                                // 总内存(字节)
	VirtualUsed    uint64  `json:"virtualUsed"`                                 // 已用内存(字节)
	VirtualPercent float64 `json:"virtualPercent"`                              // 内存使用率(%)
	SwapTotal      uint64  `json:"swapTotal"`                                   // 交换分区总量(字节)
	SwapUsed       uint64  `json:"swapUsed"`                                    // 交换分区已用(字节)
	SwapPercent    float64 `json:"swapPercent"`                                 // 交换分区使用率(%)
}

func (MemoryHistory) TableName() string {
	return "memory_history"
}

// DiskHistory 磁盘历史记录（每个分区一条）
type DiskHistory struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp    int64   `gorm:"index:idx_disk_timestamp" json:"timestamp"` // 采集时间（毫秒）
	MountPoint   string  `json:"mountPoint"`                                // 挂载点
	Total        uint64  `json:"total"`                                     // 总容量(字节)
	Used         uint64  `json:"used"`                                      // 已使用(字节)
	UsagePercent float64 `json:"usagePercent"`                              // 使用率(%)
	ReadBytes    uint64  `json:"readBytes"`                                 // 全盘累计读字节数
	WriteBytes   uint64  `json:"writeBytes"`                                // 全盘累计写字节数
}

func (DiskHistory) TableName() string {
	return "disk_history"
}

// NetworkHistory 网络历史记录（每个网卡一条）
type NetworkHistory struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp     int64   `gorm:"index:idx_network_timestamp" json:"timestamp"` // 采集时间（毫秒）
	Interface     string  `json:"interface"`                                    // 网卡名
	BytesSent     uint64  `json:"bytesSent"`                                    // 累计发送字节数
	BytesRecv     uint64  `json:"bytesRecv"`                                    // 累计接收字节数
	UploadSpeed   float64 `json:"uploadSpeed"`                                  // 上行速率(字节/秒)
	DownloadSpeed float64 `json:"downloadSpeed"`                                // 下行速率(字节/秒)
}

func (NetworkHistory) TableName() string {
	return "network_history"
}

// GPUHistory GPU 历史记录（每块卡一条）
type GPUHistory struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp     int64   `gorm:"index:idx_gpu_timestamp" json:"timestamp"` // 采集时间（毫秒）
	GPUIndex      int     `json:"gpuIndex"`                                 // GPU 序号
	GPUName       string  `json:"gpuName"`                                  // GPU 名称
	Utilization   float64 `json:"utilization"`                              // GPU 使用率(%)
	MemoryPercent float64 `json:"memoryPercent"`                            // 显存使用率(%)
	MemoryUsed    uint64  `json:"memoryUsed"`                               // 显存已用(字节)
	MemoryTotal   uint64  `json:"memoryTotal"`                              // 显存总量(字节)
	Temperature   float64 `json:"temperature"`                              // 温度(摄氏度)
	PowerUsage    float64 `json:"powerUsage"`                               // 功耗(瓦)
}

func (GPUHistory) TableName() string {
	return "gpu_history"
}
