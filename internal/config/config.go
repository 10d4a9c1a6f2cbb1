package config

import (
	"fmt"
	"os"

	"github.com/dushixiang/marmot/internal/xlog"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ThresholdPair 告警阈值对，warning 必须低于 critical
type ThresholdPair struct {
	Warning  float64 `yaml:"warning" validate:"gte=0"`
	Critical float64 `yaml:"critical" validate:"gte=0,gtfield=Warning"`
}

// Thresholds 各指标类型的告警阈值
// network 阈值单位为 MB/s，与其他百分比阈值不同，仅保留配置不参与周期检查
type Thresholds struct {
	CPU     ThresholdPair `yaml:"cpu" validate:"required"`
	Memory  ThresholdPair `yaml:"memory" validate:"required"`
	Disk    ThresholdPair `yaml:"disk" validate:"required"`
	GPU     ThresholdPair `yaml:"gpu" validate:"required"`
	Network ThresholdPair `yaml:"network" validate:"required"`
}

// HistoryConfig 历史数据配置
type HistoryConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Database        string `yaml:"database"`
	RetentionHours  int    `yaml:"retentionHours" validate:"gte=1"`
	IntervalSeconds int    `yaml:"intervalSeconds" validate:"gte=1"`
	WriteTimeoutMs  int    `yaml:"writeTimeoutMs" validate:"gte=1"`
}

// AlertConfig 告警引擎配置
type AlertConfig struct {
	HistoryLimit int `yaml:"historyLimit" validate:"gte=1"` // 内存中保留的告警历史条数上限
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port" validate:"gte=1,lte=65535"`
	EnableCORS bool   `yaml:"enableCors"`
}

// ExportConfig 数据导出配置
type ExportConfig struct {
	Directory string `yaml:"directory"`
}

// TrackerConfig 计数器基线持久化配置
type TrackerConfig struct {
	StateFile string `yaml:"stateFile"` // 为空时不持久化，重启后基线重建
}

// SMTPConfig 邮件通知配置
type SMTPConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	From            string   `yaml:"from"`
	To              []string `yaml:"to"`
	CooldownMinutes int      `yaml:"cooldownMinutes" validate:"gte=0"` // 同一指标的通知冷却时间
}

// Config 应用配置，加载后不可变
type Config struct {
	Thresholds Thresholds    `yaml:"thresholds" validate:"required"`
	History    HistoryConfig `yaml:"history" validate:"required"`
	Alert      AlertConfig   `yaml:"alert" validate:"required"`
	Server     ServerConfig  `yaml:"server" validate:"required"`
	Export     ExportConfig  `yaml:"export"`
	Tracker    TrackerConfig `yaml:"tracker"`
	SMTP       SMTPConfig    `yaml:"smtp"`
	Log        xlog.Config   `yaml:"log"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{
			CPU:     ThresholdPair{Warning: 70, Critical: 90},
			Memory:  ThresholdPair{Warning: 75, Critical: 90},
			Disk:    ThresholdPair{Warning: 80, Critical: 95},
			GPU:     ThresholdPair{Warning: 80, Critical: 95},
			Network: ThresholdPair{Warning: 100, Critical: 500},
		},
		History: HistoryConfig{
			Enabled:         true,
			Database:        "marmot.db",
			RetentionHours:  24,
			IntervalSeconds: 5,
			WriteTimeoutMs:  3000,
		},
		Alert: AlertConfig{
			HistoryLimit: 1000,
		},
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8000,
			EnableCORS: true,
		},
		Export: ExportConfig{
			Directory: "./exports",
		},
		SMTP: SMTPConfig{
			Port:            25,
			CooldownMinutes: 10,
		},
		Log: xlog.Config{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// Load 从文件加载配置
// 文件不存在时使用默认配置，存在但非法时返回错误
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, nil
			}
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}
