package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dushixiang/marmot/internal/config"
	"github.com/kardianos/service"
)

// program 实现 service.Interface
type program struct {
	cfgPath string
	app     *App
	cancel  context.CancelFunc
}

// Start 启动服务
func (p *program) Start(s service.Service) error {
	cfg, err := config.Load(p.cfgPath)
	if err != nil {
		return err
	}

	a, err := New(cfg)
	if err != nil {
		return err
	}
	p.app = a

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go func() {
		_ = a.Run(ctx)
	}()

	return nil
}

// Stop 停止服务
func (p *program) Stop(s service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// ServiceManager 系统服务管理器
type ServiceManager struct {
	service service.Service
}

// NewServiceManager 创建系统服务管理器
func NewServiceManager(cfgPath string) (*ServiceManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("获取可执行文件路径失败: %w", err)
	}

	svcConfig := &service.Config{
		Name:        "marmot",
		DisplayName: "Marmot Monitor",
		Description: "本机硬件监控服务 - 采集系统指标、阈值告警与历史存储",
		Arguments:   []string{"serve", "--config", cfgPath},
		Executable:  execPath,
		Option: service.KeyValue{
			// Linux systemd 配置
			"Restart":            "always",
			"RestartSec":         "10",
			"StartLimitInterval": "0",
			"KillMode":           "process",

			// Windows 配置
			"OnFailure":    "restart",
			"ResetPeriod":  86400,
			"RestartDelay": 10000,

			// 其他 Unix 系统 (upstart/launchd)
			"KeepAlive": true,
			"RunAtLoad": true,
		},
	}

	s, err := service.New(&program{cfgPath: cfgPath}, svcConfig)
	if err != nil {
		return nil, fmt.Errorf("创建服务失败: %w", err)
	}

	return &ServiceManager{service: s}, nil
}

// Install 安装服务
func (m *ServiceManager) Install() error {
	return m.service.Install()
}

// Uninstall 卸载服务（先停止）
func (m *ServiceManager) Uninstall() error {
	_ = m.service.Stop()
	return m.service.Uninstall()
}

// Start 启动服务
func (m *ServiceManager) Start() error {
	return m.service.Start()
}

// Stop 停止服务
func (m *ServiceManager) Stop() error {
	return m.service.Stop()
}

// Restart 重启服务
func (m *ServiceManager) Restart() error {
	return m.service.Restart()
}

// Status 查看服务状态
func (m *ServiceManager) Status() (string, error) {
	status, err := m.service.Status()
	if err != nil {
		return "", err
	}

	switch status {
	case service.StatusRunning:
		return "运行中 (Running)", nil
	case service.StatusStopped:
		return "已停止 (Stopped)", nil
	default:
		return "未知 (Unknown)", nil
	}
}
