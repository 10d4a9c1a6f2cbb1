package main

import (
	"fmt"

	"github.com/dushixiang/marmot/internal/app"
	"github.com/spf13/cobra"
)

// newServiceCmd 系统服务管理
func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "系统服务管理",
	}

	actions := []struct {
		use   string
		short string
		run   func(m *app.ServiceManager) error
	}{
		{"install", "安装系统服务", func(m *app.ServiceManager) error { return m.Install() }},
		{"uninstall", "卸载系统服务", func(m *app.ServiceManager) error { return m.Uninstall() }},
		{"start", "启动系统服务", func(m *app.ServiceManager) error { return m.Start() }},
		{"stop", "停止系统服务", func(m *app.ServiceManager) error { return m.Stop() }},
		{"restart", "重启系统服务", func(m *app.ServiceManager) error { return m.Restart() }},
	}

	for _, action := range actions {
		run := action.run
		cmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := app.NewServiceManager(configPath)
				if err != nil {
					return err
				}
				return run(m)
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "查看系统服务状态",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.NewServiceManager(configPath)
			if err != nil {
				return err
			}
			status, err := m.Status()
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	})

	return cmd
}
