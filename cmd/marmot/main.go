package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dushixiang/marmot/internal/app"
	"github.com/dushixiang/marmot/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "marmot",
		Short: "本机硬件监控工具",
		Long:  "marmot 采集本机 CPU、内存、磁盘、网络和 GPU 指标，提供阈值告警、历史存储与 HTTP 查询接口。",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "配置文件路径")

	rootCmd.AddCommand(
		newServeCmd(),
		newSnapshotCmd(),
		newAlertsCmd(),
		newHistoryCmd(),
		newExportCmd(),
		newServiceCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newServeCmd 前台运行监控服务
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动监控服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-interrupt
				cancel()
			}()

			return a.Run(ctx)
		},
	}
}
