package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dushixiang/marmot/internal/collector"
	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newAlertsCmd 对一次新采集的快照执行阈值检查并输出结果
func newAlertsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "采集快照并执行阈值检查",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			logger := zap.NewNop()
			bundle := collector.New(logger).Collect(ctx)
			alerts := service.NewAlertService(logger, cfg.Thresholds, cfg.Alert.HistoryLimit).Evaluate(bundle)

			if format == "json" {
				return printJSON(alerts)
			}

			if len(alerts) == 0 {
				fmt.Println("所有指标正常，没有触发告警")
				return nil
			}
			for _, alert := range alerts {
				fmt.Printf("[%s] %s: %s\n", alert.Level, alert.Metric, alert.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "输出格式 (json|text)")
	return cmd
}
