package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dushixiang/marmot/internal/app"
	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newHistoryCmd 直接查询本地数据库中的历史记录
func newHistoryCmd() *cobra.Command {
	var hours int
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "history <metric>",
		Short: "查询指标历史记录",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metricType := protocol.MetricType(args[0])
			if !metricType.Valid() {
				return fmt.Errorf("无效的指标类型: %s", args[0])
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			db, err := app.OpenDatabase(cfg.History.Database)
			if err != nil {
				return fmt.Errorf("打开数据库失败: %w", err)
			}

			logger := zap.NewNop()
			historyService := service.NewHistoryService(logger, db, cfg.History)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			since := time.Now().Add(-time.Duration(hours) * time.Hour).UnixMilli()

			switch format {
			case "json":
				records, err := historyService.Query(ctx, metricType, since, limit)
				if err != nil {
					return err
				}
				return printJSON(records)
			case "csv":
				exportService := service.NewExportService(logger, afero.NewOsFs(), cfg.Export.Directory, historyService)
				path, err := exportService.ExportHistory(ctx, metricType, since, limit)
				if err != nil {
					return err
				}
				fmt.Printf("导出成功: %s\n", path)
				return nil
			default:
				return fmt.Errorf("不支持的输出格式: %s", format)
			}
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "查询最近多少小时")
	cmd.Flags().IntVar(&limit, "limit", 100, "最多返回多少条")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "输出格式 (json|csv)")
	return cmd
}
