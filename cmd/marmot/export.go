package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dushixiang/marmot/internal/collector"
	"github.com/dushixiang/marmot/internal/config"
	"github.com/dushixiang/marmot/internal/service"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newExportCmd 采集一次快照并导出到文件
func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出当前系统快照",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			logger := zap.NewNop()
			bundle := collector.New(logger).Collect(ctx)

			exportService := service.NewExportService(logger, afero.NewOsFs(), cfg.Export.Directory, nil)
			path, err := exportService.ExportSnapshot(bundle, format)
			if err != nil {
				return err
			}

			fmt.Printf("导出成功: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "导出格式 (json|csv)")
	return cmd
}
