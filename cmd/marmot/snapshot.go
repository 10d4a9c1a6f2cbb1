package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dushixiang/marmot/internal/collector"
	"github.com/dushixiang/marmot/internal/protocol"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newSnapshotCmd 采集并输出一次系统快照
func newSnapshotCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "采集一次系统快照",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			bundle := collector.New(zap.NewNop()).Collect(ctx)

			switch format {
			case "json":
				return printJSON(bundle)
			case "table":
				printSnapshotTable(bundle)
				return nil
			default:
				return fmt.Errorf("不支持的输出格式: %s", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "输出格式 (json|table)")
	return cmd
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printSnapshotTable(bundle *protocol.SnapshotBundle) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "采集时间\t%s\n", time.UnixMilli(bundle.Timestamp).Format("2006-01-02 15:04:05"))

	if bundle.CPU != nil {
		fmt.Fprintf(w, "CPU\t%.1f%% (%d核, 负载 %.2f/%.2f/%.2f)\n",
			bundle.CPU.UsagePercent, bundle.CPU.LogicalCores,
			bundle.CPU.Load1, bundle.CPU.Load5, bundle.CPU.Load15)
	}

	if bundle.Memory != nil {
		fmt.Fprintf(w, "内存\t%.1f%% (%s / %s)\n",
			bundle.Memory.UsagePercent,
			formatBytes(bundle.Memory.Used), formatBytes(bundle.Memory.Total))
		if bundle.Memory.SwapTotal > 0 {
			fmt.Fprintf(w, "交换分区\t%.1f%% (%s / %s)\n",
				bundle.Memory.SwapPercent,
				formatBytes(bundle.Memory.SwapUsed), formatBytes(bundle.Memory.SwapTotal))
		}
	}

	for _, d := range bundle.Disk {
		if d.Error != "" {
			fmt.Fprintf(w, "磁盘 %s\t采集失败: %s\n", d.MountPoint, d.Error)
			continue
		}
		fmt.Fprintf(w, "磁盘 %s\t%.1f%% (%s / %s)\n",
			d.MountPoint, d.UsagePercent, formatBytes(d.Used), formatBytes(d.Total))
	}

	for _, n := range bundle.Network {
		fmt.Fprintf(w, "网卡 %s\t发送 %s 接收 %s\n",
			n.Interface, formatBytes(n.BytesSent), formatBytes(n.BytesRecv))
	}

	for _, g := range bundle.GPU {
		if g.Error != "" {
			fmt.Fprintf(w, "GPU %d\t采集失败: %s\n", g.Index, g.Error)
			continue
		}
		fmt.Fprintf(w, "GPU %d %s\t使用率 %.1f%% 显存 %.1f%% 温度 %.0f°C\n",
			g.Index, g.Name, g.Utilization, g.MemoryPercent, g.Temperature)
	}
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
