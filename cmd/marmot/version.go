package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// 构建时通过 -ldflags 注入
var (
	version   = "dev"
	gitCommit = "unknown"
)

// newVersionCmd 输出版本信息
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "输出版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("marmot %s (%s) %s/%s\n", version, gitCommit, runtime.GOOS, runtime.GOARCH)
		},
	}
}
