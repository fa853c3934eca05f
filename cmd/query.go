package cmd

import (
	"github.com/spf13/cobra"
)

// queryCmd 查询命令组
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "查询统计数据",
	Long:  `直接通过网关查询上游统计数据,与服务端共享同样的限流、重试与有界交付逻辑。`,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
