package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRoot 创建根命令
func NewRoot(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "phishguard",
		Short:         "phishguard: 浏览器钓鱼网站检测与拦截",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.SetVersionTemplate("phishguard {{.Version}}\n")

	cmd.PersistentFlags().String("config", getenvDefault("PHISHGUARD_CONFIG", "phishguard.yaml"), "配置文件路径")
	cmd.PersistentFlags().String("log-level", "", "覆盖配置中的日志级别 (debug|info|warn|error|disabled)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newBlacklistCmd())

	return cmd
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
