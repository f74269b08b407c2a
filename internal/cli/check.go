package cli

import (
	"fmt"
	"strings"

	"phishguard/pkg/domain"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "检测单个网址，拦截时写入历史",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, "file")
			if err != nil {
				return err
			}
			defer a.Close()

			v := a.svc.CheckURL(ctx, 0, args[0])
			if asJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			printVerdict(cmd, v)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	return cmd
}

func printVerdict(cmd *cobra.Command, v domain.Verdict) {
	out := cmd.OutOrStdout()
	action := "放行"
	if v.Decision.Blocked() {
		action = "拦截"
	}
	fmt.Fprintf(out, "%s  %s\n", action, v.URL)
	fmt.Fprintf(out, "  安全评分: %d  风险等级: %s\n", v.Record.Score, v.Record.RiskLevel)
	fmt.Fprintf(out, "  黑名单: %d  页面内容: %d  其他: %d\n", v.Record.BlacklistHits, v.Record.DOMRisks, v.Record.BadRequests)
	if v.Record.Failed() {
		fmt.Fprintf(out, "  检测失败: %s\n", v.Record.Failure)
	}
	if len(v.Record.Warnings) > 0 {
		fmt.Fprintf(out, "  %s\n", strings.Join(v.Record.Warnings, "\n  "))
	}
	if v.InterceptID != "" {
		fmt.Fprintf(out, "  拦截编号: %s\n", v.InterceptID)
	}
}
