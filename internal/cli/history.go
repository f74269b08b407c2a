package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "查看或清空拦截历史",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "清空拦截历史",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, "file")
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.svc.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "历史记录已清空")
			return nil
		},
	})
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出拦截历史，最新在前",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, "file")
			if err != nil {
				return err
			}
			defer a.Close()

			items := a.svc.History(cmd.Context())
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "暂无拦截记录")
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(out, "%s  %-8s  %-6s  %s  %s\n", it.Timestamp, it.ThreatLevel, it.InterceptID, it.URL, it.ThreatName)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	return cmd
}
