package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBlacklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "管理检测服务的域名黑名单",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出黑名单",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, "file")
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.svc.Blacklist(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if list.Stale {
				fmt.Fprintln(out, "# 检测服务不可用，显示本地缓存")
			}
			for _, d := range list.Domains {
				fmt.Fprintln(out, d)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <domain>",
		Short: "加入黑名单",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, "file")
			if err != nil {
				return err
			}
			defer a.Close()
			list, err := a.svc.AddBlacklist(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已加入，共 %d 个域名\n", len(list))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <domain>",
		Short: "移出黑名单",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, "file")
			if err != nil {
				return err
			}
			defer a.Close()
			list, err := a.svc.RemoveBlacklist(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已移除，剩余 %d 个域名\n", len(list))
			return nil
		},
	})
	return cmd
}
