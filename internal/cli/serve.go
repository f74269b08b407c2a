package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"phishguard/internal/browser"
	"phishguard/internal/httpapi"
	"phishguard/internal/manager"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var launch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 接口并跟踪浏览器标签页",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if launch || a.cfg.DevTools.Launch.Enabled {
				opts := browser.FromConfig(a.cfg.DevTools)
				opts.Log = a.log
				b, err := browser.Start(ctx, opts)
				if err != nil {
					return fmt.Errorf("launch browser: %w", err)
				}
				defer func() { _ = b.Stop(3 * time.Second) }()
				a.cfg.DevTools.URL = b.DevToolsURL
			}

			mgr, err := manager.New(manager.Options{
				DevToolsURL:  a.cfg.DevTools.URL,
				Skip:         a.cfg.DevTools.Skip,
				SyncInterval: a.cfg.DevTools.SyncInterval,
				BlockPage:    a.svc.BlockPage(),
			}, a.svc, a.log)
			if err != nil {
				return err
			}
			a.svc.SetHost(mgr)
			a.svc.Start(ctx)

			srv := &http.Server{
				Addr:              a.cfg.HTTP.Addr,
				Handler:           httpapi.NewServer(a.svc, a.log),
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 2)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			go func() {
				if err := mgr.Run(ctx); err != nil {
					errCh <- err
				}
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "phishguard listening on %s (devtools %s)\n", a.cfg.HTTP.Addr, a.cfg.DevTools.URL)

			select {
			case <-ctx.Done():
			case err = <-errCh:
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				a.log.Err(serr, "关闭 HTTP 服务失败")
			}
			a.log.Info("服务已停止")
			return err
		},
	}

	cmd.Flags().BoolVar(&launch, "launch", false, "启动一个新的浏览器实例")
	return cmd
}
