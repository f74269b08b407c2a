package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"phishguard/internal/config"
	"phishguard/internal/detector"
	"phishguard/internal/logger"
	"phishguard/internal/storage/kv"
	api "phishguard/pkg/api"

	"github.com/spf13/cobra"
)

// app 命令共享的运行时依赖
type app struct {
	cfg *config.Config
	log logger.Logger
	svc api.Service
}

// newApp 读取配置并装配服务；logWriters 为空时使用配置中的输出
func newApp(ctx context.Context, cmd *cobra.Command, logWriters ...string) (*app, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Root().PersistentFlags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	writers := cfg.Log.Writer
	if len(logWriters) > 0 {
		writers = logWriters
	}
	l := logger.New(logger.Options{Level: cfg.Log.Level, Writer: writers})

	store, err := kv.Open(ctx, cfg.Storage, l)
	if err != nil {
		return nil, err
	}
	det := detector.New(detector.Options{BaseURL: cfg.Detector.BaseURL, Timeout: cfg.Detector.Timeout}, l)
	return &app{cfg: cfg, log: l, svc: api.NewService(cfg, det, store, l)}, nil
}

func (a *app) Close() error {
	return a.svc.Close()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
