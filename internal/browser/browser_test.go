package browser

import (
	"strings"
	"testing"

	"phishguard/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := config.NewConfig().DevTools
	cfg.URL = "http://localhost:9333"
	cfg.Launch.Headless = true
	cfg.Launch.ExecPath = "/opt/chrome"

	opts := FromConfig(cfg)
	if opts.RemoteDebuggingPort != 9333 {
		t.Errorf("RemoteDebuggingPort = %d, want 9333", opts.RemoteDebuggingPort)
	}
	if !opts.Headless || opts.ExecPath != "/opt/chrome" {
		t.Errorf("启动选项未从配置复制: %+v", opts)
	}

	cfg.URL = "http://localhost"
	if got := FromConfig(cfg).RemoteDebuggingPort; got != 0 {
		t.Errorf("无端口时应为 0, got %d", got)
	}
}

func TestBuildLaunchArgs(t *testing.T) {
	dir := t.TempDir()
	args := buildLaunchArgs(9444, Options{UserDataDir: dir, Headless: true, Args: []string{"--lang=zh-CN"}})
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--remote-debugging-port=9444",
		"--user-data-dir=" + dir,
		"--headless=new",
		"--lang=zh-CN",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("启动参数缺少 %q: %s", want, joined)
		}
	}
}

func TestPickPort_FallsBackWhenBusy(t *testing.T) {
	p, err := pickPort(0)
	if err != nil {
		t.Fatalf("pickPort(0) error = %v", err)
	}
	if p <= 0 {
		t.Errorf("pickPort(0) = %d", p)
	}
}
