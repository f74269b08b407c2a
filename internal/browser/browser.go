package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/logger"

	"github.com/mafredri/cdp/devtool"
)

// Options 浏览器启动选项
type Options struct {
	ExecPath            string   // 浏览器可执行文件路径
	UserDataDir         string   // 用户数据目录
	RemoteDebuggingPort int      // CDP端口，0表示 9222
	Headless            bool     // 是否以无头模式启动
	Args                []string // 额外启动参数
	Env                 []string // 额外环境变量
	Log                 logger.Logger
}

// FromConfig 由 devtools 配置生成启动选项，端口取自 devtools.url
func FromConfig(cfg config.DevToolsConfig) Options {
	opts := Options{
		ExecPath:    cfg.Launch.ExecPath,
		UserDataDir: cfg.Launch.UserDataDir,
		Headless:    cfg.Launch.Headless,
		Args:        cfg.Launch.Args,
	}
	if u, err := url.Parse(cfg.URL); err == nil {
		if p, err := strconv.Atoi(u.Port()); err == nil {
			opts.RemoteDebuggingPort = p
		}
	}
	return opts
}

// Browser 已启动的浏览器进程句柄
type Browser struct {
	cmd         *exec.Cmd
	DevToolsURL string
	port        int
}

// Start 启动浏览器并等待CDP服务就绪
func Start(ctx context.Context, opts Options) (*Browser, error) {
	exe := opts.ExecPath
	if exe == "" {
		exe = defaultChromePath()
	}
	if exe == "" {
		return nil, errors.New("chrome executable not found")
	}

	port := opts.RemoteDebuggingPort
	if port == 0 {
		port = 9222
	}

	finalPort, err := pickPort(port)
	if err != nil {
		return nil, fmt.Errorf("failed to pick port: %w", err)
	}

	port = finalPort
	args := buildLaunchArgs(port, opts)
	cmd := exec.CommandContext(ctx, exe, args...)
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	b := &Browser{cmd: cmd, DevToolsURL: fmt.Sprintf("http://127.0.0.1:%d", port), port: port}
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := waitDevToolsReady(waitCtx, b.DevToolsURL); err != nil {
		_ = b.Stop(2 * time.Second)
		return nil, fmt.Errorf("devtools not ready: %w", err)
	}

	opts.Log.Info("浏览器已启动", "exec", exe, "devtools", b.DevToolsURL, "headless", opts.Headless)
	return b, nil
}

// Stop 关闭浏览器进程
func (b *Browser) Stop(timeout time.Duration) error {
	if b == nil || b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()
	// Windows上直接Kill以避免悬挂
	_ = b.cmd.Process.Kill()
	select {
	case <-time.After(timeout):
		return errors.New("browser stop timeout")
	case err := <-done:
		return err
	}
}

// defaultChromePath 返回常见的 Chrome 可执行路径（跨平台）
func defaultChromePath() string {
	candidates := getChromePaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	for _, name := range []string{"chrome", "google-chrome", "chromium", "chromium-browser"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}

	return ""
}

// getChromePaths 根据操作系统返回可能的 Chrome 路径
func getChromePaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(os.Getenv("LOCALAPPDATA"), "Google", "Chrome", "Application", "chrome.exe"),
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			filepath.Join(os.Getenv("HOME"), "Applications", "Google Chrome.app", "Contents", "MacOS", "Google Chrome"),
		}
	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	default:
		return nil
	}
}

// pickPort 尝试使用指定端口，如果被占用则选择随机空闲端口
func pickPort(preferred int) (int, error) {
	// 先尝试首选端口
	if preferred > 0 {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", preferred))
		if err == nil {
			_ = l.Close()
			return preferred, nil
		}
	}

	// 首选端口不可用，选择随机空闲端口
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find free port: %w", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port, nil
}

// quietFlags 关闭与检测无关的后台行为，减少启动后的噪声导航
var quietFlags = []string{
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-background-networking",
	"--disable-background-timer-throttling",
	"--disable-backgrounding-occluded-windows",
	"--disable-breakpad",
	"--disable-default-apps",
	"--disable-extensions",
	"--disable-hang-monitor",
	"--disable-prompt-on-repost",
	"--disable-renderer-backgrounding",
	"--disable-sync",
	"--disable-translate",
	"--metrics-recording-only",
	"--safebrowsing-disable-auto-update",
}

// buildLaunchArgs 组装启动参数，未指定用户目录时使用临时目录
func buildLaunchArgs(port int, opts Options) []string {
	args := make([]string, 0, len(quietFlags)+len(opts.Args)+5)
	args = append(args, fmt.Sprintf("--remote-debugging-port=%d", port))
	args = append(args, quietFlags...)
	if runtime.GOOS == "linux" {
		args = append(args, "--disable-dev-shm-usage")
	}

	dir := opts.UserDataDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("phishguard-chrome-%d", time.Now().Unix()))
	}
	_ = os.MkdirAll(dir, 0o755)
	args = append(args, "--user-data-dir="+dir)

	if opts.Headless {
		args = append(args, "--headless=new", "--disable-gpu")
	}
	return append(args, opts.Args...)
}

// waitDevToolsReady 轮询 /json/version 直到调试端口可用
func waitDevToolsReady(ctx context.Context, base string) error {
	dt := devtool.New(base)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("devtools not ready after timeout: %w", ctx.Err())
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			_, err := dt.Version(pctx)
			cancel()
			if err == nil {
				return nil
			}
		}
	}
}
