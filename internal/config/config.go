package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"phishguard/pkg/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 配置文件结构体
type Config struct {
	Version  string         `yaml:"version"`
	Detector DetectorConfig `yaml:"detector"`
	DevTools DevToolsConfig `yaml:"devtools"`
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Workers  WorkersConfig  `yaml:"workers"`
	Status   StatusConfig   `yaml:"status"`
	Log      LogConfig      `yaml:"log"`
}

// DetectorConfig 检测服务
type DetectorConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DevToolsConfig 浏览器调试端口
type DevToolsConfig struct {
	URL          string        `yaml:"url"`
	Skip         []string      `yaml:"skip"`
	SyncInterval time.Duration `yaml:"sync_interval"`
	BlockPage    string        `yaml:"block_page"`
	Launch       LaunchConfig  `yaml:"launch"`
}

// LaunchConfig 由本程序启动浏览器时使用
type LaunchConfig struct {
	Enabled     bool     `yaml:"enabled"`
	ExecPath    string   `yaml:"exec_path"`
	UserDataDir string   `yaml:"user_data_dir"`
	Headless    bool     `yaml:"headless"`
	Args        []string `yaml:"args"`
}

// HTTPConfig 本地 HTTP 接口
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig 持久化存储
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | redis | memory
	Sqlite struct {
		Db     string `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"sqlite"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

// WorkersConfig 检测任务池
type WorkersConfig struct {
	Concurrency int `yaml:"concurrency"`
	Queue       int `yaml:"queue"`
}

// StatusConfig 状态轮询
type StatusConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string   `yaml:"level"`
	Writer []string `yaml:"writer"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	cfg := &Config{
		Version: "1.0.0",
		Detector: DetectorConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 10 * time.Second,
		},
		DevTools: DevToolsConfig{
			URL: "http://localhost:9222",
			Skip: []string{
				"chrome://*",
				"chrome-extension://*",
				"devtools://*",
				"about:*",
			},
			SyncInterval: 2 * time.Second,
		},
		HTTP:    HTTPConfig{Addr: "127.0.0.1:7780"},
		Workers: WorkersConfig{Concurrency: 8, Queue: 64},
		Status:  StatusConfig{PollInterval: time.Second},
		Log: LogConfig{
			Level: "info",
			// file需要在console之前，console被关闭时不影响文件日志
			Writer: []string{"file", "console"},
		},
	}
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Sqlite.Db = "data.db"
	cfg.Storage.Sqlite.Prefix = "phishguard_"
	cfg.Storage.Redis.Addr = "localhost:6379"
	cfg.Storage.Redis.Prefix = "phishguard:"
	return cfg
}

// Load 读取配置：默认值 <- YAML 文件 <- .env <- PHISHGUARD_* 环境变量
// path 为空或文件不存在时仅使用默认值
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromBytes 从字节加载配置，不读取环境变量，供测试使用
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PHISHGUARD_DETECTOR_URL"); v != "" {
		cfg.Detector.BaseURL = v
	}
	if v := os.Getenv("PHISHGUARD_DETECTOR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Detector.Timeout = d
		}
	}
	if v := os.Getenv("PHISHGUARD_DEVTOOLS_URL"); v != "" {
		cfg.DevTools.URL = v
	}
	if v := os.Getenv("PHISHGUARD_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("PHISHGUARD_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("PHISHGUARD_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("PHISHGUARD_REDIS_PASS"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("PHISHGUARD_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Redis.DB = n
		}
	}
	if v := os.Getenv("PHISHGUARD_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers.Concurrency = n
		}
	}
	if v := os.Getenv("PHISHGUARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Detector.BaseURL) == "" {
		return fmt.Errorf("%w: detector.base_url 不能为空", domain.ErrInvalidConfig)
	}
	if c.Detector.Timeout <= 0 {
		return fmt.Errorf("%w: detector.timeout 必须大于 0", domain.ErrInvalidConfig)
	}
	switch c.Storage.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("%w: 未知的 storage.driver %q", domain.ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Workers.Concurrency <= 0 {
		return fmt.Errorf("%w: workers.concurrency 必须大于 0", domain.ErrInvalidConfig)
	}
	if c.Workers.Queue < 0 {
		return fmt.Errorf("%w: workers.queue 不能为负数", domain.ErrInvalidConfig)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("%w: 未知的 log.level %q", domain.ErrInvalidConfig, c.Log.Level)
	}
	if c.DevTools.SyncInterval <= 0 {
		c.DevTools.SyncInterval = 2 * time.Second
	}
	if c.Status.PollInterval <= 0 {
		c.Status.PollInterval = time.Second
	}
	return nil
}
