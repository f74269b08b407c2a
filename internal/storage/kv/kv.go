package kv

import (
	"context"
	"fmt"
	"sync"

	"phishguard/internal/config"
	"phishguard/internal/logger"
	"phishguard/internal/storage/db"
	"phishguard/internal/storage/model"
	"phishguard/internal/storage/repo"
	"phishguard/pkg/domain"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound 键不存在
var ErrNotFound = domain.ErrRecordNotFound

// Store 持久化键值存储，值为 JSON 文本
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory 进程内存储
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory 创建内存存储
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Settings 基于 sqlite 设置表的存储
type Settings struct {
	repo  *repo.SettingsRepo
	close func() error
}

// NewSettings 使用已有的设置仓库创建存储
func NewSettings(r *repo.SettingsRepo) *Settings {
	return &Settings{repo: r}
}

func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, key)
}

func (s *Settings) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, key, value)
}

func (s *Settings) Delete(ctx context.Context, key string) error {
	return s.repo.DeleteByKey(ctx, key)
}

func (s *Settings) Close() error {
	if s.close != nil {
		return s.close()
	}
	return nil
}

// Redis 基于 Redis 的共享存储，多个浏览器实例可共用同一份历史与黑名单
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis 使用已有客户端创建存储
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.rdb.Close() }

// Open 按配置打开存储
func Open(ctx context.Context, cfg config.StorageConfig, l logger.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		l.Info("Redis 连接成功", "addr", cfg.Redis.Addr)
		return NewRedis(rdb, cfg.Redis.Prefix), nil
	case "sqlite", "":
		gdb, err := db.New(db.Options{
			Name:   cfg.Sqlite.Db,
			Prefix: cfg.Sqlite.Prefix,
			Logger: db.NewLogger(l),
		})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.Migrate(gdb, model.All()...); err != nil {
			_ = db.Close(gdb)
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		s := NewSettings(repo.NewSettingsRepo(gdb))
		s.close = func() error { return db.Close(gdb) }
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", domain.ErrInvalidConfig, cfg.Driver)
	}
}
