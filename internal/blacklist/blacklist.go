package blacklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"phishguard/internal/config"
	"phishguard/internal/logger"
	"phishguard/internal/storage/kv"
	"phishguard/pkg/domain"
)

// Remote 服务端黑名单接口
type Remote interface {
	Blacklist(ctx context.Context) ([]string, error)
	ReplaceBlacklist(ctx context.Context, list []string) error
}

// Listing 黑名单查询结果，Stale 表示服务端不可用时返回的本地镜像
type Listing struct {
	Domains []string `json:"domains"`
	Stale   bool     `json:"stale"`
}

// Manager 黑名单管理，服务端为准，本地保存一份镜像
type Manager struct {
	remote Remote
	kv     kv.Store
	log    logger.Logger
}

// New 创建黑名单管理器
func New(remote Remote, store kv.Store, l logger.Logger) *Manager {
	if l == nil {
		l = logger.NewNop()
	}
	return &Manager{remote: remote, kv: store, log: l.With("component", "blacklist")}
}

// Normalize 规范化域名：去空白、转小写，允许直接粘贴完整网址
func Normalize(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Hostname()
		}
	}
	s = strings.TrimSuffix(s, "/")
	if s == "" || strings.ContainsAny(s, " \t\r\n/") {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDomain, s)
	}
	return s, nil
}

// List 获取黑名单，服务端失败时退回本地镜像
func (m *Manager) List(ctx context.Context) (Listing, error) {
	list, err := m.remote.Blacklist(ctx)
	if err == nil {
		m.mirror(ctx, list)
		return Listing{Domains: list}, nil
	}

	m.log.Err(err, "获取服务端黑名单失败，使用本地镜像")
	local, lerr := m.local(ctx)
	if lerr != nil {
		return Listing{}, fmt.Errorf("load local blacklist: %w", lerr)
	}
	return Listing{Domains: local, Stale: true}, nil
}

// Add 读取最新列表后追加并回写
func (m *Manager) Add(ctx context.Context, d string) ([]string, error) {
	d, err := Normalize(d)
	if err != nil {
		return nil, err
	}
	list, err := m.remote.Blacklist(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range list {
		if strings.EqualFold(it, d) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyBlacklisted, d)
		}
	}
	list = append(list, d)
	if err := m.remote.ReplaceBlacklist(ctx, list); err != nil {
		return nil, err
	}
	m.mirror(ctx, list)
	m.log.Info("加入黑名单", "domain", d)
	return list, nil
}

// Remove 读取最新列表后移除并回写
func (m *Manager) Remove(ctx context.Context, d string) ([]string, error) {
	d, err := Normalize(d)
	if err != nil {
		return nil, err
	}
	list, err := m.remote.Blacklist(ctx)
	if err != nil {
		return nil, err
	}
	next := make([]string, 0, len(list))
	for _, it := range list {
		if !strings.EqualFold(it, d) {
			next = append(next, it)
		}
	}
	if len(next) == len(list) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotBlacklisted, d)
	}
	if err := m.remote.ReplaceBlacklist(ctx, next); err != nil {
		return nil, err
	}
	m.mirror(ctx, next)
	m.log.Info("移出黑名单", "domain", d)
	return next, nil
}

func (m *Manager) mirror(ctx context.Context, list []string) {
	b, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := m.kv.Set(ctx, config.KeyUserBlacklist, string(b)); err != nil {
		m.log.Err(err, "保存黑名单镜像失败")
	}
}

func (m *Manager) local(ctx context.Context) ([]string, error) {
	raw, err := m.kv.Get(ctx, config.KeyUserBlacklist)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	list := make([]string, 0)
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}
