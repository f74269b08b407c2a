package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"phishguard/internal/aggregator"
	"phishguard/internal/badge"
	"phishguard/internal/blacklist"
	"phishguard/internal/config"
	"phishguard/internal/events"
	"phishguard/internal/explainer"
	"phishguard/internal/history"
	"phishguard/internal/intercept"
	"phishguard/internal/logger"
	"phishguard/internal/policy"
	"phishguard/internal/pool"
	"phishguard/internal/storage/kv"
	"phishguard/internal/tabcache"
	"phishguard/pkg/domain"
)

// NoActiveTab 无活动标签页时状态查询返回的错误文本
const NoActiveTab = "No active tab"

// Detector 检测服务
type Detector interface {
	Check(ctx context.Context, target string) (*domain.DetectorReport, error)
	blacklist.Remote
}

// TabHost 浏览器侧能力：查询活动标签页、跳转到拦截页
type TabHost interface {
	ActiveTab(ctx context.Context) (domain.Tab, error)
	Redirect(ctx context.Context, tab domain.TabID, target string) error
}

// Stats 运行状态
type Stats struct {
	Pool       pool.Stats `json:"pool"`
	CachedTabs int        `json:"cachedTabs"`
}

// Option 服务选项
type Option func(*svc)

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(s *svc) { s.now = now }
}

// WithHost 设置浏览器宿主
func WithHost(h TabHost) Option {
	return func(s *svc) { s.host = h }
}

// WithBus 使用外部事件总线
func WithBus(bus *events.Bus) Option {
	return func(s *svc) { s.bus = bus }
}

type svc struct {
	cfg       *config.Config
	log       logger.Logger
	detector  Detector
	store     kv.Store
	cache     *tabcache.Cache
	history   *history.Store
	policy    *policy.Policy
	board     *badge.Board
	bus       *events.Bus
	pool      *pool.Pool
	blacklist *blacklist.Manager
	blockPage string
	now       func() time.Time

	hostMu sync.RWMutex
	host   TabHost
}

// New 创建检测服务
func New(cfg *config.Config, det Detector, store kv.Store, l logger.Logger, opts ...Option) *svc {
	if l == nil {
		l = logger.NewNop()
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	s := &svc{
		cfg:       cfg,
		log:       l,
		detector:  det,
		store:     store,
		blockPage: BlockPageURL(cfg),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = events.New(l)
	}

	s.cache = tabcache.New(l)
	s.history = history.New(store, l)
	s.policy = policy.New(s.blockPage)
	s.board = badge.NewBoard(s.bus)
	s.pool = pool.New(cfg.Workers.Concurrency, cfg.Workers.Queue, l)
	s.blacklist = blacklist.New(det, store, l)
	return s
}

// BlockPageURL 拦截页地址，未配置时使用本地 HTTP 服务
func BlockPageURL(cfg *config.Config) string {
	if cfg.DevTools.BlockPage != "" {
		return cfg.DevTools.BlockPage
	}
	return "http://" + cfg.HTTP.Addr + config.GetDefaultSettings().BlockPagePath
}

// Start 启动检测任务池
func (s *svc) Start(ctx context.Context) {
	s.pool.Start(ctx)
	s.log.Info("检测服务已启动", "concurrency", s.cfg.Workers.Concurrency, "detector", s.cfg.Detector.BaseURL)
}

// Close 停止任务池并关闭存储
func (s *svc) Close() error {
	s.pool.Stop()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// SetHost 设置浏览器宿主，宿主晚于服务创建
func (s *svc) SetHost(h TabHost) {
	s.hostMu.Lock()
	s.host = h
	s.hostMu.Unlock()
}

func (s *svc) getHost() TabHost {
	s.hostMu.RLock()
	defer s.hostMu.RUnlock()
	return s.host
}

// Events 订阅检测事件
func (s *svc) Events(buffer int) (<-chan events.Event, func()) {
	return s.bus.Subscribe(buffer)
}

// BlockPage 拦截页地址
func (s *svc) BlockPage() string { return s.blockPage }

// IsCheckable 仅检测 http(s) 页面，拦截页自身除外
func (s *svc) IsCheckable(u string) bool {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return false
	}
	return !strings.HasPrefix(u, s.blockPage)
}

// CheckURL 检测并在需要时拦截，检测失败时放行
func (s *svc) CheckURL(ctx context.Context, tab domain.TabID, target string) domain.Verdict {
	log := s.log.With("tabId", tab, "url", target)
	s.board.Set(tab, badge.StateLoading)

	report, err := s.detector.Check(ctx, target)
	now := s.now()
	rec := aggregator.FromResult(report, err, now)
	s.cache.Put(tab, rec)
	s.bus.Publish(events.Event{Type: events.RiskEvaluated, Tab: tab, URL: target, Data: rec})

	verdict := domain.Verdict{Tab: tab, URL: target, Record: rec, Decision: domain.Decision{Action: domain.ActionAllow}}

	if rec.Failed() {
		log.Warn("检测失败，放行页面", "error", rec.Failure)
		s.board.Set(tab, badge.StateError)
		s.bus.Publish(events.Event{Type: events.CheckFailed, Tab: tab, URL: target, Data: rec.Failure})
		return verdict
	}

	id := intercept.NewID(now)
	decision, err := s.policy.Decide(target, rec, id, now)
	if err != nil {
		log.Err(err, "构造拦截页地址失败")
	}
	verdict.Decision = decision

	if !decision.Blocked() {
		log.Debug("未发现明显风险，放行", "score", rec.Score)
		s.board.Set(tab, badge.StateOK)
		return verdict
	}

	verdict.InterceptID = id
	item := history.NewItem(target, rec, id, now)
	if err := s.history.Append(ctx, item); err != nil {
		log.Err(err, "保存拦截历史失败")
	} else {
		s.bus.Publish(events.Event{Type: events.HistoryAppended, Tab: tab, URL: target, Data: item})
	}

	s.board.Set(tab, badge.StateAlert)
	s.bus.Publish(events.Event{Type: events.TabBlocked, Tab: tab, URL: target, Data: verdict})
	log.Info("拦截风险页面", "score", rec.Score, "riskLevel", rec.RiskLevel, "interceptId", id)

	if host := s.getHost(); host != nil && decision.Redirect != "" {
		if err := host.Redirect(ctx, tab, decision.Redirect); err != nil {
			log.Err(err, "跳转拦截页失败")
		}
	}
	return verdict
}

// SubmitCheck 异步检测，队列已满时放弃本次检测并标记错误
func (s *svc) SubmitCheck(tab domain.TabID, target string) bool {
	if !s.IsCheckable(target) {
		return false
	}
	ok := s.pool.Submit(func(ctx context.Context) {
		s.CheckURL(ctx, tab, target)
	})
	if !ok {
		s.log.Warn("检测队列已满，放行页面", "tabId", tab, "url", target)
		s.board.Set(tab, badge.StateError)
		s.bus.Publish(events.Event{Type: events.CheckFailed, Tab: tab, URL: target, Data: "queue full"})
	}
	return ok
}

// SecurityStatus 查询活动标签页的风险状态；未命中缓存时触发检测并返回加载中
func (s *svc) SecurityStatus(ctx context.Context) domain.StatusResponse {
	host := s.getHost()
	if host == nil {
		return domain.StatusResponse{Error: NoActiveTab}
	}
	tab, err := host.ActiveTab(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoActiveTab) {
			s.log.Err(err, "获取活动标签页失败")
		}
		return domain.StatusResponse{Error: NoActiveTab}
	}

	if rec, ok := s.cache.Get(tab.ID); ok {
		return domain.StatusResponse{Record: &rec}
	}

	if s.IsCheckable(tab.URL) && s.cache.MarkPending(tab.ID, tab.URL) {
		ok := s.pool.Submit(func(ctx context.Context) {
			defer s.cache.ClearPending(tab.ID)
			s.CheckURL(ctx, tab.ID, tab.URL)
		})
		if !ok {
			s.cache.ClearPending(tab.ID)
		}
	} else if !s.IsCheckable(tab.URL) {
		s.log.Debug("忽略非 http 页面", "url", tab.URL)
	}
	return domain.StatusResponse{Loading: true}
}

// TabClosed 标签页关闭时清理状态
func (s *svc) TabClosed(tab domain.TabID) {
	s.cache.Delete(tab)
	s.board.Delete(tab)
}

// Badge 查询标签页指示器
func (s *svc) Badge(tab domain.TabID) (badge.Badge, bool) {
	return s.board.Get(tab)
}

// Record 查询标签页缓存的风险记录
func (s *svc) Record(tab domain.TabID) (domain.RiskRecord, bool) {
	return s.cache.Get(tab)
}

// History 拦截历史
func (s *svc) History(ctx context.Context) []domain.HistoryItem {
	return s.history.Load(ctx)
}

// FindHistory 按拦截编号查询
func (s *svc) FindHistory(ctx context.Context, interceptID string) (domain.HistoryItem, error) {
	item, ok := s.history.Find(ctx, interceptID)
	if !ok {
		return domain.HistoryItem{}, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, interceptID)
	}
	return item, nil
}

// ClearHistory 清空历史
func (s *svc) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

// Blacklist 黑名单
func (s *svc) Blacklist(ctx context.Context) (blacklist.Listing, error) {
	return s.blacklist.List(ctx)
}

// AddBlacklist 加入黑名单
func (s *svc) AddBlacklist(ctx context.Context, d string) ([]string, error) {
	return s.blacklist.Add(ctx, d)
}

// RemoveBlacklist 移出黑名单
func (s *svc) RemoveBlacklist(ctx context.Context, d string) ([]string, error) {
	return s.blacklist.Remove(ctx, d)
}

// Theme 当前主题，未设置或值非法时为 dark
func (s *svc) Theme(ctx context.Context) domain.Theme {
	def := config.GetDefaultSettings().Theme
	raw, err := s.store.Get(ctx, config.KeyTheme)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Err(err, "读取主题失败")
		}
		return def
	}
	th, ok := domain.ParseTheme(raw)
	if !ok {
		return def
	}
	return th
}

// SetTheme 设置主题
func (s *svc) SetTheme(ctx context.Context, theme string) (domain.Theme, error) {
	th, ok := domain.ParseTheme(theme)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidTheme, theme)
	}
	if err := s.store.Set(ctx, config.KeyTheme, string(th)); err != nil {
		return "", err
	}
	return th, nil
}

// Explain 生成拦截页说明
func (s *svc) Explain(in domain.Intercept) explainer.Explanation {
	return explainer.ExplainIntercept(in)
}

// Stats 运行状态
func (s *svc) Stats() Stats {
	return Stats{Pool: s.pool.Stats(), CachedTabs: s.cache.Len()}
}

// PollInterval 返回加载中时的建议重试间隔
func (s *svc) PollInterval() time.Duration {
	if d := s.cfg.Status.PollInterval; d > 0 {
		return d
	}
	return time.Second
}
