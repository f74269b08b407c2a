package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"phishguard/internal/logger"
	"phishguard/pkg/domain"

	"github.com/gobwas/glob"
	"github.com/mafredri/cdp"
	"github.com/mafredri/cdp/devtool"
	"github.com/mafredri/cdp/protocol/page"
	"github.com/mafredri/cdp/rpcc"
)

// Checker 接收导航事件的一方
type Checker interface {
	SubmitCheck(tab domain.TabID, url string) bool
	TabClosed(tab domain.TabID)
}

// Options 管理器选项
type Options struct {
	DevToolsURL  string
	Skip         []string // 不检测的 URL glob
	SyncInterval time.Duration
	BlockPage    string
}

// Session 已附加的浏览器标签页
type Session struct {
	Tab      domain.TabID
	TargetID string
	Conn     *rpcc.Conn
	Client   *cdp.Client
	Cancel   context.CancelFunc

	mu  sync.Mutex
	url string
}

// URL 最近一次主框架导航地址
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Session) setURL(u string) {
	s.mu.Lock()
	s.url = u
	s.mu.Unlock()
}

type listFunc func(ctx context.Context) ([]*devtool.Target, error)
type attachFunc func(ctx context.Context, t *devtool.Target, s *Session) error

// Manager 跟踪浏览器中的 page 目标，主框架导航时提交检测
type Manager struct {
	opts            Options
	writeBufferSize int
	log             logger.Logger
	checker         Checker
	skip            []glob.Glob

	mu      sync.RWMutex
	ids     map[string]domain.TabID // targetID -> tabID
	targets map[string]*Session
	nextID  domain.TabID

	list   listFunc
	attach attachFunc
}

// New 创建标签页管理器，skip 中的 glob 非法时返回错误
func New(opts Options, checker Checker, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = 2 * time.Second
	}
	m := &Manager{
		opts:            opts,
		writeBufferSize: 16 * 1024 * 1024,
		log:             log.With("component", "tabs"),
		checker:         checker,
		ids:             make(map[string]domain.TabID),
		targets:         make(map[string]*Session),
	}
	for _, p := range opts.Skip {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile skip pattern %q: %w", p, err)
		}
		m.skip = append(m.skip, g)
	}
	m.list = m.listTargets
	m.attach = m.dial
	return m, nil
}

// Skipped URL 是否无需检测
func (m *Manager) Skipped(u string) bool {
	if u == "" {
		return true
	}
	if m.opts.BlockPage != "" && strings.HasPrefix(u, m.opts.BlockPage) {
		return true
	}
	for _, g := range m.skip {
		if g.Match(u) {
			return true
		}
	}
	return false
}

// Run 周期性同步 page 目标直到 ctx 取消
func (m *Manager) Run(ctx context.Context) error {
	if m.opts.DevToolsURL == "" {
		return fmt.Errorf("devtools url empty")
	}
	m.log.Info("开始跟踪浏览器标签页", "devtools", m.opts.DevToolsURL)
	ticker := time.NewTicker(m.opts.SyncInterval)
	defer ticker.Stop()
	defer m.DetachAll()

	for {
		if err := m.Sync(ctx); err != nil && ctx.Err() == nil {
			m.log.Warn("同步浏览器目标失败", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sync 附加新出现的 page 目标，释放已关闭的目标
func (m *Manager) Sync(ctx context.Context) error {
	targets, err := m.list(ctx)
	if err != nil {
		return err
	}

	alive := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		alive[t.ID] = struct{}{}
		m.mu.RLock()
		_, attached := m.targets[t.ID]
		m.mu.RUnlock()
		if attached {
			continue
		}
		m.attachTarget(ctx, t)
	}

	m.mu.Lock()
	var closed []*Session
	for id, s := range m.targets {
		if _, ok := alive[id]; ok {
			continue
		}
		closed = append(closed, s)
		delete(m.targets, id)
		delete(m.ids, id)
	}
	m.mu.Unlock()

	for _, s := range closed {
		m.closeSession(s)
		m.log.Debug("标签页已关闭", "tabId", s.Tab)
		if m.checker != nil {
			m.checker.TabClosed(s.Tab)
		}
	}
	return nil
}

func (m *Manager) attachTarget(ctx context.Context, t *devtool.Target) {
	s := &Session{Tab: m.tabID(t.ID), TargetID: t.ID}
	s.setURL(t.URL)

	sctx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	if err := m.attach(sctx, t, s); err != nil {
		cancel()
		m.log.Err(err, "附加标签页失败", "target", t.ID)
		return
	}

	m.mu.Lock()
	m.targets[t.ID] = s
	m.mu.Unlock()
	m.log.Info("附加标签页成功", "tabId", s.Tab, "url", t.URL)

	m.Navigated(s.Tab, t.URL)
}

// Navigated 主框架导航到新地址
func (m *Manager) Navigated(tab domain.TabID, u string) {
	if m.Skipped(u) || m.checker == nil {
		return
	}
	m.checker.SubmitCheck(tab, u)
}

// ActiveTab 返回浏览器列出的第一个 page 目标
func (m *Manager) ActiveTab(ctx context.Context) (domain.Tab, error) {
	targets, err := m.list(ctx)
	if err != nil {
		return domain.Tab{}, err
	}
	if len(targets) == 0 {
		return domain.Tab{}, domain.ErrNoActiveTab
	}
	t := targets[0]
	return domain.Tab{ID: m.tabID(t.ID), URL: t.URL}, nil
}

// Redirect 将标签页跳转到指定地址
func (m *Manager) Redirect(ctx context.Context, tab domain.TabID, target string) error {
	s, ok := m.Session(tab)
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrTabNotFound, tab)
	}
	if s.Client == nil {
		return fmt.Errorf("tab %d not connected", tab)
	}
	if _, err := s.Client.Page.Navigate(ctx, page.NewNavigateArgs(target)); err != nil {
		return fmt.Errorf("navigate tab %d: %w", tab, err)
	}
	return nil
}

// Session 按标签页编号查找会话
func (m *Manager) Session(tab domain.TabID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.targets {
		if s.Tab == tab {
			return s, true
		}
	}
	return nil, false
}

// Tabs 当前已附加的标签页
func (m *Manager) Tabs() []domain.Tab {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Tab, 0, len(m.targets))
	for _, s := range m.targets {
		out = append(out, domain.Tab{ID: s.Tab, URL: s.URL()})
	}
	return out
}

// DetachAll 断开所有标签页连接
func (m *Manager) DetachAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.targets))
	for id, s := range m.targets {
		sessions = append(sessions, s)
		delete(m.targets, id)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		m.closeSession(s)
	}
}

// tabID 目标首次出现时分配递增编号
func (m *Manager) tabID(targetID string) domain.TabID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.ids[targetID]; ok {
		return id
	}
	m.nextID++
	m.ids[targetID] = m.nextID
	return m.nextID
}

func (m *Manager) listTargets(ctx context.Context) ([]*devtool.Target, error) {
	targets, err := devtool.New(m.opts.DevToolsURL).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*devtool.Target, 0, len(targets))
	for _, t := range targets {
		if t == nil || t.Type != "page" {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// dial 建立 CDP 连接并订阅主框架导航
func (m *Manager) dial(ctx context.Context, t *devtool.Target, s *Session) error {
	conn, err := rpcc.DialContext(ctx, t.WebSocketDebuggerURL,
		rpcc.WithWriteBufferSize(m.writeBufferSize),
		rpcc.WithCompression())
	if err != nil {
		return err
	}
	client := cdp.NewClient(conn)
	if err := rpcc.Invoke(ctx, "Page.enable", nil, nil, conn); err != nil {
		_ = conn.Close()
		return err
	}
	nav, err := client.Page.FrameNavigated(ctx)
	if err != nil {
		_ = conn.Close()
		return err
	}
	s.Conn = conn
	s.Client = client
	go m.consume(ctx, s, nav)
	return nil
}

func (m *Manager) consume(ctx context.Context, s *Session, nav page.FrameNavigatedClient) {
	defer nav.Close()
	for {
		ev, err := nav.Recv()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				m.log.Warn("标签页事件流中断", "tabId", s.Tab, "error", err)
			}
			return
		}
		if ev.Frame.ParentID != nil {
			continue
		}
		s.setURL(ev.Frame.URL)
		m.Navigated(s.Tab, ev.Frame.URL)
	}
}

func (m *Manager) closeSession(s *Session) {
	if s == nil {
		return
	}
	if s.Cancel != nil {
		s.Cancel()
	}
	if s.Conn != nil {
		_ = s.Conn.Close()
	}
}
