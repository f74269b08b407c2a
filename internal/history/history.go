package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/logger"
	"phishguard/internal/storage/kv"
	"phishguard/pkg/domain"
)

// DefaultLimit 最多保留的历史条数
const DefaultLimit = 50

// PlaceholderThreat 无警告时的威胁名称
const PlaceholderThreat = "潜在风险"

// DefaultAdvice 历史记录附带的固定建议
var DefaultAdvice = []string{"建议立即关闭页面", "不要输入任何敏感信息"}

// Examples 存储为空或不可用时展示的示例数据
var Examples = []domain.HistoryItem{
	{
		Timestamp:   "2023-10-27T10:23:00.000Z",
		URL:         "http://dangerous-bank-login.com",
		ThreatName:  "⚠️ 网站在黑名单中",
		ThreatLevel: domain.RiskHigh,
		InterceptID: "DEMO-0001",
		Risks:       []string{"⚠️ 网站在黑名单中"},
		Advice:      DefaultAdvice,
	},
	{
		Timestamp:   "2023-10-26T15:45:00.000Z",
		URL:         "http://free-iphone-gift.net",
		ThreatName:  "⚠️ 使用短链接服务",
		ThreatLevel: domain.RiskMedium,
		InterceptID: "DEMO-0002",
		Risks:       []string{"⚠️ 使用短链接服务"},
		Advice:      DefaultAdvice,
	},
	{
		Timestamp:   "2023-10-25T09:12:00.000Z",
		URL:         "http://suspicious-redirect.org",
		ThreatName:  "⚠️ 过多重定向",
		ThreatLevel: domain.RiskLow,
		InterceptID: "DEMO-0003",
		Risks:       []string{"⚠️ 过多重定向"},
		Advice:      DefaultAdvice,
	},
}

var errCorrupt = errors.New("decode history")

// examples 返回示例数据的深拷贝
func examples() []domain.HistoryItem {
	out := make([]domain.HistoryItem, len(Examples))
	for i, it := range Examples {
		it.Risks = append([]string{}, it.Risks...)
		it.Advice = append([]string{}, it.Advice...)
		out[i] = it
	}
	return out
}

// NewItem 由一次拦截构造历史记录
func NewItem(url string, rec domain.RiskRecord, interceptID string, now time.Time) domain.HistoryItem {
	name := PlaceholderThreat
	if len(rec.Warnings) > 0 {
		name = rec.Warnings[0]
	}
	risks := append([]string{}, rec.Warnings...)
	return domain.HistoryItem{
		Timestamp:   now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		URL:         url,
		ThreatName:  name,
		ThreatLevel: rec.RiskLevel,
		InterceptID: interceptID,
		Risks:       risks,
		Advice:      append([]string{}, DefaultAdvice...),
	}
}

// Store 拦截历史，最新在前，超过上限时淘汰最早插入的记录
type Store struct {
	mu    sync.Mutex
	kv    kv.Store
	limit int
	log   logger.Logger
}

// New 创建历史存储
func New(store kv.Store, l logger.Logger) *Store {
	if l == nil {
		l = logger.NewNop()
	}
	return &Store{kv: store, limit: DefaultLimit, log: l}
}

// Append 插入到最前并截断
func (s *Store) Append(ctx context.Context, item domain.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read(ctx)
	switch {
	case err == nil, errors.Is(err, kv.ErrNotFound):
	case errors.Is(err, errCorrupt):
		s.log.Warn("历史记录已损坏，重新开始记录", "error", err)
		items = nil
	default:
		return err
	}

	items = append([]domain.HistoryItem{item}, items...)
	if len(items) > s.limit {
		items = items[:s.limit]
	}
	return s.write(ctx, items)
}

// Clear 清空历史，清空后 Load 返回空列表而非示例数据
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, []domain.HistoryItem{})
}

// Load 读取全部历史；键不存在或存储不可用时返回示例数据
func (s *Store) Load(ctx context.Context) []domain.HistoryItem {
	s.mu.Lock()
	items, err := s.read(ctx)
	s.mu.Unlock()

	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Err(err, "读取历史记录失败，使用示例数据")
		}
		return examples()
	}
	return items
}

// Find 按拦截编号查找，同时检索示例数据
func (s *Store) Find(ctx context.Context, interceptID string) (domain.HistoryItem, bool) {
	for _, it := range s.Load(ctx) {
		if it.InterceptID == interceptID {
			return it, true
		}
	}
	return domain.HistoryItem{}, false
}

func (s *Store) read(ctx context.Context) ([]domain.HistoryItem, error) {
	raw, err := s.kv.Get(ctx, config.KeySecurityHistory)
	if err != nil {
		return nil, err
	}
	items := make([]domain.HistoryItem, 0)
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	return items, nil
}

func (s *Store) write(ctx context.Context, items []domain.HistoryItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return s.kv.Set(ctx, config.KeySecurityHistory, string(b))
}
