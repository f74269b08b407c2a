package events

import (
	"sync"
	"time"

	"phishguard/internal/logger"
	"phishguard/pkg/domain"
)

// Type 事件类型
type Type string

const (
	RiskEvaluated   Type = "risk.evaluated"
	TabBlocked      Type = "tab.blocked"
	BadgeChanged    Type = "badge.changed"
	HistoryAppended Type = "history.appended"
	CheckFailed     Type = "check.failed"
)

// Event 检测流程中产生的事件
type Event struct {
	Type      Type         `json:"type"`
	Tab       domain.TabID `json:"tabId"`
	URL       string       `json:"url,omitempty"`
	Timestamp int64        `json:"timestamp"`
	Data      any          `json:"data,omitempty"`
}

// Bus 事件总线，订阅者通道满时丢弃事件，不阻塞检测流程
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	log    logger.Logger
}

// New 创建事件总线
func New(l logger.Logger) *Bus {
	if l == nil {
		l = logger.NewNop()
	}
	return &Bus{subs: make(map[int]chan Event), log: l}
}

// Subscribe 订阅事件，返回取消函数
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish 发布事件
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.log.Warn("事件通道已满，丢弃事件", "type", evt.Type, "tabId", evt.Tab)
		}
	}
}
