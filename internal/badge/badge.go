package badge

import (
	"sync"

	"phishguard/internal/events"
	"phishguard/pkg/domain"
)

// State 标签页指示状态
type State string

const (
	StateOK      State = "ok"
	StateAlert   State = "alert"
	StateLoading State = "loading"
	StateError   State = "error"
)

// Badge 标签页指示器
type Badge struct {
	State State  `json:"state"`
	Text  string `json:"text"`
	Color string `json:"color"`
}

var styles = map[State]Badge{
	StateOK:      {State: StateOK, Text: "OK", Color: "#2ecc71"},
	StateAlert:   {State: StateAlert, Text: "!", Color: "#e74c3c"},
	StateLoading: {State: StateLoading, Text: "...", Color: "#95a5a6"},
	StateError:   {State: StateError, Text: "Err", Color: "#e74c3c"},
}

// For 返回状态对应的展示样式
func For(s State) (Badge, bool) {
	b, ok := styles[s]
	return b, ok
}

// Board 各标签页的指示器状态
type Board struct {
	badges sync.Map // domain.TabID -> Badge
	bus    *events.Bus
}

// NewBoard 创建指示器面板
func NewBoard(bus *events.Bus) *Board {
	return &Board{bus: bus}
}

// Set 设置标签页状态，未知状态不会覆盖已有状态
func (b *Board) Set(tab domain.TabID, s State) (Badge, bool) {
	bg, ok := For(s)
	if !ok {
		return Badge{}, false
	}
	prev, loaded := b.badges.Swap(tab, bg)
	if !loaded || prev.(Badge) != bg {
		b.bus.Publish(events.Event{Type: events.BadgeChanged, Tab: tab, Data: bg})
	}
	return bg, true
}

// Get 获取标签页状态
func (b *Board) Get(tab domain.TabID) (Badge, bool) {
	v, ok := b.badges.Load(tab)
	if !ok {
		return Badge{}, false
	}
	return v.(Badge), true
}

// Delete 标签页关闭时移除
func (b *Board) Delete(tab domain.TabID) {
	b.badges.Delete(tab)
}
