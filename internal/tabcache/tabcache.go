package tabcache

import (
	"sync"
	"time"

	"phishguard/internal/logger"
	"phishguard/pkg/domain"
)

// Entry 标签页风险缓存条目
type Entry struct {
	Tab       domain.TabID      // 标签页ID
	UpdatedAt time.Time         // 最近写入时间
	Record    domain.RiskRecord // 最近一次检测结果
}

// Cache 标签页风险缓存，写入即覆盖，后写者胜
type Cache struct {
	entries sync.Map // domain.TabID -> *Entry
	pending sync.Map // domain.TabID -> string(url)
	log     logger.Logger
}

// New 创建标签页风险缓存
func New(l logger.Logger) *Cache {
	if l == nil {
		l = logger.NewNop()
	}
	return &Cache{log: l}
}

// Put 写入标签页的最新风险记录
func (c *Cache) Put(tab domain.TabID, rec domain.RiskRecord) {
	c.entries.Store(tab, &Entry{
		Tab:       tab,
		UpdatedAt: time.Now(),
		Record:    rec,
	})
}

// Get 读取标签页的风险记录
func (c *Cache) Get(tab domain.TabID) (domain.RiskRecord, bool) {
	val, ok := c.entries.Load(tab)
	if !ok {
		return domain.RiskRecord{}, false
	}
	return val.(*Entry).Record, true
}

// Delete 标签页关闭时移除缓存
func (c *Cache) Delete(tab domain.TabID) {
	c.entries.Delete(tab)
	c.pending.Delete(tab)
	c.log.Debug("移除标签页风险缓存", "tabId", tab)
}

// Len 返回缓存条目数
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// MarkPending 标记标签页有检测进行中，已在进行中时返回 false
func (c *Cache) MarkPending(tab domain.TabID, url string) bool {
	_, loaded := c.pending.LoadOrStore(tab, url)
	return !loaded
}

// ClearPending 清除进行中标记
func (c *Cache) ClearPending(tab domain.TabID) {
	c.pending.Delete(tab)
}

// Pending 标签页是否有检测进行中
func (c *Cache) Pending(tab domain.TabID) bool {
	_, ok := c.pending.Load(tab)
	return ok
}
