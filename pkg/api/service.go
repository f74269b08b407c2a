package api

import (
	"context"
	"time"

	"phishguard/internal/badge"
	"phishguard/internal/blacklist"
	"phishguard/internal/config"
	"phishguard/internal/events"
	"phishguard/internal/explainer"
	"phishguard/internal/logger"
	"phishguard/internal/service"
	"phishguard/internal/storage/kv"
	"phishguard/pkg/domain"
)

// Service 服务接口
type Service interface {
	// Start 启动检测任务池
	Start(ctx context.Context)

	// Close 停止服务并释放存储
	Close() error

	// SetHost 绑定浏览器宿主
	SetHost(h service.TabHost)

	// BlockPage 拦截页地址
	BlockPage() string

	// IsCheckable 页面是否需要检测
	IsCheckable(url string) bool

	// CheckURL 同步检测并在需要时拦截
	CheckURL(ctx context.Context, tab domain.TabID, url string) domain.Verdict

	// SubmitCheck 异步检测
	SubmitCheck(tab domain.TabID, url string) bool

	// SecurityStatus 活动标签页的风险状态
	SecurityStatus(ctx context.Context) domain.StatusResponse

	// TabClosed 标签页关闭
	TabClosed(tab domain.TabID)

	// Badge 标签页指示器
	Badge(tab domain.TabID) (badge.Badge, bool)

	// Record 标签页缓存的风险记录
	Record(tab domain.TabID) (domain.RiskRecord, bool)

	// History 拦截历史
	History(ctx context.Context) []domain.HistoryItem

	// FindHistory 按拦截编号查询历史
	FindHistory(ctx context.Context, interceptID string) (domain.HistoryItem, error)

	// ClearHistory 清空历史
	ClearHistory(ctx context.Context) error

	// Blacklist 获取黑名单
	Blacklist(ctx context.Context) (blacklist.Listing, error)

	// AddBlacklist 加入黑名单
	AddBlacklist(ctx context.Context, host string) ([]string, error)

	// RemoveBlacklist 移出黑名单
	RemoveBlacklist(ctx context.Context, host string) ([]string, error)

	// Theme 当前主题
	Theme(ctx context.Context) domain.Theme

	// SetTheme 设置主题
	SetTheme(ctx context.Context, theme string) (domain.Theme, error)

	// Explain 拦截页说明
	Explain(in domain.Intercept) explainer.Explanation

	// Events 订阅事件
	Events(buffer int) (<-chan events.Event, func())

	// Stats 运行状态
	Stats() service.Stats

	// PollInterval 弹窗轮询状态的建议间隔
	PollInterval() time.Duration
}

// NewService 创建并返回服务接口实现
func NewService(cfg *config.Config, det service.Detector, store kv.Store, l logger.Logger, opts ...service.Option) Service {
	return service.New(cfg, det, store, l, opts...)
}
