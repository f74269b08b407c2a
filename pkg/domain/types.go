package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// TabID 浏览器标签页标识（不透明整数）
type TabID int

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels 全部风险等级，按严重程度递增
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// ParseRiskLevel 解析检测服务返回的风险等级
// 空值视为 low，无法识别的值归为 medium
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case "", RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	case RiskCritical:
		return RiskCritical
	default:
		return RiskMedium
	}
}

// Reason 拦截原因
type Reason string

const (
	ReasonPhishing    Reason = "phishing"
	ReasonMalware     Reason = "malware"
	ReasonFraud       Reason = "fraud"
	ReasonSuspicious  Reason = "suspicious"
	ReasonBlacklisted Reason = "blacklisted"
)

// RiskRecord 单次导航的风险快照
type RiskRecord struct {
	Score         int       `json:"score"`
	RiskLevel     RiskLevel `json:"riskLevel"`
	BlacklistHits int       `json:"blacklistHits"`
	DOMRisks      int       `json:"domRisks"`
	BadRequests   int       `json:"badRequests"`
	HasWarning    bool      `json:"hasWarning"`
	Warnings      []string  `json:"warnings"`
	Timestamp     int64     `json:"timestamp"` // Unix 毫秒
	Failure       string    `json:"failure,omitempty"`
}

// Failed 是否为检测失败后生成的兜底记录
func (r RiskRecord) Failed() bool { return r.Failure != "" }

// DetectorReport 检测服务的原始返回，已逐字段解析
type DetectorReport struct {
	Probability *float64
	RiskLevel   string
	Warnings    []string
	Error       string
}

// HistoryItem 拦截历史记录
type HistoryItem struct {
	Timestamp   string    `json:"timestamp"` // ISO-8601
	URL         string    `json:"url"`
	ThreatName  string    `json:"threatName"`
	ThreatLevel RiskLevel `json:"threatLevel"`
	InterceptID string    `json:"interceptId"`
	Risks       []string  `json:"risks"`
	Advice      []string  `json:"advice"`
}

// Intercept 拦截页所需的完整上下文
type Intercept struct {
	URL         string    `json:"url"`
	Hostname    string    `json:"hostname"`
	Reason      Reason    `json:"reason"`
	ThreatLevel RiskLevel `json:"threatLevel"`
	InterceptID string    `json:"interceptId"`
	Timestamp   time.Time `json:"timestamp"`
	Warnings    []string  `json:"warnings"`
}

// Action 决策动作
type Action string

const (
	ActionAllow Action = "allow"
	ActionBlock Action = "block"
)

// Decision 决策结果
type Decision struct {
	Action   Action `json:"action"`
	Reason   Reason `json:"reason,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// Blocked 是否拦截
func (d Decision) Blocked() bool { return d.Action == ActionBlock }

// Verdict 一次完整检测流程的结果
type Verdict struct {
	Tab         TabID      `json:"tabId"`
	URL         string     `json:"url"`
	Record      RiskRecord `json:"record"`
	Decision    Decision   `json:"decision"`
	InterceptID string     `json:"interceptId,omitempty"`
}

// Tab 浏览器标签页
type Tab struct {
	ID  TabID  `json:"id"`
	URL string `json:"url"`
}

// StatusResponse 弹窗状态查询的响应：风险记录、加载中哨兵或错误三选一
type StatusResponse struct {
	Record  *RiskRecord
	Loading bool
	Error   string
}

// loadingSentinel 加载中哨兵的线上格式，计数字段保持为零以兼容旧弹窗
type loadingSentinel struct {
	Score         int  `json:"score"`
	BlacklistHits int  `json:"blacklistHits"`
	DOMRisks      int  `json:"domRisks"`
	BadRequests   int  `json:"badRequests"`
	Loading       bool `json:"loading"`
}

// MarshalJSON 按状态输出风险记录、{loading:true} 或 {error}
func (s StatusResponse) MarshalJSON() ([]byte, error) {
	switch {
	case s.Error != "":
		return json.Marshal(struct {
			Error string `json:"error"`
		}{s.Error})
	case s.Loading || s.Record == nil:
		return json.Marshal(loadingSentinel{Loading: true})
	default:
		return json.Marshal(s.Record)
	}
}

// Theme 界面主题
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme 解析主题，非法值返回 false
func ParseTheme(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeDark:
		return ThemeDark, true
	case ThemeLight:
		return ThemeLight, true
	default:
		return "", false
	}
}
