package policy

import (
	"time"

	"phishguard/internal/intercept"
	"phishguard/pkg/domain"
)

// Policy 拦截决策
type Policy struct {
	blockPage string
}

// New 创建决策器，blockPage 为拦截页地址
func New(blockPage string) *Policy {
	return &Policy{blockPage: blockPage}
}

// ShouldBlock 无前缀风险警告且等级为 low 时放行，其余一律拦截
func ShouldBlock(rec domain.RiskRecord) bool {
	return rec.HasWarning || rec.RiskLevel != domain.RiskLow
}

// Decide 根据风险记录给出放行或拦截决策
// 拦截原因固定为 phishing，重定向地址携带完整拦截上下文
func (p *Policy) Decide(pageURL string, rec domain.RiskRecord, interceptID string, now time.Time) (domain.Decision, error) {
	if !ShouldBlock(rec) {
		return domain.Decision{Action: domain.ActionAllow}, nil
	}

	d := domain.Decision{Action: domain.ActionBlock, Reason: domain.ReasonPhishing}
	target, err := intercept.Encode(p.blockPage, domain.Intercept{
		URL:         pageURL,
		Reason:      d.Reason,
		ThreatLevel: rec.RiskLevel,
		InterceptID: interceptID,
		Timestamp:   now,
		Warnings:    rec.Warnings,
	})
	if err != nil {
		return d, err
	}
	d.Redirect = target
	return d, nil
}
