package aggregator

import (
	"math"
	"time"

	"phishguard/internal/classifier"
	"phishguard/pkg/domain"
)

// FallbackScore 检测失败时的中性分数
const FallbackScore = 50

// FailurePrefix 兜底记录中合成警告的前缀
const FailurePrefix = "内部错误: "

// Aggregate 将检测服务返回转换为风险记录
// 报告中带 error 字段时按失败处理
func Aggregate(r domain.DetectorReport, now time.Time) domain.RiskRecord {
	if r.Error != "" {
		return Fallback(r.Error, now)
	}

	p := 0.0
	if r.Probability != nil {
		p = *r.Probability
	}
	if math.IsNaN(p) {
		p = 0
	}
	p = math.Max(0, math.Min(1, p))

	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	counts := classifier.Classify(warnings)

	return domain.RiskRecord{
		Score:         int(math.Round((1 - p) * 100)),
		RiskLevel:     domain.ParseRiskLevel(r.RiskLevel),
		BlacklistHits: counts.BlacklistHits,
		DOMRisks:      counts.DOMRisks,
		BadRequests:   counts.BadRequests,
		HasWarning:    counts.HasWarning,
		Warnings:      warnings,
		Timestamp:     now.UnixMilli(),
	}
}

// Fallback 构造检测失败时的兜底记录：中性分数、low 等级、计数为零
func Fallback(msg string, now time.Time) domain.RiskRecord {
	return domain.RiskRecord{
		Score:     FallbackScore,
		RiskLevel: domain.RiskLow,
		Warnings:  []string{FailurePrefix + msg},
		Timestamp: now.UnixMilli(),
		Failure:   msg,
	}
}

// FromResult 合并检测调用的返回值与错误，从不返回错误
func FromResult(r *domain.DetectorReport, err error, now time.Time) domain.RiskRecord {
	if err != nil {
		return Fallback(err.Error(), now)
	}
	if r == nil {
		return Fallback("empty detector response", now)
	}
	return Aggregate(*r, now)
}
