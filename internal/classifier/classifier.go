package classifier

import "strings"

// 警告文本标记
const (
	MarkerBenign    = "✅"
	MarkerRisk      = "⚠️"
	BlacklistMarker = "⚠️ 网站在黑名单中"
)

// DOMMarkers 页面内容类风险的关键字
var DOMMarkers = []string{"SFH", "Email", "MouseOver", "Popup", "Iframe", "[内容]", "DOM"}

// Category 警告分类
type Category int

const (
	CategoryUnmarked Category = iota
	CategoryBenign
	CategoryBlacklist
	CategoryDOM
	CategoryOther
)

// String 返回分类名称
func (c Category) String() string {
	switch c {
	case CategoryBenign:
		return "benign"
	case CategoryBlacklist:
		return "blacklist"
	case CategoryDOM:
		return "dom"
	case CategoryOther:
		return "other"
	default:
		return "unmarked"
	}
}

// Counts 分类统计结果
type Counts struct {
	BlacklistHits int  `json:"blacklistHits"`
	DOMRisks      int  `json:"domRisks"`
	BadRequests   int  `json:"badRequests"`
	HasWarning    bool `json:"hasWarning"`
}

// Categorize 将一条警告文本归入唯一的分类，按黑名单、DOM、良性、风险的顺序匹配
func Categorize(w string) Category {
	switch {
	case strings.Contains(w, BlacklistMarker):
		return CategoryBlacklist
	case containsDOMMarker(w):
		return CategoryDOM
	case strings.Contains(w, MarkerBenign):
		return CategoryBenign
	case strings.Contains(w, MarkerRisk):
		return CategoryOther
	default:
		return CategoryUnmarked
	}
}

func containsDOMMarker(w string) bool {
	for _, m := range DOMMarkers {
		if strings.Contains(w, m) {
			return true
		}
	}
	return false
}

// Classify 统计警告列表
// HasWarning 只看前缀，与分类计数相互独立
func Classify(warnings []string) Counts {
	var c Counts
	for _, w := range warnings {
		switch Categorize(w) {
		case CategoryBlacklist:
			c.BlacklistHits++
		case CategoryDOM:
			c.DOMRisks++
		case CategoryOther:
			c.BadRequests++
		}
		if strings.HasPrefix(w, MarkerRisk) {
			c.HasWarning = true
		}
	}
	return c
}

// StripMarkers 去掉展示时不需要的风险标记
func StripMarkers(w string) string {
	w = strings.ReplaceAll(w, MarkerRisk, "")
	w = strings.ReplaceAll(w, MarkerBenign, "")
	return strings.TrimSpace(w)
}

// Split 将风险拆分为页面内容类与其余条目，保持原有顺序
func Split(warnings []string) (dom, other []string) {
	dom = make([]string, 0)
	other = make([]string, 0)
	for _, w := range warnings {
		if Categorize(w) == CategoryDOM {
			dom = append(dom, w)
			continue
		}
		other = append(other, w)
	}
	return dom, other
}
