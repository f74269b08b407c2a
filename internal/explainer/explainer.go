package explainer

import (
	"strings"

	"phishguard/pkg/domain"
)

// Separator 多个具体解释之间的分隔
const Separator = "\n- - - - - - - -\n"

// Section 单条已匹配警告的解释
type Section struct {
	Warning     string `json:"warning"`
	Description string `json:"description"`
}

// Explanation 拦截页展示内容
type Explanation struct {
	Title       string        `json:"title"`
	Category    string        `json:"category"`
	Severity    SeverityLevel `json:"severity"`
	Tags        []string      `json:"tags"`
	Description string        `json:"description"`
	Sections    []Section     `json:"sections"`
	Advice      []string      `json:"advice"`
	Risks       []string      `json:"risks"`
	Specific    bool          `json:"specific"`
}

// Explain 生成拦截说明
// 任一警告命中具体解释时，描述按顺序拼接、建议合并去重；否则使用拦截原因的通用说明
func Explain(warnings []string, reason domain.Reason) Explanation {
	tc := LookupThreat(reason)
	return build(warnings, tc, string(tc.Level))
}

// ExplainIntercept 基于完整拦截上下文生成说明，等级优先取上下文中的 threatLevel
func ExplainIntercept(in domain.Intercept) Explanation {
	tc := LookupThreat(in.Reason)
	level := string(in.ThreatLevel)
	if level == "" {
		level = string(tc.Level)
	}
	return build(in.Warnings, tc, level)
}

func build(warnings []string, tc ThreatConfig, level string) Explanation {
	exp := Explanation{
		Title:    tc.Title,
		Category: tc.Category,
		Severity: LookupSeverity(level),
		Risks:    append([]string(nil), tc.Risks...),
		Sections: make([]Section, 0),
	}

	if len(warnings) > 0 {
		exp.Tags = append([]string(nil), warnings...)
	} else {
		exp.Tags = []string{tc.Category}
	}

	seen := make(map[string]struct{})
	descs := make([]string, 0, len(warnings))
	for _, w := range warnings {
		d, ok := LookupWarning(w)
		if !ok {
			continue
		}
		exp.Specific = true
		exp.Sections = append(exp.Sections, Section{Warning: w, Description: d.Description})
		descs = append(descs, w+"\n"+d.Description)
		for _, a := range d.Advice {
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			exp.Advice = append(exp.Advice, a)
		}
	}

	if !exp.Specific {
		exp.Description = tc.Description
		exp.Advice = append([]string(nil), tc.Advice...)
		return exp
	}
	exp.Description = strings.Join(descs, Separator)
	return exp
}
