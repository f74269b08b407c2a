package httpapi

import (
	"bytes"
	"html/template"
	"net/http"

	"phishguard/internal/explainer"
	"phishguard/internal/intercept"
	"phishguard/pkg/domain"
)

type blockPageData struct {
	Theme       domain.Theme
	Intercept   domain.Intercept
	Explanation explainer.Explanation
	Time        string
	Error       string
}

var blockTmpl = template.Must(template.New("blocked").Parse(`<!DOCTYPE html>
<html lang="zh-CN" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<title>{{if .Error}}拦截页错误{{else}}{{.Explanation.Title}}{{end}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;padding:40px;background:#f5f6fa;color:#2c3e50}
[data-theme="dark"] body{background:#1e1f26;color:#ecf0f1}
.container{max-width:760px;margin:0 auto}
.error{background:#ffeaea;color:#e74c3c;padding:20px;margin-bottom:20px}
.severity{display:inline-block;padding:4px 10px;border-radius:4px;color:#fff}
.tag{display:inline-block;margin:2px;padding:2px 8px;border:1px solid #e74c3c;border-radius:10px;font-size:12px}
.section{white-space:pre-line;margin:12px 0}
.meta{font-size:12px;color:#95a5a6}
</style>
</head>
<body>
<div class="container">
{{- if .Error}}
<div class="error"><h3>⚠️ 错误</h3><p>{{.Error}}</p></div>
{{- else}}
<h1>{{.Explanation.Title}}</h1>
<p><span class="severity" style="background:{{.Explanation.Severity.Color}}">{{.Explanation.Severity.Label}}</span> {{.Explanation.Category}}</p>
<p>被拦截的网站：<strong>{{.Intercept.Hostname}}</strong></p>
<p>{{range .Explanation.Tags}}<span class="tag">{{.}}</span>{{end}}</p>
{{- if .Explanation.Specific}}
{{range .Explanation.Sections}}<div class="section"><strong>{{.Warning}}</strong>
{{.Description}}</div>
{{end}}
{{- else}}
<p>{{.Explanation.Description}}</p>
{{- end}}
<h3>安全建议</h3>
<ul>{{range .Explanation.Advice}}<li>{{.}}</li>{{end}}</ul>
<h3>可能的风险</h3>
<ul>{{range .Explanation.Risks}}<li>{{.}}</li>{{end}}</ul>
<p><a href="javascript:history.back()">返回安全页面</a></p>
<p class="meta">拦截编号：{{.Intercept.InterceptID}} · 拦截时间：{{.Time}}</p>
<p class="meta">{{.Intercept.URL}}</p>
{{- end}}
</div>
</body>
</html>
`))

// blockPage 渲染拦截页
func (s *Server) blockPage(w http.ResponseWriter, r *http.Request) {
	data := blockPageData{Theme: s.svc.Theme(r.Context())}
	status := http.StatusOK

	in, err := intercept.Decode(r.URL.Query())
	if err != nil {
		s.log.Warn("拦截页参数不完整", "error", err)
		data.Error = "拦截信息不完整：" + err.Error()
		status = http.StatusBadRequest
	} else {
		data.Intercept = in
		data.Explanation = s.svc.Explain(in)
		data.Time = in.Timestamp.Local().Format("2006-01-02 15:04:05")
	}

	var buf bytes.Buffer
	if err := blockTmpl.Execute(&buf, data); err != nil {
		s.log.Err(err, "渲染拦截页失败")
		writeText(w, http.StatusInternalServerError, "render failed\n")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
