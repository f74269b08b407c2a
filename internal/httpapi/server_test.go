package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/intercept"
	"phishguard/internal/service"
	"phishguard/internal/storage/kv"
	api "phishguard/pkg/api"
	"phishguard/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	mu   sync.Mutex
	list []string
}

func (d *stubDetector) Check(_ context.Context, target string) (*domain.DetectorReport, error) {
	if strings.Contains(target, "bad") {
		p := 0.9
		return &domain.DetectorReport{Probability: &p, RiskLevel: "high", Warnings: []string{"⚠️ 网站在黑名单中", "⚠️ [内容] 表单提交到外部域名 (SFH)"}}, nil
	}
	p := 0.01
	return &domain.DetectorReport{Probability: &p, RiskLevel: "low", Warnings: []string{"✅ 域名信息正常"}}, nil
}

func (d *stubDetector) Blacklist(context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.list...), nil
}

func (d *stubDetector) ReplaceBlacklist(_ context.Context, list []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.list = append([]string(nil), list...)
	return nil
}

type stubHost struct{ tab domain.Tab }

func (h stubHost) ActiveTab(context.Context) (domain.Tab, error) {
	if h.tab.ID == 0 {
		return domain.Tab{}, domain.ErrNoActiveTab
	}
	return h.tab, nil
}

func (stubHost) Redirect(context.Context, domain.TabID, string) error { return nil }

func newTestServer(t *testing.T, host service.TabHost) (*httptest.Server, api.Service) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Workers.Concurrency = 1
	svc := api.NewService(cfg, &stubDetector{list: []string{"a.example"}}, kv.NewMemory(), nil, service.WithHost(host))
	svc.Start(context.Background())
	ts := httptest.NewServer(NewServer(svc, nil))
	t.Cleanup(func() {
		ts.Close()
		_ = svc.Close()
	})
	return ts, svc
}

func do(t *testing.T, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestMessage_StatusNoActiveTab(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})
	resp, out := do(t, http.MethodPost, ts.URL+"/api/message", `{"type":"GET_SECURITY_STATUS"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "No active tab", out["error"])
}

func TestMessage_StatusLoadingThenRecord(t *testing.T) {
	ts, svc := newTestServer(t, stubHost{tab: domain.Tab{ID: 3, URL: "https://good.example"}})

	resp, out := do(t, http.MethodPost, ts.URL+"/api/message", `{"type":"GET_SECURITY_STATUS"}`)
	assert.Equal(t, true, out["loading"])
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	require.Eventually(t, func() bool {
		_, ok := svc.Record(3)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	resp, out = do(t, http.MethodPost, ts.URL+"/api/message", `{"type":"GET_SECURITY_STATUS"}`)
	assert.Empty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, float64(99), out["score"])
	assert.Equal(t, "low", out["riskLevel"])
	assert.Equal(t, false, out["hasWarning"])
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, "1", retryAfter(0))
	assert.Equal(t, "1", retryAfter(300*time.Millisecond))
	assert.Equal(t, "1", retryAfter(time.Second))
	assert.Equal(t, "3", retryAfter(2500*time.Millisecond))
}

func TestMessage_CheckURL(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})
	resp, out := do(t, http.MethodPost, ts.URL+"/api/message", `{"type":"checkUrl","tabId":7,"url":"http://bad.example"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decision := out["decision"].(map[string]any)
	assert.Equal(t, "block", decision["action"])
	assert.NotEmpty(t, out["interceptId"])

	_, out = do(t, http.MethodGet, ts.URL+"/api/badge/7", "")
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "alert", out["data"].(map[string]any)["state"])
}

func TestMessage_Invalid(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})

	resp, out := do(t, http.MethodPost, ts.URL+"/api/message", `{"type":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", out["code"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/message", `{"type":"checkUrl","url":"http://x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/message", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})

	_, out := do(t, http.MethodGet, ts.URL+"/api/history", "")
	assert.Len(t, out["data"], 3, "空存储返回示例数据")

	_, out = do(t, http.MethodPost, ts.URL+"/api/message", `{"type":"checkUrl","tabId":1,"url":"http://bad.example"}`)
	id := out["interceptId"].(string)

	resp, out := do(t, http.MethodGet, ts.URL+"/api/history/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := out["data"].(map[string]any)
	assert.Equal(t, []any{"[内容] 表单提交到外部域名 (SFH)"}, report["domRisks"])
	assert.Equal(t, []any{"网站在黑名单中"}, report["otherRisks"])

	resp, out = do(t, http.MethodGet, ts.URL+"/api/history/NOPE", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", out["code"])

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/history", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, out = do(t, http.MethodGet, ts.URL+"/api/history", "")
	assert.Empty(t, out["data"])
}

func TestBlacklistEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})

	resp, out := do(t, http.MethodPost, ts.URL+"/api/blacklist", `{"domain":" Evil.Example "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"a.example", "evil.example"}, out["data"].(map[string]any)["domains"])

	resp, out = do(t, http.MethodPost, ts.URL+"/api/blacklist", `{"domain":"evil.example"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_BLACKLISTED", out["code"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/blacklist", `{"domain":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = do(t, http.MethodDelete, ts.URL+"/api/blacklist/a.example", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"evil.example"}, out["data"].(map[string]any)["domains"])

	_, out = do(t, http.MethodGet, ts.URL+"/api/blacklist", "")
	assert.Equal(t, []any{"evil.example"}, out["data"].(map[string]any)["domains"])
}

func TestThemeEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})

	_, out := do(t, http.MethodGet, ts.URL+"/api/theme", "")
	assert.Equal(t, "dark", out["data"].(map[string]any)["theme"])

	resp, _ := do(t, http.MethodPut, ts.URL+"/api/theme", `{"theme":"light"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, out = do(t, http.MethodGet, ts.URL+"/api/theme", "")
	assert.Equal(t, "light", out["data"].(map[string]any)["theme"])

	resp, out = do(t, http.MethodPut, ts.URL+"/api/theme", `{"theme":"pink"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_THEME", out["code"])
}

func TestBadge_Unknown(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})
	resp, _ := do(t, http.MethodGet, ts.URL+"/api/badge/404", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, ts.URL+"/api/badge/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func blockedQuery(t *testing.T) string {
	t.Helper()
	u, err := intercept.Encode("http://x/blocked", domain.Intercept{
		URL:         "http://1.2.3.4/login",
		Reason:      domain.ReasonPhishing,
		ThreatLevel: domain.RiskHigh,
		InterceptID: "BLOCK-TEST",
		Timestamp:   time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Warnings:    []string{"⚠️ URL包含IP地址"},
	})
	require.NoError(t, err)
	parsed, err := url.Parse(u)
	require.NoError(t, err)
	return parsed.RawQuery
}

func TestInterceptEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})

	resp, out := do(t, http.MethodGet, ts.URL+"/api/intercept?"+blockedQuery(t), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]any)
	assert.Equal(t, "1.2.3.4", data["intercept"].(map[string]any)["hostname"])
	exp := data["explanation"].(map[string]any)
	assert.Equal(t, true, exp["specific"])
	assert.Equal(t, "高风险", exp["severity"].(map[string]any)["label"])

	resp, out = do(t, http.MethodGet, ts.URL+"/api/intercept?url=http://x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INCOMPLETE_PAYLOAD", out["code"])
}

func TestBlockPage(t *testing.T) {
	ts, _ := newTestServer(t, stubHost{})

	resp, err := http.Get(ts.URL + "/blocked?" + blockedQuery(t))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(b)
	assert.Contains(t, body, "已拦截：网络钓鱼网站")
	assert.Contains(t, body, "BLOCK-TEST")
	assert.Contains(t, body, "绝对不要在此类页面输入账号密码")
	assert.Contains(t, body, `data-theme="dark"`)

	resp2, err := http.Get(ts.URL + "/blocked")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
