package detector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"phishguard/internal/logger"
	"phishguard/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, logger.NewNop())
}

func TestCheck_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check", r.URL.Path)
		assert.Equal(t, "http://1.2.3.4/login?a=b", r.URL.Query().Get("url"))
		_, _ = io.WriteString(w, `{"url":"http://1.2.3.4/login?a=b","probability":0.9,"risk_level":"high","warnings":["⚠️ 网站在黑名单中","⚠️ URL包含IP地址"]}`)
	})

	rep, err := c.Check(context.Background(), "http://1.2.3.4/login?a=b")
	require.NoError(t, err)
	require.NotNil(t, rep.Probability)
	assert.InDelta(t, 0.9, *rep.Probability, 1e-9)
	assert.Equal(t, "high", rep.RiskLevel)
	assert.Equal(t, []string{"⚠️ 网站在黑名单中", "⚠️ URL包含IP地址"}, rep.Warnings)
	assert.Empty(t, rep.Error)
}

func TestCheck_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"model not loaded"}`)
	})

	_, err := c.Check(context.Background(), "https://a.example")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDetectorStatus))
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestCheck_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})

	_, err := c.Check(context.Background(), "https://a.example")
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}

func TestCheck_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Check(context.Background(), "https://slow.example")
	assert.True(t, errors.Is(err, domain.ErrDetectorUnreachable))
}

func TestCheck_Unreachable(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)
	_, err := c.Check(context.Background(), "https://a.example")
	assert.True(t, errors.Is(err, domain.ErrDetectorUnreachable))
}

func TestParseReport_PerFieldIsolation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantProb bool
		wantLvl  string
		wantWs   []string
		wantErr  string
	}{
		{"概率为字符串", `{"probability":"0.9","risk_level":"high","warnings":["⚠️ a"]}`, false, "high", []string{"⚠️ a"}, ""},
		{"警告不是数组", `{"probability":0.1,"warnings":"⚠️ a"}`, true, "", []string{}, ""},
		{"丢弃非字符串警告", `{"warnings":["⚠️ a",3,{"x":1},"✅ b"]}`, false, "", []string{"⚠️ a", "✅ b"}, ""},
		{"等级不是字符串", `{"risk_level":5}`, false, "", []string{}, ""},
		{"应用错误", `{"error":"missing url"}`, false, "", []string{}, "missing url"},
		{"error 为 null", `{"error":null,"probability":0}`, true, "", []string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseReport(gjson.Parse(tt.body))
			assert.Equal(t, tt.wantProb, r.Probability != nil)
			assert.Equal(t, tt.wantLvl, r.RiskLevel)
			assert.Equal(t, tt.wantWs, r.Warnings)
			assert.Equal(t, tt.wantErr, r.Error)
		})
	}
}

func TestBlacklist(t *testing.T) {
	var stored []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blacklist", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(append([]string{"evil.example"}, stored...))
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&stored))
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		}
	})

	list, err := c.Blacklist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"evil.example"}, list)

	require.NoError(t, c.ReplaceBlacklist(context.Background(), []string{"bad.example"}))
	assert.Equal(t, []string{"bad.example"}, stored)
}

func TestBlacklist_NotArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"list":[]}`)
	})
	_, err := c.Blacklist(context.Background())
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}
