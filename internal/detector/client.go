package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phishguard/internal/logger"
	"phishguard/pkg/domain"

	"github.com/tidwall/gjson"
)

const maxBodySize = 1 << 20

// Options 客户端选项
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client 钓鱼检测服务客户端
type Client struct {
	base string
	http *http.Client
	log  logger.Logger
}

// New 创建检测服务客户端
func New(opts Options, l logger.Logger) *Client {
	if l == nil {
		l = logger.NewNop()
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base: strings.TrimRight(opts.BaseURL, "/"),
		http: hc,
		log:  l.With("component", "detector"),
	}
}

// Check 查询目标地址的钓鱼风险
// 检测服务返回 error 字段时报告中的 Error 非空，由调用方决定如何处理
func (c *Client) Check(ctx context.Context, target string) (*domain.DetectorReport, error) {
	endpoint := c.base + "/check?url=" + url.QueryEscape(target)
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", domain.ErrMalformedResponse)
	}

	report := ParseReport(gjson.ParseBytes(body))
	c.log.Debug("检测完成", "url", target, "riskLevel", report.RiskLevel, "warnings", len(report.Warnings))
	return report, nil
}

// ParseReport 逐字段解析检测结果，单个字段异常不影响其他字段
func ParseReport(res gjson.Result) *domain.DetectorReport {
	r := &domain.DetectorReport{Warnings: []string{}}

	if p := res.Get("probability"); p.Type == gjson.Number {
		v := p.Float()
		r.Probability = &v
	}
	if lv := res.Get("risk_level"); lv.Type == gjson.String {
		r.RiskLevel = lv.String()
	}
	if ws := res.Get("warnings"); ws.IsArray() {
		ws.ForEach(func(_, v gjson.Result) bool {
			if v.Type == gjson.String {
				r.Warnings = append(r.Warnings, v.String())
			}
			return true
		})
	}
	if e := res.Get("error"); e.Exists() && e.Type != gjson.Null {
		r.Error = e.String()
		if r.Error == "" {
			r.Error = "detector error"
		}
	}
	return r
}

// Blacklist 获取服务端黑名单
func (c *Client) Blacklist(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, c.base+"/blacklist", nil)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !res.IsArray() {
		return nil, fmt.Errorf("%w: blacklist is not an array", domain.ErrMalformedResponse)
	}
	list := make([]string, 0)
	res.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String {
			list = append(list, v.String())
		}
		return true
	})
	return list, nil
}

// ReplaceBlacklist 整体替换服务端黑名单
func (c *Client) ReplaceBlacklist(ctx context.Context, list []string) error {
	if list == nil {
		list = []string{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, c.base+"/blacklist", payload)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDetectorUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDetectorUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrDetectorUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %d %s", domain.ErrDetectorStatus, resp.StatusCode, msg)
	}
	return body, nil
}
