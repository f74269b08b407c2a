package intercept

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"phishguard/pkg/domain"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// 查询参数名
const (
	ParamURL         = "url"
	ParamReason      = "reason"
	ParamThreatLevel = "threatLevel"
	ParamInterceptID = "interceptId"
	ParamTimestamp   = "timestamp"
	ParamWarnings    = "warnings"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// NewID 生成拦截编号，形如 BLOCK-<时间36进制>-<随机串>
func NewID(now time.Time) string {
	rnd := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return strings.ToUpper("BLOCK-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + rnd)
}

// EncodeWarnings 将警告列表编码为 JSON 数组
func EncodeWarnings(warnings []string) (string, error) {
	out := "[]"
	for _, w := range warnings {
		var err error
		if out, err = sjson.Set(out, "-1", w); err != nil {
			return "", fmt.Errorf("encode warnings: %w", err)
		}
	}
	return out, nil
}

// DecodeWarnings 解析警告 JSON 数组，无法解析时返回空列表，非字符串元素被丢弃
func DecodeWarnings(raw string) []string {
	out := make([]string, 0)
	if raw == "" || !gjson.Valid(raw) {
		return out
	}
	res := gjson.Parse(raw)
	if !res.IsArray() {
		return out
	}
	res.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String {
			out = append(out, v.String())
		}
		return true
	})
	return out
}

// Encode 将拦截上下文编码到拦截页地址的查询参数中
func Encode(base string, in domain.Intercept) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse block page url: %w", err)
	}
	warnings, err := EncodeWarnings(in.Warnings)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set(ParamURL, in.URL)
	q.Set(ParamReason, string(in.Reason))
	q.Set(ParamThreatLevel, string(in.ThreatLevel))
	q.Set(ParamInterceptID, in.InterceptID)
	q.Set(ParamTimestamp, in.Timestamp.UTC().Format(timeLayout))
	q.Set(ParamWarnings, warnings)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Decode 从查询参数还原拦截上下文
func Decode(q url.Values) (domain.Intercept, error) {
	var missing []string
	for _, k := range []string{ParamURL, ParamReason, ParamThreatLevel, ParamInterceptID, ParamTimestamp} {
		if strings.TrimSpace(q.Get(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return domain.Intercept{}, fmt.Errorf("%w: missing %s", domain.ErrIncompleteIntercept, strings.Join(missing, ","))
	}

	ts, err := time.Parse(time.RFC3339Nano, q.Get(ParamTimestamp))
	if err != nil {
		return domain.Intercept{}, fmt.Errorf("%w: bad timestamp: %v", domain.ErrIncompleteIntercept, err)
	}

	raw := q.Get(ParamURL)
	host := ""
	if u, err := url.Parse(raw); err == nil {
		host = u.Hostname()
	}

	return domain.Intercept{
		URL:         raw,
		Hostname:    host,
		Reason:      domain.Reason(q.Get(ParamReason)),
		ThreatLevel: domain.RiskLevel(q.Get(ParamThreatLevel)),
		InterceptID: q.Get(ParamInterceptID),
		Timestamp:   ts,
		Warnings:    DecodeWarnings(q.Get(ParamWarnings)),
	}, nil
}
