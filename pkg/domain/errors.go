package domain

import "errors"

// 检测服务相关错误
var (
	ErrDetectorUnreachable = errors.New("detector unreachable")
	ErrDetectorStatus      = errors.New("detector returned non-success status")
	ErrDetectorReported    = errors.New("detector reported an error")
	ErrMalformedResponse   = errors.New("malformed detector response")
)

// 标签页相关错误
var (
	ErrNoActiveTab = errors.New("no active tab")
	ErrTabNotFound = errors.New("tab not found")
)

// 拦截载荷相关错误
var (
	ErrIncompleteIntercept = errors.New("incomplete intercept payload")
)

// 黑名单相关错误
var (
	ErrInvalidDomain      = errors.New("invalid domain")
	ErrAlreadyBlacklisted = errors.New("domain already blacklisted")
	ErrNotBlacklisted     = errors.New("domain not blacklisted")
)

// 配置相关错误
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrInvalidTheme  = errors.New("invalid theme")
)

// 存储相关错误
var (
	ErrDatabaseNotInitialized = errors.New("database not initialized")
	ErrRecordNotFound         = errors.New("record not found")
)
