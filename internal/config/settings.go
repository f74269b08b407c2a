package config

import "phishguard/pkg/domain"

// 持久化键名
const (
	KeySecurityHistory = "securityHistory"
	KeyUserBlacklist   = "userBlacklist"
	KeyTheme           = "theme"
)

// DefaultSettings 定义所有设置的默认值
type DefaultSettings struct {
	Theme         domain.Theme
	HistoryLimit  int
	BlockPagePath string
}

// GetDefaultSettings 返回默认设置
func GetDefaultSettings() DefaultSettings {
	return DefaultSettings{
		Theme:         domain.ThemeDark,
		HistoryLimit:  50,
		BlockPagePath: "/blocked",
	}
}
