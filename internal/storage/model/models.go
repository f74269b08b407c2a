package model

import (
	"time"
)

// Setting 键值设置表，历史记录、黑名单镜像与主题偏好均以 JSON 文本存放
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`  // 设置键
	Value     string    `gorm:"type:text" json:"value"` // 设置值
	UpdatedAt time.Time `json:"updatedAt"`              // 更新时间
}

// All 需要自动迁移的模型
func All() []any {
	return []any{&Setting{}}
}
