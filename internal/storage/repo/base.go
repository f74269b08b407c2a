package repo

import (
	"context"

	"gorm.io/gorm"
)

// TxConfig 事务配置
type TxConfig struct {
	tx *gorm.DB
}

// SetTx 设置事务
func (c *TxConfig) SetTx(tx *gorm.DB) {
	c.tx = tx
}

// GetTx 获取事务
func (c *TxConfig) GetTx() *gorm.DB {
	return c.tx
}

// Option 仓库操作选项
type Option func(*TxConfig)

// WithTx 在指定事务中执行
func WithTx(tx *gorm.DB) Option {
	return func(c *TxConfig) {
		c.SetTx(tx)
	}
}

// BaseRepository 基础DAO层
type BaseRepository[T any] struct {
	Db *gorm.DB
}

// NewBaseRepository 创建基础DAO层
func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{
		Db: db,
	}
}

// Count 统计记录数量
func (r *BaseRepository[T]) Count(ctx context.Context, opts ...Option) (int64, error) {
	var count int64
	if err := r.getDb(opts...).WithContext(ctx).Model(new(T)).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// getDb 获取数据库连接，有事务时优先使用事务
func (r *BaseRepository[T]) getDb(opts ...Option) *gorm.DB {
	cfg := &TxConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if tx := cfg.GetTx(); tx != nil {
		return tx
	}
	return r.Db
}
