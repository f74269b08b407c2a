package db

import (
	"context"
	"errors"
	"time"

	"phishguard/internal/logger"

	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"
)

// SlowThreshold 慢查询阈值
const SlowThreshold = 500 * time.Millisecond

// Logger 将 GORM 日志转发到项目日志
type Logger struct {
	log      logger.Logger
	LogLevel glog.LogLevel
}

// NewLogger 创建 GORM 日志桥接，默认只记录告警和错误
func NewLogger(l logger.Logger) *Logger {
	if l == nil {
		l = logger.NewNop()
	}
	return &Logger{log: l.With("component", "gorm"), LogLevel: glog.Warn}
}

// LogMode 实现 logger.Interface 接口
func (l *Logger) LogMode(level glog.LogLevel) glog.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

// Info 打印 info 级别日志
func (l *Logger) Info(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= glog.Info {
		l.log.Info(msg, "data", data)
	}
}

// Warn 打印 warn 级别日志
func (l *Logger) Warn(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= glog.Warn {
		l.log.Warn(msg, "data", data)
	}
}

// Error 打印 error 级别日志
func (l *Logger) Error(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= glog.Error {
		l.log.Error(msg, "data", data)
	}
}

// Trace 记录 SQL 执行情况；未找到记录不视为错误
func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= glog.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []any{
		"sql", sql,
		"rows", rows,
		"timeMs", float64(elapsed.Nanoseconds()) / 1e6,
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.LogLevel >= glog.Error:
		l.log.Err(err, "SQL执行错误", fields...)
	case elapsed > SlowThreshold && l.LogLevel >= glog.Warn:
		l.log.Warn("慢SQL查询", fields...)
	case l.LogLevel == glog.Info:
		l.log.Debug("SQL执行", fields...)
	}
}
