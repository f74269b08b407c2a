package db_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"phishguard/internal/logger"
	"phishguard/internal/storage/db"
)

// TestModel 用于测试迁移和读写的简单模型
type TestModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255"`
}

func TestGetDefaultPath(t *testing.T) {
	dbName := "test_db.db"
	path, err := db.GetDefaultPath(dbName)
	if err != nil {
		t.Fatalf("获取默认路径失败: %v", err)
	}
	if !strings.HasSuffix(path, dbName) {
		t.Errorf("路径 %s 不是以 %s 结尾", path, dbName)
	}
	if !strings.Contains(path, "phishguard") {
		t.Errorf("路径 %s 不包含应用名称 'phishguard'", path)
	}
}

func TestDatabaseInitialization(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "unit_test.db")

	gdb, err := db.New(db.Options{FullPath: dbPath, Prefix: "test_"})
	if err != nil {
		t.Fatalf("初始化数据库连接失败: %v", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb, &TestModel{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	if !gdb.Migrator().HasTable("test_test_model") {
		t.Error("表前缀或单数表名策略未生效")
	}

	if err := gdb.Create(&TestModel{Name: "alpha"}).Error; err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	var got TestModel
	if err := gdb.First(&got).Error; err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if got.Name != "alpha" {
		t.Errorf("got %q, want alpha", got.Name)
	}
}

func TestMemoryDatabase(t *testing.T) {
	gdb, err := db.New(db.Options{Name: db.MemoryName})
	if err != nil {
		t.Fatalf("创建内存数据库失败: %v", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb, &TestModel{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	if err := gdb.Create(&TestModel{Name: "beta"}).Error; err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	var n int64
	gdb.Model(&TestModel{}).Count(&n)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestLoggerBridge_ErrorsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Level: "debug", Out: &buf})

	gdb, err := db.New(db.Options{Name: db.MemoryName, Logger: db.NewLogger(l)})
	if err != nil {
		t.Fatalf("创建内存数据库失败: %v", err)
	}
	defer db.Close(gdb)

	_ = gdb.Exec("SELECT * FROM no_such_table").Error
	if !strings.Contains(buf.String(), "SQL执行错误") {
		t.Errorf("SQL 错误未被记录: %s", buf.String())
	}
}
