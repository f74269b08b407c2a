package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/storage/kv"
	"phishguard/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore 始终返回错误的存储
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) { return "", errors.New("disk gone") }
func (brokenStore) Set(context.Context, string, string) error   { return errors.New("disk gone") }
func (brokenStore) Delete(context.Context, string) error        { return errors.New("disk gone") }
func (brokenStore) Close() error                                { return nil }

func item(id string) domain.HistoryItem {
	return domain.HistoryItem{InterceptID: id, URL: "http://" + id, ThreatLevel: domain.RiskHigh}
}

func TestLoad_EmptyStoreReturnsExamples(t *testing.T) {
	s := New(kv.NewMemory(), nil)
	got := s.Load(context.Background())
	assert.Equal(t, Examples, got)
}

func TestLoad_BrokenStoreReturnsExamples(t *testing.T) {
	s := New(brokenStore{}, nil)
	assert.Equal(t, Examples, s.Load(context.Background()))
	assert.Error(t, s.Append(context.Background(), item("a")))
}

func TestAppend_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	require.NoError(t, s.Append(ctx, item("a")))
	require.NoError(t, s.Append(ctx, item("b")))

	got := s.Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].InterceptID)
	assert.Equal(t, "a", got[1].InterceptID)
}

func TestAppend_CapEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	for i := 0; i < 51; i++ {
		require.NoError(t, s.Append(ctx, item(fmt.Sprintf("id-%02d", i))))
	}

	got := s.Load(ctx)
	require.Len(t, got, DefaultLimit)
	assert.Equal(t, "id-50", got[0].InterceptID)
	assert.Equal(t, "id-01", got[len(got)-1].InterceptID)
	_, ok := s.Find(ctx, "id-00")
	assert.False(t, ok)
}

func TestClear_ReturnsEmptyNotExamples(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)
	require.NoError(t, s.Append(ctx, item("a")))

	require.NoError(t, s.Clear(ctx))
	got := s.Load(ctx)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoad_CorruptValueReturnsExamples(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, config.KeySecurityHistory, "{oops"))

	s := New(mem, nil)
	assert.Equal(t, Examples, s.Load(ctx))
}

func TestAppend_CorruptValueStartsOver(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, config.KeySecurityHistory, "{not json"))
	s := New(mem, nil)

	require.NoError(t, s.Append(ctx, item("a")), "损坏的历史不应阻止新记录写入")
	assert.Equal(t, []domain.HistoryItem{item("a")}, s.Load(ctx))

	require.NoError(t, s.Append(ctx, item("b")))
	got := s.Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].InterceptID)
}

func TestLoad_ExamplesAreCopies(t *testing.T) {
	s := New(kv.NewMemory(), nil)
	got := s.Load(context.Background())
	got[0].Advice[0] = "changed"
	got[0].Risks[0] = "changed"

	assert.Equal(t, "建议立即关闭页面", DefaultAdvice[0])
	assert.Equal(t, "⚠️ 网站在黑名单中", Examples[0].Risks[0])
	assert.Equal(t, Examples, s.Load(context.Background()))
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), nil)

	// 未写入时可检索示例数据
	it, ok := s.Find(ctx, "DEMO-0002")
	require.True(t, ok)
	assert.Equal(t, "http://free-iphone-gift.net", it.URL)

	require.NoError(t, s.Append(ctx, item("BLOCK-1")))
	it, ok = s.Find(ctx, "BLOCK-1")
	require.True(t, ok)
	assert.Equal(t, "http://BLOCK-1", it.URL)
}

func TestNewItem(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	it := NewItem("http://1.2.3.4", domain.RiskRecord{RiskLevel: domain.RiskHigh, Warnings: []string{"⚠️ URL包含IP地址", "⚠️ 过多重定向"}}, "BLOCK-X", now)
	assert.Equal(t, "⚠️ URL包含IP地址", it.ThreatName)
	assert.Equal(t, domain.RiskHigh, it.ThreatLevel)
	assert.Equal(t, "2024-05-01T08:00:00.000Z", it.Timestamp)
	assert.Equal(t, DefaultAdvice, it.Advice)
	assert.Len(t, it.Risks, 2)

	it = NewItem("http://a", domain.RiskRecord{RiskLevel: domain.RiskMedium}, "BLOCK-Y", now)
	assert.Equal(t, PlaceholderThreat, it.ThreatName)
	assert.NotNil(t, it.Risks)
}
