package badge

import (
	"testing"

	"phishguard/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	tests := []struct {
		state State
		text  string
		color string
	}{
		{StateOK, "OK", "#2ecc71"},
		{StateAlert, "!", "#e74c3c"},
		{StateLoading, "...", "#95a5a6"},
		{StateError, "Err", "#e74c3c"},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			b, ok := For(tt.state)
			require.True(t, ok)
			assert.Equal(t, tt.text, b.Text)
			assert.Equal(t, tt.color, b.Color)
		})
	}

	_, ok := For("purple")
	assert.False(t, ok)
}

func TestBoard_SetGetAndEvents(t *testing.T) {
	bus := events.New(nil)
	ch, cancel := bus.Subscribe(8)
	defer cancel()

	b := NewBoard(bus)
	_, ok := b.Get(1)
	assert.False(t, ok)

	b.Set(1, StateOK)
	b.Set(1, StateOK)
	b.Set(1, StateAlert)

	got, ok := b.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateAlert, got.State)

	// 重复设置相同状态不重复发布
	assert.Len(t, ch, 2)
	evt := <-ch
	assert.Equal(t, events.BadgeChanged, evt.Type)
}

func TestBoard_UnknownStateKeepsPrevious(t *testing.T) {
	b := NewBoard(nil)
	b.Set(3, StateOK)

	_, ok := b.Set(3, "purple")
	assert.False(t, ok)

	got, _ := b.Get(3)
	assert.Equal(t, StateOK, got.State)

	b.Delete(3)
	_, ok = b.Get(3)
	assert.False(t, ok)
}
