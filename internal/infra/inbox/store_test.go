package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInbox(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	seen, err := m.Seen(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, seen)
	seen, _ = m.Seen(ctx, "e1")
	assert.True(t, seen)

	require.NoError(t, m.Release(ctx, "e1"))
	seen, _ = m.Seen(ctx, "e1")
	assert.False(t, seen)

	now = now.Add(2 * time.Hour)
	seen, _ = m.Seen(ctx, "e1")
	assert.False(t, seen, "expired ids are forgotten")
}
