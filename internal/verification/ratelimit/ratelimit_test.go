package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCooldown(30 * time.Second)

	t.Run("first send allowed", func(t *testing.T) {
		d, err := c.Allow(ctx, "k", nil, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("resend inside window refused with remaining wait", func(t *testing.T) {
		last := now.Add(-10 * time.Second)
		d, err := c.Allow(ctx, "k", &last, now)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 20*time.Second, d.RetryAfter)
	})

	t.Run("resend after window allowed", func(t *testing.T) {
		last := now.Add(-30 * time.Second)
		d, err := c.Allow(ctx, "k", &last, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("zero cooldown never blocks", func(t *testing.T) {
		d, err := NewCooldown(0).Allow(ctx, "k", &now, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}
