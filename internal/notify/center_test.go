package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCenter() (*Center, *clock) {
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)}
	c := NewCenter(0, zap.NewNop())
	c.now = clk.now
	return c, clk
}

func TestCenter_ExpiresAfterTTL(t *testing.T) {
	c, clk := newTestCenter()

	first := c.Notify(Success, "Máquina marcada como resuelta")
	assert.Equal(t, DefaultTTL, first.ExpiresAt.Sub(first.CreatedAt))

	clk.t = clk.t.Add(3 * time.Second)
	c.Notify(Error, "Error actualizando estado")
	require.Len(t, c.Active(), 2)

	clk.t = clk.t.Add(2 * time.Second)
	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, Error, active[0].Level)

	clk.t = clk.t.Add(3 * time.Second)
	assert.Empty(t, c.Active())
}

func TestCenter_Dismiss(t *testing.T) {
	c, _ := newTestCenter()

	a := c.Notify(Info, "a")
	b := c.Notify(Warning, "b")

	assert.True(t, c.Dismiss(a.ID))
	assert.False(t, c.Dismiss(a.ID))
	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)
}

func TestCenter_ActiveReturnsCopy(t *testing.T) {
	c, _ := newTestCenter()
	c.Notify(Info, "original")

	got := c.Active()
	got[0].Message = "changed"
	assert.Equal(t, "original", c.Active()[0].Message)
}
