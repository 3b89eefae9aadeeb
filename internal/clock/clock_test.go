package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMock(t *testing.T) {
	m := NewMock(time.Time{})
	start := m.Now()
	assert.Equal(t, time.Unix(1000000000, 0), start)

	m.Advance(33 * time.Millisecond)
	assert.Equal(t, 33*time.Millisecond, m.Now().Sub(start))

	assert.Panics(t, func() { m.Advance(-time.Second) })
}

func TestSystemMovesForward(t *testing.T) {
	var c Clock = System{}
	a := c.Now()
	b := c.Now()
	assert.False(t, b.Before(a))
}
