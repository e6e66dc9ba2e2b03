package centrifuge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffWithinBounds(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 100*time.Millisecond)
	for i := 0; i < 20; i++ {
		d := b.next()
		require.GreaterOrEqual(t, d, 10*time.Millisecond)
		require.LessOrEqual(t, d, 100*time.Millisecond)
	}
}

func TestBackoffResetRestartsFromMin(t *testing.T) {
	b := newBackoff(10*time.Millisecond, 1*time.Second)
	for i := 0; i < 10; i++ {
		b.next()
	}
	b.reset()
	require.Equal(t, 0, b.attempt)
	d := b.next()
	require.GreaterOrEqual(t, d, 10*time.Millisecond)
}
