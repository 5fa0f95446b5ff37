package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHandicapBelowThreshold(t *testing.T) {
	tests := []struct {
		name   string
		higher int
		lower  int
	}{
		{"equal ratings", 1200, 1200},
		{"one point apart", 1201, 1200},
		{"just under threshold", 1249, 1200},
		{"low rated pair", 420, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputeHandicap(tt.higher, tt.lower)

			assert.Equal(t, BaseTimeMs, p.HigherTime)
			assert.Equal(t, BaseTimeMs, p.LowerTime)
			assert.Equal(t, BaseIncrementMs, p.HigherIncrement)
			assert.Equal(t, BaseIncrementMs, p.LowerIncrement)
		})
	}
}

func TestComputeHandicapFullGap(t *testing.T) {
	// A gap of 750 or more saturates the handicap.
	for _, gap := range []int{750, 900, 2000} {
		p := ComputeHandicap(1200+gap, 1200)

		assert.Equal(t, MinTimeMs, p.HigherTime, "gap %d", gap)
		assert.Equal(t, MaxTimeMs, p.LowerTime, "gap %d", gap)
		assert.Equal(t, MinIncrementMs, p.HigherIncrement, "gap %d", gap)
		assert.Equal(t, MaxIncrementMs, p.LowerIncrement, "gap %d", gap)
	}
}

func TestComputeHandicapThresholdEdge(t *testing.T) {
	// At exactly the threshold the handicap kicks in, slightly.
	p := ComputeHandicap(1250, 1200)

	assert.Less(t, p.HigherTime, BaseTimeMs)
	assert.Greater(t, p.LowerTime, BaseTimeMs)
	assert.Less(t, p.HigherIncrement, BaseIncrementMs)
	assert.Greater(t, p.LowerIncrement, BaseIncrementMs)
}

func TestComputeHandicapBounds(t *testing.T) {
	// For every rating pair the four outputs stay inside their documented
	// clamps, on the correct side of the base values.
	for higher := 100; higher <= 2600; higher += 37 {
		for lower := 100; lower <= higher; lower += 53 {
			p := ComputeHandicap(higher, lower)

			require.GreaterOrEqual(t, p.HigherTime, MinTimeMs)
			require.LessOrEqual(t, p.HigherTime, BaseTimeMs)
			require.GreaterOrEqual(t, p.LowerTime, BaseTimeMs)
			require.LessOrEqual(t, p.LowerTime, MaxTimeMs)

			require.GreaterOrEqual(t, p.HigherIncrement, MinIncrementMs)
			require.LessOrEqual(t, p.HigherIncrement, BaseIncrementMs)
			require.GreaterOrEqual(t, p.LowerIncrement, BaseIncrementMs)
			require.LessOrEqual(t, p.LowerIncrement, MaxIncrementMs)
		}
	}
}

func TestComputeHandicapMonotonicInGap(t *testing.T) {
	// A wider gap never gives the stronger player more time.
	prev := ComputeHandicap(1200, 1200)
	for gap := 25; gap <= 1200; gap += 25 {
		p := ComputeHandicap(1200+gap, 1200)

		require.LessOrEqual(t, p.HigherTime, prev.HigherTime, "gap %d", gap)
		require.GreaterOrEqual(t, p.LowerTime, prev.LowerTime, "gap %d", gap)
		prev = p
	}
}

func TestComputeHandicapIsPure(t *testing.T) {
	for higher := 1200; higher <= 2200; higher += 111 {
		for lower := 800; lower <= higher; lower += 97 {
			first := ComputeHandicap(higher, lower)
			second := ComputeHandicap(higher, lower)
			require.Equal(t, first, second)
		}
	}
}

func TestHandicapParamsTimeControl(t *testing.T) {
	p := ComputeHandicap(1950, 1200)

	wt, bt, wi, bi := p.TimeControl(true)
	assert.Equal(t, p.HigherTime, wt)
	assert.Equal(t, p.LowerTime, bt)
	assert.Equal(t, p.HigherIncrement, wi)
	assert.Equal(t, p.LowerIncrement, bi)

	wt, bt, wi, bi = p.TimeControl(false)
	assert.Equal(t, p.LowerTime, wt)
	assert.Equal(t, p.HigherTime, bt)
	assert.Equal(t, p.LowerIncrement, wi)
	assert.Equal(t, p.HigherIncrement, bi)
}
