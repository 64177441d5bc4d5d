package math3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuarticBezierEndpoints(t *testing.T) {
	nodes := QuarticBezierNodes{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 2},
		{X: 2, Y: 0, Z: 3},
		{X: 3, Y: 0, Z: 2},
		{X: 4, Y: 0, Z: 0},
	}

	start := QuarticBezier(nodes, 0)
	end := QuarticBezier(nodes, 1)

	assert.Equal(t, nodes[0], start)
	assert.Equal(t, nodes[4], end)
}

// Two quartic curves sharing a middle node with mirrored tangent nodes
// (P3,P4 of the first equal to P0,P1 of the second, reflected) should have
// equal derivatives at the junction — the C¹ continuity the swing-phase
// primary/secondary polygon split relies on.
func TestQuarticBezierDotContinuityAtJunction(t *testing.T) {
	primary := QuarticBezierNodes{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 1},
		{X: 2, Y: 0, Z: 2},
		{X: 3, Y: 0, Z: 2.5},
		{X: 4, Y: 0, Z: 3},
	}
	secondary := QuarticBezierNodes{
		{X: 4, Y: 0, Z: 3},
		{X: 5, Y: 0, Z: 3.5},
		{X: 6, Y: 0, Z: 3},
		{X: 7, Y: 0, Z: 1},
		{X: 8, Y: 0, Z: 0},
	}

	dotEnd := QuarticBezierDot(primary, 1)
	dotStart := QuarticBezierDot(secondary, 0)

	assert.InDelta(t, dotEnd.X, dotStart.X, 0.0001)
	assert.InDelta(t, dotEnd.Z, dotStart.Z, 0.0001)
}

func TestQuarticBezierDotZeroAtStationaryEndpoints(t *testing.T) {
	nodes := QuarticBezierNodes{
		{X: 0, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 1},
		{X: 4, Y: 0, Z: 0},
		{X: 4, Y: 0, Z: 0},
	}

	start := QuarticBezierDot(nodes, 0)
	assert.InDelta(t, 0.0, start.X, 0.0001)
	assert.InDelta(t, 0.0, start.Z, 0.0001)

	end := QuarticBezierDot(nodes, 1)
	assert.InDelta(t, 0.0, end.X, 0.0001)
	assert.InDelta(t, 0.0, end.Z, 0.0001)
}
