package math3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolveQuadraticPositiveRoot(t *testing.T) {
	// x² - 5x + 6 = 0 -> roots 2, 3 -> expect the larger, 3.
	assert.InDelta(t, 3.0, SolveQuadratic(1, -5, 6), 0.0001)
}

func TestSolveQuadraticNegativeDiscriminant(t *testing.T) {
	assert.Equal(t, 0.0, SolveQuadratic(1, 0, 1))
}
