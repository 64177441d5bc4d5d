package walk

import (
	"math"
	"testing"

	"github.com/GMDFr/syropod-highlevel-controller/config"
	"github.com/GMDFr/syropod-highlevel-controller/leg"
	"github.com/GMDFr/syropod-highlevel-controller/math3d"
	"github.com/stretchr/testify/assert"
)

func testFootprintConfig() *config.Config {
	return &config.Config{
		Walk: config.WalkConfig{
			StepClearance:          0.2,
			BodyClearance:          config.BodyClearanceAuto,
			StepCurvatureAllowance: 0.1,
			LegSpanScale:           0.9,
		},
		LegGeometry: config.LegGeometryConfig{
			FemurLength:  100,
			TibiaLength:  85,
			HipLength:    30,
			MinLegLength: 50,
			MaxLegLength: 180,
			MinHipLift:   -0.3,
			MaxHipLift:   0.3,
			MinKneeBend:  0,
			MaxKneeBend:  1.5,
		},
	}
}

func testRows() [3]RowGeometry {
	return [3]RowGeometry{
		{RootOffset: math3d.Vector3{X: 80, Y: 0, Z: 0}, StanceLegYaw: 0.9, YawLimitAroundStance: 0.5},
		{RootOffset: math3d.Vector3{X: 0, Y: 0, Z: 0}, StanceLegYaw: math.Pi / 2, YawLimitAroundStance: 0.5},
		{RootOffset: math3d.Vector3{X: -80, Y: 0, Z: 0}, StanceLegYaw: math.Pi - 0.9, YawLimitAroundStance: 0.5},
	}
}

func TestInitFootprintProducesSixIdentityPositions(t *testing.T) {
	footprint, err := InitFootprint(testFootprintConfig(), testRows())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Len(t, footprint.IdentityTipPositions, leg.LegCount)
	assert.Greater(t, footprint.MinFootprintRadius, 0.0)
	assert.Greater(t, footprint.MaxBodyHeight, 0.0)
}

// Property 10: identity footprint disjointness.
func TestIdentityFootprintDisjointness(t *testing.T) {
	footprint, err := InitFootprint(testFootprintConfig(), testRows())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Direct check on the two rows most likely to be close: adjacent rows
	// on the same side.
	left0 := footprint.IdentityTipPositions[leg.ID{Side: leg.Left, Row: 0}]
	left1 := footprint.IdentityTipPositions[leg.ID{Side: leg.Left, Row: 1}]
	assert.GreaterOrEqual(t, horizontalDistance(left0, left1), 2*footprint.MinFootprintRadius-1e-6)
}

func TestInitFootprintInfeasibleStepClearance(t *testing.T) {
	cfg := testFootprintConfig()
	cfg.Walk.StepClearance = 0.999
	cfg.LegGeometry.FemurLength = 1

	_, err := InitFootprint(cfg, testRows())
	assert.Error(t, err)
}
