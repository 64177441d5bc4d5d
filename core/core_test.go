package core

import (
	"math"
	"testing"

	"github.com/GMDFr/syropod-highlevel-controller/config"
	"github.com/GMDFr/syropod-highlevel-controller/leg"
	"github.com/GMDFr/syropod-highlevel-controller/math3d"
	"github.com/GMDFr/syropod-highlevel-controller/walk"
	"github.com/stretchr/testify/assert"
)

type zeroForces struct{}

func (zeroForces) SampleForces() map[leg.ID]float64 { return nil }

func testRows() [3]walk.RowGeometry {
	return [3]walk.RowGeometry{
		{RootOffset: math3d.Vector3{X: 80}, StanceLegYaw: 0.9, YawLimitAroundStance: 0.5},
		{RootOffset: math3d.Vector3{X: 0}, StanceLegYaw: math.Pi / 2, YawLimitAroundStance: 0.5},
		{RootOffset: math3d.Vector3{X: -80}, StanceLegYaw: math.Pi - 0.9, YawLimitAroundStance: 0.5},
	}
}

func testConfigFields() *config.Config {
	return &config.Config{
		Timing: config.TimingConfig{TimeDelta: 0.02, IntegratorStepTime: 0.02},
		Walk: config.WalkConfig{
			StepFrequency:          1.0,
			StepClearance:          0.2,
			BodyClearance:          config.BodyClearanceAuto,
			StepCurvatureAllowance: 0.1,
			LegSpanScale:           0.9,
			MaxAcceleration:        10,
			MaxCurvatureSpeed:      5,
		},
		Gait: config.GaitConfig{
			StancePhase:      4,
			SwingPhase:       2,
			TransitionPeriod: 1,
			OffsetMultiplier: map[string]int{},
		},
		Impedance: config.ImpedanceConfig{
			VirtualMass:          1,
			VirtualStiffness:     100,
			VirtualDampingRatio:  0.7,
			ForceGain:            1,
			SwingStiffnessScaler: 0.1,
			LoadStiffnessScaler:  2,
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

func testController(t *testing.T) *Controller {
	t.Helper()

	cfg := testConfigFields()
	rows := testRows()

	footprint, err := walk.InitFootprint(cfg, rows)
	if err != nil {
		t.Fatalf("InitFootprint: %v", err)
	}
	gaitParams, err := walk.DeriveGaitParams(cfg)
	if err != nil {
		t.Fatalf("DeriveGaitParams: %v", err)
	}

	legs := make(map[leg.ID]*leg.Model, leg.LegCount)
	for _, id := range leg.AllIDs() {
		tip := footprint.IdentityTipPositions[id]
		geometry := leg.Geometry{
			FemurLength:          150,
			TibiaLength:          150,
			MinLegLength:         10,
			MaxLegLength:         400,
			MinHipLift:           -1.5,
			MaxHipLift:           1.5,
			MinKneeBend:          0,
			MaxKneeBend:          3.0,
			StanceLegYaw:         math.Atan2(tip.Y, tip.X),
			YawLimitAroundStance: math.Pi,
		}
		legs[id] = leg.NewModel(id, geometry, leg.NullActuator{})
		legs[id].TipPosition = tip
	}

	return New(cfg, legs, footprint, gaitParams, zeroForces{})
}

func TestTickAdvancesOdometryWhileMoving(t *testing.T) {
	c := testController(t)

	for i := 0; i < 10*c.Walk.Gait.PhaseLength; i++ {
		if err := c.Tick(math3d.Vector2{X: 1, Y: 0}, 0); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if c.Walk.State == walk.Moving {
			break
		}
	}

	assert.Equal(t, walk.Moving, c.Walk.State)

	startPose := c.Walk.Pose
	for i := 0; i < 5; i++ {
		if err := c.Tick(math3d.Vector2{X: 1, Y: 0}, 0); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	assert.NotEqual(t, startPose.Position, c.Walk.Pose.Position)
}

func TestTickStiffensAdjacentLegsDuringSwing(t *testing.T) {
	c := testController(t)

	for i := 0; i < 10*c.Walk.Gait.PhaseLength; i++ {
		if err := c.Tick(math3d.Vector2{X: 1, Y: 0}, 0); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if c.Walk.State == walk.Moving {
			break
		}
	}

	sawNonBaseStiffness := false
	base := c.Config.Impedance.VirtualStiffness
	for i := 0; i < c.Walk.Gait.PhaseLength; i++ {
		if err := c.Tick(math3d.Vector2{X: 1, Y: 0}, 0); err != nil {
			t.Fatalf("tick: %v", err)
		}
		for _, m := range c.Walk.Legs {
			if math.Abs(m.VirtualStiffness-base) > 1e-9 {
				sawNonBaseStiffness = true
			}
		}
	}

	assert.True(t, sawNonBaseStiffness, "expected some leg's stiffness to deviate from base while legs are swinging")
}

func TestTickNeverErrorsOnMissingForceSamples(t *testing.T) {
	c := testController(t)

	for i := 0; i < 20; i++ {
		if err := c.Tick(math3d.ZeroVector2, 0); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
}
