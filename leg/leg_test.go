package leg

import (
	"math"
	"testing"

	"github.com/GMDFr/syropod-highlevel-controller/math3d"
	"github.com/stretchr/testify/assert"
)

func testGeometry() Geometry {
	return Geometry{
		RootOffset:           math3d.Vector3{X: 100, Y: 0, Z: 0},
		HipLength:            30,
		FemurLength:          100,
		TibiaLength:          85,
		MinLegLength:         50,
		MaxLegLength:         180,
		MinHipLift:           -0.6,
		MaxHipLift:           0.6,
		MinKneeBend:          0,
		MaxKneeBend:          2.2,
		StanceLegYaw:         0,
		YawLimitAroundStance: 0.9,
	}
}

func TestForwardInverseKinematicsRoundTrip(t *testing.T) {
	m := NewModel(ID{Side: Right, Row: 0}, testGeometry(), NullActuator{})

	target := m.ForwardKinematics(0.2, -0.3, 1.1)

	err := m.InverseKinematics(target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	roundTripped := m.ForwardKinematics(m.HipYaw, m.FemurPitch, m.TibiaPitch)
	assert.InDelta(t, target.X, roundTripped.X, 0.001)
	assert.InDelta(t, target.Y, roundTripped.Y, 0.001)
	assert.InDelta(t, target.Z, roundTripped.Z, 0.001)
}

func TestInverseKinematicsUnreachableTarget(t *testing.T) {
	m := NewModel(ID{Side: Left, Row: 1}, testGeometry(), NullActuator{})

	// Far outside max_leg_length.
	err := m.InverseKinematics(math3d.Vector3{X: 1000, Y: 0, Z: 0})
	assert.Error(t, err)
}

func TestClampToLimitsRestrictsHipYaw(t *testing.T) {
	m := NewModel(ID{Side: Right, Row: 2}, testGeometry(), NullActuator{})
	m.HipYaw = 5.0

	m.ClampToLimits()

	assert.LessOrEqual(t, m.HipYaw, m.Geometry.StanceLegYaw+m.Geometry.YawLimitAroundStance)
}

func TestClampToLimitsRestrictsKnee(t *testing.T) {
	m := NewModel(ID{Side: Left, Row: 0}, testGeometry(), NullActuator{})
	m.TibiaPitch = math.Pi

	m.ClampToLimits()

	assert.LessOrEqual(t, m.TibiaPitch, m.Geometry.MaxKneeBend)
}
