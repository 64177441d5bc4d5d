// Package leg implements the Leg Model: per-leg geometry, forward/inverse
// kinematics, and the compliance state (virtual mass/stiffness/damping,
// delta_z) the impedance controller owns.
package leg

import (
	"fmt"
	"math"

	"github.com/GMDFr/syropod-highlevel-controller/math3d"
)

// Model is one leg: its fixed geometry, its current joint angles, its
// compliance state, and the actuator that realises joint commands. The tip
// position is mutated only via InverseKinematics, per the core's lifecycle
// rule that a leg's state is owned by whichever component ticks it.
type Model struct {
	ID       ID
	Geometry Geometry
	Actuator Actuator

	HipYaw      float64
	FemurPitch  float64
	TibiaPitch  float64
	TipPosition math3d.Vector3

	// Compliance state, owned by the impedance controller.
	VirtualMass      float64
	VirtualStiffness float64
	VirtualDamping   float64
	DeltaZ           float64
}

// NewModel returns a leg at its geometry's neutral stance pose.
func NewModel(id ID, geometry Geometry, actuator Actuator) *Model {
	m := &Model{ID: id, Geometry: geometry, Actuator: actuator}
	m.HipYaw = geometry.StanceLegYaw
	m.TipPosition = m.ForwardKinematics(m.HipYaw, 0, 0)
	return m
}

// ForwardKinematics returns the tip position, in the body frame, for the
// given joint angles (radians). hipYaw rotates around the vertical (Z) axis;
// femurPitch and tibiaPitch are measured from horizontal and from the femur
// respectively, in the vertical plane the hip yaw selects.
func (m *Model) ForwardKinematics(hipYaw, femurPitch, tibiaPitch float64) math3d.Vector3 {
	g := m.Geometry

	reach := g.HipLength + g.FemurLength*math.Cos(femurPitch) + g.TibiaLength*math.Cos(femurPitch+tibiaPitch)
	height := g.FemurLength*math.Sin(femurPitch) + g.TibiaLength*math.Sin(femurPitch+tibiaPitch)

	return math3d.Vector3{
		X: g.RootOffset.X + reach*math.Cos(hipYaw),
		Y: g.RootOffset.Y + reach*math.Sin(hipYaw),
		Z: g.RootOffset.Z + height,
	}
}

// InverseKinematics solves the joint angles that place the tip at target (the
// body-frame position produced by the walk controller's tip composition,
// already adjusted by delta_z). It is the closed-form trig solve invoked as
// the "black box" the walk layer calls with a target tip position; it does
// not attempt general-purpose multi-solution IK.
func (m *Model) InverseKinematics(target math3d.Vector3) error {
	g := m.Geometry

	local := target.Subtract(g.RootOffset)
	hipYaw := math.Atan2(local.Y, local.X)

	radial := math.Hypot(local.X, local.Y) - g.HipLength
	height := local.Z
	reach := math.Hypot(radial, height)

	if reach < g.MinLegLength || reach > g.MaxLegLength || math.IsNaN(reach) {
		return fmt.Errorf("leg %s: target %s unreachable (reach=%.4f, limits=[%.4f,%.4f])",
			m.ID, target, reach, g.MinLegLength, g.MaxLegLength)
	}

	cosKnee := (g.FemurLength*g.FemurLength + g.TibiaLength*g.TibiaLength - reach*reach) /
		(2 * g.FemurLength * g.TibiaLength)
	cosKnee = clamp(cosKnee, -1, 1)
	kneeInteriorAngle := math.Acos(cosKnee)
	tibiaPitch := kneeInteriorAngle - math.Pi

	cosBeta := (g.FemurLength*g.FemurLength + reach*reach - g.TibiaLength*g.TibiaLength) /
		(2 * g.FemurLength * reach)
	cosBeta = clamp(cosBeta, -1, 1)
	beta := math.Acos(cosBeta)
	femurPitch := math.Atan2(height, radial) + beta

	if math.IsNaN(hipYaw) || math.IsNaN(femurPitch) || math.IsNaN(tibiaPitch) {
		return fmt.Errorf("leg %s: IK produced NaN angle for target %s", m.ID, target)
	}

	m.HipYaw = hipYaw
	m.FemurPitch = femurPitch
	m.TibiaPitch = tibiaPitch
	m.TipPosition = target

	if m.Actuator != nil {
		return m.Actuator.MoveTo(hipYaw, femurPitch, tibiaPitch)
	}
	return nil
}

// ClampToLimits restricts the leg's current joint angles to its geometry's
// configured limits, without re-deriving a tip position. The walk controller
// calls this once per tick, after all six legs have updated (§4.8).
func (m *Model) ClampToLimits() {
	g := m.Geometry
	m.HipYaw = g.ClampHipYaw(m.HipYaw)
	m.FemurPitch = clamp(m.FemurPitch, -g.MaxHipLift, -g.MinHipLift)
	m.TibiaPitch = clamp(m.TibiaPitch, g.MinKneeBend, g.MaxKneeBend)
}
