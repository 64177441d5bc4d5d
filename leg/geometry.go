package leg

import "github.com/GMDFr/syropod-highlevel-controller/math3d"

// Geometry is the fixed shape of one leg: root offset, segment lengths,
// joint limits and stance yaw. It never changes after controller init.
type Geometry struct {
	RootOffset math3d.Vector3

	HipLength   float64
	FemurLength float64
	TibiaLength float64

	MinLegLength float64
	MaxLegLength float64

	// MinHipLift/MaxHipLift bound the femur pitch, in radians, measured from
	// horizontal; negative lifts the hip (walkController.cpp's min_hip_lift
	// convention, so max_hip_drop = -min_hip_lift).
	MinHipLift float64
	MaxHipLift float64

	// MinKneeBend/MaxKneeBend bound the tibia pitch relative to the femur,
	// in radians.
	MinKneeBend float64
	MaxKneeBend float64

	StanceLegYaw         float64
	YawLimitAroundStance float64
}

// ClampHipYaw restricts a hip yaw angle to the stance yaw sector.
func (g Geometry) ClampHipYaw(yaw float64) float64 {
	lo := g.StanceLegYaw - g.YawLimitAroundStance
	hi := g.StanceLegYaw + g.YawLimitAroundStance
	return clamp(yaw, lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
