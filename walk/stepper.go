package walk

import (
	"github.com/GMDFr/syropod-highlevel-controller/leg"
	"github.com/GMDFr/syropod-highlevel-controller/math3d"
)

// StepState is a leg's position in its local step cycle.
type StepState int

const (
	Stance StepState = iota
	Swing
	SwingTransition
	StanceTransition
	ForceStance
	ForceStop
)

func (s StepState) String() string {
	switch s {
	case Stance:
		return "STANCE"
	case Swing:
		return "SWING"
	case SwingTransition:
		return "SWING_TRANSITION"
	case StanceTransition:
		return "STANCE_TRANSITION"
	case ForceStance:
		return "FORCE_STANCE"
	case ForceStop:
		return "FORCE_STOP"
	default:
		return "UNKNOWN"
	}
}

// CycleContext is the immutable view of the owning Controller's per-tick
// scalars that a LegStepper needs to advance its own trajectory. Passing
// this in (rather than the stepper holding a back-reference to its
// Controller) keeps ownership one-directional: Controller -> LegStepper.
type CycleContext struct {
	GaitParams
	StepClearance         float64
	MaxBodyHeight         float64
	LocalCentreVelocity   math3d.Vector2
	AngularVelocity       float64
	TimeDelta             float64
}

// LegStepper owns one leg's local stepping phase and trajectory state (§3).
type LegStepper struct {
	LegID leg.ID

	DefaultTipPosition math3d.Vector3
	CurrentTipPosition math3d.Vector3
	OriginTipPosition  math3d.Vector3
	StrideVector       math3d.Vector2

	Phase       int
	PhaseOffset int
	StepState   StepState

	InCorrectPhase     bool
	CompletedFirstStep bool
}

// RefreshStrideVector recomputes the stride vector from body velocity (§4.6,
// the stride-vector refresh that precedes the per-leg state machine each
// tick): stride = on_ground_ratio*(v_centre + ω·(y_tip,-x_tip))/step_frequency.
func (ls *LegStepper) RefreshStrideVector(ctx *CycleContext) {
	onGroundRatio := float64(ctx.PhaseLength-(ctx.SwingEnd-ctx.SwingStart)) / float64(ctx.PhaseLength)

	tipContribution := math3d.Vector2{X: ls.CurrentTipPosition.Y, Y: -ls.CurrentTipPosition.X}
	total := ctx.LocalCentreVelocity.Add(tipContribution.MultiplyByScalar(ctx.AngularVelocity))
	ls.StrideVector = total.MultiplyByScalar(onGroundRatio / ctx.GaitParams.StepFrequency)
}

// UpdatePosition advances CurrentTipPosition by one tick, dispatching to the
// swing Bézier trajectory or the stance linear trajectory depending on
// StepState (§4.3, §4.4).
func (ls *LegStepper) UpdatePosition(ctx *CycleContext) {
	switch ls.StepState {
	case Swing:
		ls.updateSwingPosition(ctx)
	case Stance, StanceTransition, SwingTransition:
		ls.updateStancePosition(ctx)
	}
}

// updateStancePosition implements §4.4: the tip is dragged backwards at
// body velocity (plus the rotational component from its own tip offset),
// z held flat at default_tip_position.Z. The source's commented-out cubic
// z modulation (§9 "Dead code in stance z trajectory") is deliberately not
// resurrected.
func (ls *LegStepper) updateStancePosition(ctx *CycleContext) {
	tipContribution := math3d.Vector2{X: ls.CurrentTipPosition.Y, Y: -ls.CurrentTipPosition.X}
	velocity := ctx.LocalCentreVelocity.Add(tipContribution.MultiplyByScalar(ctx.AngularVelocity))
	delta := velocity.MultiplyByScalar(-ctx.TimeDelta)

	ls.CurrentTipPosition.X += delta.X
	ls.CurrentTipPosition.Y += delta.Y
}

// updateSwingPosition implements §4.3's piecewise C¹ quartic Bézier swing.
func (ls *LegStepper) updateSwingPosition(ctx *CycleContext) {
	iteration := ls.Phase - ctx.SwingStart + 1
	swingLength := ctx.SwingEnd - ctx.SwingStart

	if iteration == 1 {
		ls.OriginTipPosition = ls.CurrentTipPosition
	}

	numIterations := roundToInt((float64(swingLength)/float64(ctx.PhaseLength))/(ctx.GaitParams.StepFrequency*ctx.TimeDelta)/2.0) * 2
	if numIterations <= 0 {
		numIterations = 2
	}
	deltaT := 1.0 / float64(numIterations)

	_, swingPrimary, swingSecondary := ls.buildControlPolygons(ctx)

	halfSwingIteration := numIterations / 2

	var deltaPos math3d.Vector3
	if iteration <= halfSwingIteration {
		t := float64(iteration) * deltaT * 2.0
		deltaPos = math3d.QuarticBezierDot(swingPrimary, t).MultiplyByScalar(2.0 * deltaT)
	} else {
		t := float64(iteration-halfSwingIteration) * deltaT * 2.0
		deltaPos = math3d.QuarticBezierDot(swingSecondary, t).MultiplyByScalar(2.0 * deltaT)
	}

	ls.CurrentTipPosition = *ls.CurrentTipPosition.Add(deltaPos)
}

// buildControlPolygons constructs the stance, swing-primary and
// swing-secondary quartic Bézier control polygons exactly per §4.3.
func (ls *LegStepper) buildControlPolygons(ctx *CycleContext) (stance, swingPrimary, swingSecondary math3d.QuarticBezierNodes) {
	swingHeight := ctx.StepClearance * ctx.MaxBodyHeight
	stanceDepth := swingHeight * 0.5
	strideVec := math3d.Vector3{X: ls.StrideVector.X, Y: ls.StrideVector.Y}

	def := ls.DefaultTipPosition
	origin := ls.OriginTipPosition

	stance[0] = *def.Add(strideVec.MultiplyByScalar(0.5))
	stance[4] = origin
	toZero := stance[0].Subtract(stance[4])
	stance[1] = *stance[4].Add(toZero.MultiplyByScalar(0.75))
	stance[2] = *stance[4].Add(toZero.MultiplyByScalar(0.5))
	stance[3] = *stance[4].Add(toZero.MultiplyByScalar(0.25))

	stance[0].Z = def.Z
	stance[4].Z = origin.Z
	stance[2].Z = stance[0].Z + stanceDepth
	stance[1].Z = (stance[0].Z + stance[2].Z) / 2
	stance[3].Z = (stance[4].Z + stance[2].Z) / 2

	swingPrimary[0] = stance[4]
	swingPrimary[1] = *stance[4].MultiplyByScalar(2).Add(stance[3].MultiplyByScalar(-1))
	swingPrimary[2] = swingPrimary[1]
	swingPrimary[3] = swingPrimary[1]
	swingPrimary[4] = def
	swingPrimary[4].Z = swingPrimary[0].Z + swingHeight

	swingSecondary[0] = swingPrimary[4]
	swingSecondary[1] = *swingSecondary[0].MultiplyByScalar(2).Add(swingPrimary[3].MultiplyByScalar(-1))
	swingSecondary[2] = swingSecondary[1]
	swingSecondary[3] = *stance[0].MultiplyByScalar(2).Add(stance[1].MultiplyByScalar(-1))
	swingSecondary[4] = *def.Add(strideVec.MultiplyByScalar(0.5))

	return stance, swingPrimary, swingSecondary
}
