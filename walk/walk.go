// Package walk implements the Walk Controller and Leg Stepper: the global
// gait state machine and the per-leg trajectory generator it drives.
package walk

import (
	"math"

	"github.com/GMDFr/syropod-highlevel-controller/config"
	"github.com/GMDFr/syropod-highlevel-controller/leg"
	"github.com/GMDFr/syropod-highlevel-controller/math3d"
)

// State is the global walk state (§4.5).
type State int

const (
	Stopped State = iota
	Starting
	Moving
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Starting:
		return "STARTING"
	case Moving:
		return "MOVING"
	case Stopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// Sink receives tick-time warnings that must not unwind the control loop
// (§7's "reported to an observability sink but never unwind the control
// loop" policy).
type Sink interface {
	Warnf(format string, args ...interface{})
}

type nullSink struct{}

func (nullSink) Warnf(string, ...interface{}) {}

// frontLeftID is the leg singled out by §4.5/§4.6's stopping sequence: every
// other leg is admitted to correct phase as soon as it reaches swing_end with
// a zero stride, but front-left keeps advancing from there until its phase
// wraps back to 0.
var frontLeftID = leg.ID{Side: leg.Left, Row: 0}

// Controller owns every Leg Stepper and the global walk state machine.
type Controller struct {
	Config    *config.Config
	Gait      *GaitParams
	Footprint *Footprint
	Legs      map[leg.ID]*leg.Model
	Steppers  map[leg.ID]*LegStepper
	Sink      Sink

	State State

	LocalCentreVelocity     math3d.Vector2
	AngularVelocity         float64
	LocalCentreAcceleration math3d.Vector2

	LegsInCorrectPhase     int
	LegsCompletedFirstStep int

	Pose math3d.Pose
}

// NewController builds a Controller from a derived Footprint and GaitParams,
// seeding every leg's stepper at its identity tip position (§4.1's
// "legSteppers[l][s].phase = 0 ... feet start stepping naturally").
func NewController(cfg *config.Config, footprint *Footprint, gait *GaitParams, legs map[leg.ID]*leg.Model) *Controller {
	c := &Controller{
		Config:    cfg,
		Gait:      gait,
		Footprint: footprint,
		Legs:      legs,
		Steppers:  make(map[leg.ID]*LegStepper, leg.LegCount),
		Sink:      nullSink{},
		State:     Stopped,
		Pose: math3d.Pose{
			Position: math3d.Vector3{Z: footprint.BodyClearance * footprint.MaxBodyHeight},
			Rotation: math3d.IdentityQuaternion,
		},
	}

	for _, id := range leg.AllIDs() {
		pos := footprint.IdentityTipPositions[id]
		c.Steppers[id] = &LegStepper{
			LegID:              id,
			DefaultTipPosition: pos,
			CurrentTipPosition: pos,
			PhaseOffset:        gait.PhaseOffsets[id],
			StepState:          Stance,
		}
	}

	return c
}

func (c *Controller) cycleContext() *CycleContext {
	return &CycleContext{
		GaitParams:          *c.Gait,
		StepClearance:       c.Config.Walk.StepClearance,
		MaxBodyHeight:       c.Footprint.MaxBodyHeight,
		LocalCentreVelocity: c.LocalCentreVelocity,
		AngularVelocity:     c.AngularVelocity,
		TimeDelta:           c.Config.Timing.TimeDelta,
	}
}

// Tick advances the walk controller by one time_delta: it recomputes
// target velocities, evaluates the global state machine, advances every
// leg's phase and step state, derives new tip positions, composes them with
// the impedance layer's delta_z, and invokes each leg's inverse kinematics
// (§4.5-§4.8). deltaZ holds each leg's current vertical impedance
// correction, as published by the impedance controller.
func (c *Controller) Tick(normalisedVelocity math3d.Vector2, curvature float64, deltaZ map[leg.ID]float64) error {
	timeDelta := c.Config.Timing.TimeDelta
	gait := c.Gait

	onGroundRatio := float64(gait.PhaseLength-(gait.SwingEnd-gait.SwingStart)) / float64(gait.PhaseLength)

	var localVelocity math3d.Vector2
	if c.State != Stopping {
		localVelocity = normalisedVelocity.MultiplyByScalar(2 * c.Footprint.MinFootprintRadius * gait.StepFrequency / onGroundRatio)
	}

	normalSpeed := localVelocity.Magnitude()
	if normalSpeed > 1.01 {
		c.Sink.Warnf("normalised speed %.4f exceeds 1.01, clamping to 1", normalSpeed)
		normalSpeed = 1
		if localVelocity.Magnitude() > 0 {
			localVelocity = localVelocity.MultiplyByScalar(1 / localVelocity.Magnitude())
		}
	}

	oldLocalCentreVelocity := c.LocalCentreVelocity

	newAngularVelocity := curvature * normalSpeed / c.Footprint.StanceRadius
	if dif := newAngularVelocity - c.AngularVelocity; dif != 0 {
		c.AngularVelocity += dif * math.Min(1, c.Config.Walk.MaxCurvatureSpeed*timeDelta/math.Abs(dif))
	}

	centralVelocity := localVelocity.MultiplyByScalar(1 - math.Abs(curvature))
	diff := centralVelocity.Subtract(c.LocalCentreVelocity)
	if diffLength := diff.Magnitude(); diffLength > 0 {
		c.LocalCentreVelocity = c.LocalCentreVelocity.Add(diff.MultiplyByScalar(math.Min(1, c.Config.Walk.MaxAcceleration*timeDelta/diffLength)))
	}

	c.transitionState(normalSpeed)
	c.advanceLegPhases()
	c.deriveStepStates()

	ctx := c.cycleContext()
	for _, id := range leg.AllIDs() {
		stepper := c.Steppers[id]
		legModel := c.Legs[id]

		stepper.RefreshStrideVector(ctx)

		tipOffset := stepper.DefaultTipPosition.Subtract(stepper.CurrentTipPosition)
		stepper.DefaultTipPosition = legModel.TipPosition
		stepper.CurrentTipPosition = *stepper.DefaultTipPosition.Add(tipOffset.MultiplyByScalar(-1))

		stepper.UpdatePosition(ctx)

		adjusted := stepper.CurrentTipPosition
		adjusted.Z -= deltaZ[id]

		if err := legModel.InverseKinematics(adjusted); err != nil {
			c.Sink.Warnf("leg %s: %v", id, err)
		}
	}

	for _, legModel := range c.Legs {
		legModel.ClampToLimits()
	}

	c.LocalCentreAcceleration = c.LocalCentreVelocity.Subtract(oldLocalCentreVelocity).MultiplyByScalar(1 / timeDelta)
	c.Pose = c.Pose.Advance(c.LocalCentreVelocity, c.AngularVelocity, timeDelta)

	return nil
}

func (c *Controller) transitionState(normalSpeed float64) {
	switch c.State {
	case Stopped:
		if normalSpeed > 0 {
			c.State = Starting
			for _, stepper := range c.Steppers {
				stepper.Phase = stepper.PhaseOffset
			}
		}
	case Starting:
		if c.LegsInCorrectPhase == leg.LegCount && c.LegsCompletedFirstStep == leg.LegCount {
			c.LegsInCorrectPhase = 0
			c.LegsCompletedFirstStep = 0
			c.State = Moving
		}
	case Moving:
		if normalSpeed == 0 {
			c.State = Stopping
		}
	case Stopping:
		if c.LegsInCorrectPhase == leg.LegCount {
			c.LegsInCorrectPhase = 0
			c.State = Stopped
		}
	}
}

// advanceLegPhases implements §4.6: the per-leg robot-state machine that
// advances phase and tracks admission into STARTING/STOPPING.
func (c *Controller) advanceLegPhases() {
	gait := c.Gait

	for _, id := range leg.AllIDs() {
		stepper := c.Steppers[id]

		switch c.State {
		case Starting:
			if c.LegsInCorrectPhase == leg.LegCount {
				if stepper.Phase == gait.SwingEnd && !stepper.CompletedFirstStep {
					stepper.CompletedFirstStep = true
					c.LegsCompletedFirstStep++
				}
			}

			if !stepper.InCorrectPhase {
				if stepper.PhaseOffset >= gait.SwingStart && stepper.PhaseOffset < gait.SwingEnd {
					if stepper.Phase == gait.SwingEnd {
						c.LegsInCorrectPhase++
						stepper.InCorrectPhase = true
					} else {
						stepper.StepState = ForceStance
					}
				} else {
					c.LegsInCorrectPhase++
					stepper.InCorrectPhase = true
				}
			}

			stepper.Phase = (stepper.Phase + 1) % gait.PhaseLength

		case Stopping:
			if stepper.StrideVector.Magnitude() == 0 && stepper.Phase == gait.SwingEnd {
				stepper.StepState = ForceStop
				if id != frontLeftID && !stepper.InCorrectPhase {
					stepper.InCorrectPhase = true
					c.LegsInCorrectPhase++
				}
			}

			if !stepper.InCorrectPhase {
				stepper.Phase = (stepper.Phase + 1) % gait.PhaseLength

				if id == frontLeftID && stepper.StepState == ForceStop && stepper.Phase == 0 {
					stepper.InCorrectPhase = true
					c.LegsInCorrectPhase++
					stepper.StepState = Stance
				}
			}

		case Moving:
			stepper.Phase = (stepper.Phase + 1) % gait.PhaseLength
			stepper.InCorrectPhase = false

		case Stopped:
			stepper.InCorrectPhase = false
			stepper.CompletedFirstStep = false
			stepper.Phase = 0
			stepper.StepState = Stance
		}
	}
}

// deriveStepStates implements §4.7: phase-band derivation, except where a
// FORCE_STANCE/FORCE_STOP was set this tick by advanceLegPhases.
func (c *Controller) deriveStepStates() {
	gait := c.Gait

	for _, stepper := range c.Steppers {
		switch stepper.StepState {
		case ForceStance:
			stepper.StepState = Stance
		case ForceStop:
			// remains FORCE_STOP
		default:
			switch {
			case stepper.Phase >= gait.StanceEnd && stepper.Phase < gait.SwingStart:
				stepper.StepState = SwingTransition
			case stepper.Phase >= gait.SwingStart && stepper.Phase < gait.SwingEnd:
				stepper.StepState = Swing
			case stepper.Phase >= gait.SwingEnd && stepper.Phase < gait.StanceStart:
				stepper.StepState = StanceTransition
			default:
				stepper.StepState = Stance
			}
		}
	}
}
