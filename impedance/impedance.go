// Package impedance implements the per-leg compliant vertical contact
// model: a mass-spring-damper ODE integrated once per tick with fixed-step
// Runge-Kutta 4, plus the per-cycle virtual stiffness scaling that
// stiffens legs adjacent to a swinging leg.
package impedance

import (
	"math"

	"github.com/GMDFr/syropod-highlevel-controller/config"
	"github.com/GMDFr/syropod-highlevel-controller/leg"
	"github.com/GMDFr/syropod-highlevel-controller/walk"
)

// rk4Substeps is the integrator_step_time/30 fixed substep count the source
// uses for boost::numeric::odeint's integrate_const call.
const rk4Substeps = 30

// state is the leg's impedance ODE state: (z, ż).
type state struct {
	z    float64
	zDot float64
}

// derivative evaluates the mass-spring-damper ODE at x for the given
// coefficients (§4.9 step 3).
func derivative(x state, forceInput, forceGain, mass, virtualDamping, stiffness float64) state {
	return state{
		z:    x.zDot,
		zDot: -forceInput/mass*forceGain - virtualDamping/mass*x.zDot - stiffness/mass*x.z,
	}
}

func addScaled(x state, k state, h float64) state {
	return state{z: x.z + h*k.z, zDot: x.zDot + h*k.zDot}
}

// rk4Step advances x by one step of size dt under the fixed coefficients.
func rk4Step(x state, dt, forceInput, forceGain, mass, virtualDamping, stiffness float64) state {
	k1 := derivative(x, forceInput, forceGain, mass, virtualDamping, stiffness)
	k2 := derivative(addScaled(x, k1, 0.5*dt), forceInput, forceGain, mass, virtualDamping, stiffness)
	k3 := derivative(addScaled(x, k2, 0.5*dt), forceInput, forceGain, mass, virtualDamping, stiffness)
	k4 := derivative(addScaled(x, k3, dt), forceInput, forceGain, mass, virtualDamping, stiffness)

	return state{
		z:    x.z + (dt/6.0)*(k1.z+2*k2.z+2*k3.z+k4.z),
		zDot: x.zDot + (dt/6.0)*(k1.zDot+2*k2.zDot+2*k3.zDot+k4.zDot),
	}
}

// Controller owns every leg's impedance state and the force-sample cache
// that backs the "reuse last sample" sensor-gap policy (§7).
type Controller struct {
	Config *config.Config

	states    map[leg.ID]state
	lastForce map[leg.ID]float64
}

// NewController returns a Controller with every leg's impedance state at
// rest, and seeds each leg's virtual mass/stiffness/damping from config
// (impedanceController.cpp's init()).
func NewController(cfg *config.Config, legs map[leg.ID]*leg.Model) *Controller {
	c := &Controller{
		Config:    cfg,
		states:    make(map[leg.ID]state, leg.LegCount),
		lastForce: make(map[leg.ID]float64, leg.LegCount),
	}

	for _, id := range leg.AllIDs() {
		c.states[id] = state{}
		if m := legs[id]; m != nil {
			m.VirtualMass = cfg.Impedance.VirtualMass
			m.VirtualStiffness = cfg.Impedance.VirtualStiffness
			m.VirtualDamping = cfg.Impedance.VirtualDampingRatio
			m.DeltaZ = 0
		}
	}

	return c
}

// Tick integrates one control period's worth of the impedance ODE for
// every leg (§4.9 steps 1-4). forceInputs carries each leg's tip force or
// femur effort sample for this tick; a leg absent from the map reuses its
// last known sample rather than integrating against a zero it never
// measured.
func (c *Controller) Tick(legs map[leg.ID]*leg.Model, forceInputs map[leg.ID]float64) {
	imp := c.Config.Impedance
	dt := c.Config.Timing.IntegratorStepTime / rk4Substeps

	for _, id := range leg.AllIDs() {
		legModel := legs[id]
		if legModel == nil {
			continue
		}

		forceInput, ok := forceInputs[id]
		if ok {
			c.lastForce[id] = forceInput
		} else {
			forceInput = c.lastForce[id]
		}

		if imp.UseJointEffort && imp.MirrorEffortSignOrDefault() {
			forceInput *= id.Side.MirrorDir()
		}

		mass := legModel.VirtualMass
		stiffness := legModel.VirtualStiffness
		dampingRatio := legModel.VirtualDamping
		virtualDamping := dampingRatio * 2 * math.Sqrt(mass*stiffness)

		x := c.states[id]
		for step := 0; step < rk4Substeps; step++ {
			x = rk4Step(x, dt, forceInput, imp.ForceGain, mass, virtualDamping, stiffness)
		}
		c.states[id] = x

		legModel.DeltaZ = x.z
	}
}

// UpdateStiffness implements §4.9's per-cycle stiffness recomputation: reset
// every leg to the configured base, then for every leg currently in SWING,
// scale its own stiffness and additively boost both cyclically adjacent
// legs'. Overlapping swings compound additively on a doubly-adjacent leg,
// which is the point of resetting before accumulating (the source's
// comment: "allows overlapping step cycles to JOINTLY add stiffness").
//
// Adjacency is computed via leg.Index()+/-1 mod leg.LegCount using
// leg.FromIndex, fixing the source's %-on-negative bug noted in the design
// notes (Row 0's left neighbour must resolve to the last leg, not -1).
func (c *Controller) UpdateStiffness(wc *walk.Controller) {
	base := c.Config.Impedance.VirtualStiffness
	swingScaler := c.Config.Impedance.SwingStiffnessScaler
	loadScaler := c.Config.Impedance.LoadStiffnessScaler
	offsetByOne := c.Config.Impedance.CycleStiffnessOffsetByOne

	for _, id := range leg.AllIDs() {
		if m := wc.Legs[id]; m != nil {
			m.VirtualStiffness = base
		}
	}

	for _, id := range leg.AllIDs() {
		stepper := wc.Steppers[id]
		legModel := wc.Legs[id]
		if stepper == nil || legModel == nil || stepper.StepState != walk.Swing {
			continue
		}

		zDiff := stepper.CurrentTipPosition.Z - stepper.DefaultTipPosition.Z
		denom := c.Config.Walk.StepClearance * wc.Footprint.MaxBodyHeight
		stepReference := 0.0
		if denom != 0 {
			stepReference = math.Abs(zDiff / denom)
		}

		swingStiffness := base * (stepReference*(swingScaler-1) + 1)
		legModel.VirtualStiffness = swingStiffness

		loadTerm := base * (stepReference * (loadScaler - 1))
		if offsetByOne {
			loadTerm += base
		}

		idx := id.Index()
		adjacent1 := leg.FromIndex((idx + leg.LegCount - 1) % leg.LegCount)
		adjacent2 := leg.FromIndex((idx + 1) % leg.LegCount)

		if m := wc.Legs[adjacent1]; m != nil {
			m.VirtualStiffness += loadTerm
		}
		if m := wc.Legs[adjacent2]; m != nil {
			m.VirtualStiffness += loadTerm
		}
	}
}

// UpdateStiffnessForLeg is the source's other updateStiffness overload: it
// sets one leg's stiffness from a caller-supplied step_reference directly,
// and *overwrites* (not adds to) its two cyclically adjacent legs'
// stiffness, with both the swing and load terms carrying the "0->1 to
// 1->multiplier" +1 offset. Unlike UpdateStiffness it does not reset other
// legs first, so repeated calls across several swinging legs do not
// compound the way the per-cycle path's additive accumulation does.
func (c *Controller) UpdateStiffnessForLeg(legs map[leg.ID]*leg.Model, id leg.ID, stepReference float64) {
	base := c.Config.Impedance.VirtualStiffness
	swingScaler := c.Config.Impedance.SwingStiffnessScaler
	loadScaler := c.Config.Impedance.LoadStiffnessScaler

	swingStiffness := base * (stepReference*(swingScaler-1) + 1)
	loadStiffness := base * (stepReference*(loadScaler-1) + 1)

	idx := id.Index()
	adjacent1 := leg.FromIndex((idx + leg.LegCount - 1) % leg.LegCount)
	adjacent2 := leg.FromIndex((idx + 1) % leg.LegCount)

	if m := legs[id]; m != nil {
		m.VirtualStiffness = swingStiffness
	}
	if m := legs[adjacent1]; m != nil {
		m.VirtualStiffness = loadStiffness
	}
	if m := legs[adjacent2]; m != nil {
		m.VirtualStiffness = loadStiffness
	}
}
