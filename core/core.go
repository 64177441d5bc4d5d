// Package core wires the Leg Model, Walk Controller and Impedance
// Controller into the single-threaded cooperative control loop described
// by the concurrency model: impedance updates, then walk state/tip
// composition and IK, every tick, with no suspension points and no locks.
package core

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/GMDFr/syropod-highlevel-controller/config"
	"github.com/GMDFr/syropod-highlevel-controller/impedance"
	"github.com/GMDFr/syropod-highlevel-controller/leg"
	"github.com/GMDFr/syropod-highlevel-controller/math3d"
	"github.com/GMDFr/syropod-highlevel-controller/walk"
)

// logrusSink adapts a logrus.FieldLogger to walk.Sink, in the teacher's
// package-scoped `var log = logrus.WithFields(...)` style.
type logrusSink struct {
	log logrus.FieldLogger
}

func (s logrusSink) Warnf(format string, args ...interface{}) {
	s.log.Warnf(format, args...)
}

// ForceSampler supplies each leg's per-tick force or effort sample. It is
// the tick-time sensor boundary the impedance controller reads from; a
// leg missing from the returned map reuses its last sample (§7).
type ForceSampler interface {
	SampleForces() map[leg.ID]float64
}

// Controller is the tick orchestrator: it owns a Walk Controller and an
// Impedance Controller and drives them in the fixed order the concurrency
// model requires.
type Controller struct {
	Config    *config.Config
	Walk      *walk.Controller
	Impedance *impedance.Controller
	Forces    ForceSampler
	log       logrus.FieldLogger
}

// New builds a Controller from a validated configuration, the derived
// footprint/gait parameters and the caller's Leg Models (one per leg.ID),
// wiring the walk and impedance controllers around them.
func New(cfg *config.Config, legs map[leg.ID]*leg.Model, footprint *walk.Footprint, gait *walk.GaitParams, forces ForceSampler) *Controller {
	log := logrus.WithFields(logrus.Fields{"pkg": "core"})

	walkController := walk.NewController(cfg, footprint, gait, legs)
	walkController.Sink = logrusSink{log: log}

	impedanceController := impedance.NewController(cfg, legs)

	log.Infof("controller initialised with %d legs, phase_length=%d", len(legs), gait.PhaseLength)

	return &Controller{
		Config:    cfg,
		Walk:      walkController,
		Impedance: impedanceController,
		Forces:    forces,
		log:       log,
	}
}

// Tick executes one control period in the order §5 mandates: impedance
// first (so delta_z reflects this tick's force sample before the walk
// layer composes tip positions with it), then the walk controller's full
// state machine, phase advance, tip computation and IK dispatch.
func (c *Controller) Tick(normalisedVelocity math3d.Vector2, curvature float64) error {
	c.Impedance.Tick(c.Walk.Legs, c.Forces.SampleForces())

	deltaZ := make(map[leg.ID]float64, leg.LegCount)
	for id, m := range c.Walk.Legs {
		deltaZ[id] = m.DeltaZ
	}

	if err := c.Walk.Tick(normalisedVelocity, curvature, deltaZ); err != nil {
		return fmt.Errorf("walk tick: %w", err)
	}

	// Runs every tick, including while STOPPED: §4.9's reset-to-base step
	// is unconditional, so a leg that exits MOVING with a load-boosted
	// stiffness doesn't keep that stale value after the gait stops.
	c.Impedance.UpdateStiffness(c.Walk)

	return nil
}

// Bringup constructs a full Controller from a config file on disk and the
// per-leg geometry the caller assembled (root offsets, stance yaws,
// actuators). It is the one place main.go-style entry points touch both
// config loading and controller construction.
func Bringup(configPath string, rows [3]walk.RowGeometry, actuators map[leg.ID]leg.Actuator, forces ForceSampler) (*Controller, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	footprint, err := walk.InitFootprint(cfg, rows)
	if err != nil {
		return nil, fmt.Errorf("init footprint: %w", err)
	}

	gaitParams, err := walk.DeriveGaitParams(cfg)
	if err != nil {
		return nil, fmt.Errorf("derive gait params: %w", err)
	}

	legs := make(map[leg.ID]*leg.Model, leg.LegCount)
	for row := 0; row < 3; row++ {
		for _, side := range []leg.Side{leg.Left, leg.Right} {
			id := leg.ID{Side: side, Row: row}

			rootOffset := rows[row].RootOffset
			rootOffset.X *= side.MirrorDir()

			stanceLegYaw := rows[row].StanceLegYaw
			if side == leg.Left {
				stanceLegYaw = math.Pi - stanceLegYaw
			}

			geometry := leg.Geometry{
				RootOffset:           rootOffset,
				HipLength:            cfg.LegGeometry.HipLength,
				FemurLength:          cfg.LegGeometry.FemurLength,
				TibiaLength:          cfg.LegGeometry.TibiaLength,
				MinLegLength:         cfg.LegGeometry.MinLegLength,
				MaxLegLength:         cfg.LegGeometry.MaxLegLength,
				MinHipLift:           cfg.LegGeometry.MinHipLift,
				MaxHipLift:           cfg.LegGeometry.MaxHipLift,
				MinKneeBend:          cfg.LegGeometry.MinKneeBend,
				MaxKneeBend:          cfg.LegGeometry.MaxKneeBend,
				StanceLegYaw:         stanceLegYaw,
				YawLimitAroundStance: rows[row].YawLimitAroundStance,
			}

			var actuator leg.Actuator = leg.NullActuator{}
			if a, ok := actuators[id]; ok && a != nil {
				actuator = a
			}

			legs[id] = leg.NewModel(id, geometry, actuator)
		}
	}

	return New(cfg, legs, footprint, gaitParams, forces), nil
}
