// Package config loads and validates the scalar parameters consumed by the
// walk and impedance controllers. Parameter ingestion from any particular
// configuration source is explicitly out of scope for the core; this package
// is the one concrete implementation, loaded by core.Bringup at bring-up time.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// BodyClearanceAuto is the sentinel value for BodyClearance meaning "derive
// from min_leg_length and max_body_height at init" (§4.1 step 3).
const BodyClearanceAuto = -1.0

// MaxConfigFileBytes bounds how large a config file Load will accept, to
// avoid reading an unbounded amount of attacker- or typo-supplied YAML into
// memory before validation runs.
const MaxConfigFileBytes = 1 << 20

// TimingConfig holds the two clocks the core runs against.
type TimingConfig struct {
	TimeDelta          float64 `yaml:"time_delta"`
	IntegratorStepTime float64 `yaml:"integrator_step_time"`
}

// WalkConfig holds the Walk Controller's own scalar parameters.
type WalkConfig struct {
	StepFrequency          float64 `yaml:"step_frequency"`
	StepClearance          float64 `yaml:"step_clearance"`
	BodyClearance          float64 `yaml:"body_clearance"`
	StepCurvatureAllowance float64 `yaml:"step_curvature_allowance"`
	LegSpanScale           float64 `yaml:"leg_span_scale"`
	MaxAcceleration        float64 `yaml:"max_acceleration"`
	MaxCurvatureSpeed      float64 `yaml:"max_curvature_speed"`
}

// GaitConfig holds the tick-counted phase parameters and the per-leg offset
// multipliers used to stagger legs around the cycle.
type GaitConfig struct {
	StancePhase      int            `yaml:"stance_phase"`
	SwingPhase       int            `yaml:"swing_phase"`
	TransitionPeriod int            `yaml:"transition_period"`
	PhaseOffset      int            `yaml:"phase_offset"`
	OffsetMultiplier map[string]int `yaml:"offset_multiplier"`
}

// ImpedanceConfig holds the mass-spring-damper coefficients and the per-cycle
// stiffness-scaling parameters.
type ImpedanceConfig struct {
	VirtualMass          float64 `yaml:"virtual_mass"`
	VirtualStiffness     float64 `yaml:"virtual_stiffness"`
	VirtualDampingRatio  float64 `yaml:"virtual_damping_ratio"`
	LoadStiffnessScaler  float64 `yaml:"load_stiffness_scaler"`
	SwingStiffnessScaler float64 `yaml:"swing_stiffness_scaler"`
	ForceGain            float64 `yaml:"force_gain"`
	UseJointEffort       bool    `yaml:"use_joint_effort"`

	// MirrorEffortSign resolves Open Question (a): whether a joint-effort
	// force surrogate should be signed by the leg's mirror direction. Default
	// true (mirror_dir is applied), matching the source's femur-effort path.
	MirrorEffortSign *bool `yaml:"mirror_effort_sign"`

	// CycleStiffnessOffsetByOne resolves Open Question (b): whether the
	// per-cycle stiffness update's load term carries the same "+1" offset the
	// per-leg variant carries. Default false (the additive, no-offset form —
	// see impedance.Controller.UpdateStiffness).
	CycleStiffnessOffsetByOne bool `yaml:"cycle_stiffness_offset_by_one"`
}

// MirrorEffortSignOrDefault returns the resolved MirrorEffortSign, defaulting
// to true when unset in the source file.
func (c ImpedanceConfig) MirrorEffortSignOrDefault() bool {
	if c.MirrorEffortSign == nil {
		return true
	}
	return *c.MirrorEffortSign
}

// LegGeometryConfig holds the geometry shared by the leg model and the
// footprint-radius init in walk/geometry.go.
type LegGeometryConfig struct {
	FemurLength          float64 `yaml:"femur_length"`
	TibiaLength          float64 `yaml:"tibia_length"`
	HipLength            float64 `yaml:"hip_length"`
	MinLegLength         float64 `yaml:"min_leg_length"`
	MaxLegLength         float64 `yaml:"max_leg_length"`
	MinHipLift           float64 `yaml:"min_hip_lift"`
	MaxHipLift           float64 `yaml:"max_hip_lift"`
	MinKneeBend          float64 `yaml:"min_knee_bend"`
	MaxKneeBend          float64 `yaml:"max_knee_bend"`
	StanceLegYaw         float64 `yaml:"stance_leg_yaw"`
	YawLimitAroundStance float64 `yaml:"yaw_limit_around_stance"`
}

// Config aggregates every scalar the walk and impedance controllers consume.
type Config struct {
	Timing     TimingConfig      `yaml:"timing"`
	Walk       WalkConfig        `yaml:"walk"`
	Gait       GaitConfig        `yaml:"gait"`
	Impedance  ImpedanceConfig   `yaml:"impedance"`
	LegGeometry LegGeometryConfig `yaml:"leg_geometry"`
}

// Load reads and validates a YAML config file at path. Unknown keys are
// rejected at parse time per §9's design note ("replace the global
// ROS-style parameter blob with an explicit, validated configuration value;
// unknown keys are rejected at parse time").
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, MaxConfigFileBytes)
	}

	return Decode(f)
}

// Decode reads and validates YAML config from r.
func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration invariants that don't depend on derived
// geometry (§3, §7). The remaining infeasibility checks
// (step_clearance*max_body_height <= 2*femur_length, inscribed radius <= 0,
// extra_height > tibia_length) require max_body_height, which is only known
// after walk.InitFootprint runs, and are enforced there.
func (c *Config) Validate() error {
	if c.Timing.TimeDelta <= 0 {
		return fmt.Errorf("timing.time_delta must be > 0")
	}
	if c.Timing.IntegratorStepTime <= 0 {
		return fmt.Errorf("timing.integrator_step_time must be > 0")
	}
	if c.Walk.StepFrequency <= 0 {
		return fmt.Errorf("walk.step_frequency must be > 0")
	}
	if c.Walk.StepClearance < 0 || c.Walk.StepClearance >= 1 {
		return fmt.Errorf("walk.step_clearance must be in [0,1)")
	}
	if c.Walk.BodyClearance != BodyClearanceAuto && (c.Walk.BodyClearance < 0 || c.Walk.BodyClearance >= 1) {
		return fmt.Errorf("walk.body_clearance must be in [0,1) or %v (auto)", BodyClearanceAuto)
	}
	if c.Gait.StancePhase <= 0 || c.Gait.SwingPhase <= 0 || c.Gait.TransitionPeriod < 0 {
		return fmt.Errorf("gait.stance_phase and gait.swing_phase must be > 0, transition_period >= 0")
	}
	if c.Impedance.VirtualMass <= 0 {
		return fmt.Errorf("impedance.virtual_mass must be > 0")
	}
	if c.Impedance.VirtualStiffness <= 0 {
		return fmt.Errorf("impedance.virtual_stiffness must be > 0")
	}
	if c.Impedance.VirtualDampingRatio < 0 {
		return fmt.Errorf("impedance.virtual_damping_ratio must be >= 0")
	}
	if c.LegGeometry.FemurLength <= 0 || c.LegGeometry.TibiaLength <= 0 {
		return fmt.Errorf("leg_geometry.femur_length and tibia_length must be > 0")
	}
	if c.LegGeometry.MinLegLength <= 0 || c.LegGeometry.MaxLegLength <= c.LegGeometry.MinLegLength {
		return fmt.Errorf("leg_geometry.max_leg_length must be > min_leg_length > 0")
	}
	return nil
}
