package walk

import (
	"fmt"

	"github.com/GMDFr/syropod-highlevel-controller/config"
	"github.com/GMDFr/syropod-highlevel-controller/leg"
)

// GaitParams is the derived (quantised) phase-boundary set computed once at
// init by setGaitParams, and the per-leg phase offsets staggering legs
// around the cycle.
type GaitParams struct {
	PhaseLength  int
	StanceEnd    int
	SwingStart   int
	SwingEnd     int
	StanceStart  int
	StepFrequency float64
	PhaseOffsets map[leg.ID]int
}

// DeriveGaitParams implements §4.2: it quantises phaseLength to an integer
// multiple of the base phase so that swing/stance land on exact ticks, then
// re-derives step_frequency to match, exactly as
// WalkController::setGaitParams does.
func DeriveGaitParams(cfg *config.Config) (*GaitParams, error) {
	gait := cfg.Gait
	timeDelta := cfg.Timing.TimeDelta

	if timeDelta <= 0 {
		return nil, fmt.Errorf("time_delta must be > 0")
	}

	stanceEnd := float64(gait.StancePhase) * 0.5
	swingStart := stanceEnd + float64(gait.TransitionPeriod)
	swingEnd := swingStart + float64(gait.SwingPhase)
	stanceStart := swingEnd + float64(gait.TransitionPeriod)

	base := gait.StancePhase + gait.SwingPhase + 2*gait.TransitionPeriod
	if base <= 0 {
		return nil, fmt.Errorf("stance_phase + swing_phase + 2*transition_period must be > 0")
	}
	swingRatio := (float64(gait.SwingPhase) + float64(gait.TransitionPeriod)) / float64(base)
	if swingRatio <= 0 {
		return nil, fmt.Errorf("swing_ratio must be > 0")
	}

	stepFrequency := cfg.Walk.StepFrequency
	target := (1.0 / (2.0 * stepFrequency * timeDelta)) / (float64(base) * swingRatio)
	quantum := roundToInt(target)
	phaseLength := quantum * base

	if phaseLength <= 0 {
		return nil, fmt.Errorf("derived phase_length must be > 0")
	}
	if phaseLength%base != 0 {
		return nil, fmt.Errorf("phase_length %d is not a multiple of base %d", phaseLength, base)
	}

	stepFrequency = 1.0 / (float64(phaseLength) * timeDelta)
	normaliser := phaseLength / base

	params := &GaitParams{
		PhaseLength:   phaseLength,
		StanceEnd:     int(stanceEnd) * normaliser,
		SwingStart:    int(swingStart) * normaliser,
		SwingEnd:      int(swingEnd) * normaliser,
		StanceStart:   int(stanceStart) * normaliser,
		StepFrequency: stepFrequency,
		PhaseOffsets:  make(map[leg.ID]int, leg.LegCount),
	}

	for _, id := range leg.AllIDs() {
		multiplier := gait.OffsetMultiplier[offsetKey(id)]
		params.PhaseOffsets[id] = nonNegativeMod(gait.PhaseOffset*normaliser*multiplier, phaseLength)
	}

	return params, nil
}

func offsetKey(id leg.ID) string {
	rowName := [3]string{"front", "middle", "rear"}[id.Row]
	return rowName + "_" + id.Side.String()
}

func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}
