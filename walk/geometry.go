package walk

import (
	"fmt"
	"math"

	"github.com/GMDFr/syropod-highlevel-controller/config"
	"github.com/GMDFr/syropod-highlevel-controller/leg"
	"github.com/GMDFr/syropod-highlevel-controller/math3d"
)

// RowGeometry is the per-row (front/middle/rear) placement data the
// footprint init needs beyond the shared leg segment lengths: each row's
// unmirrored root offset, stance yaw and yaw sector half-width.
type RowGeometry struct {
	RootOffset           math3d.Vector3
	StanceLegYaw         float64
	YawLimitAroundStance float64
}

// Footprint is the result of §4.1's nominal footprint initialisation: the
// derived body height, the smallest stance footprint radius across all
// three rows, and each leg's identity tip position.
type Footprint struct {
	MaxBodyHeight       float64
	BodyClearance       float64
	MinFootprintRadius  float64
	StanceRadius        float64
	FootSpreadDistances [3]float64
	IdentityTipPositions map[leg.ID]math3d.Vector3
}

// InitFootprint derives the nominal stance footprint from leg geometry and
// the walk/leg_geometry configuration, following walkController.cpp's
// init() exactly: it finds, for each row, the largest circle that fits
// inside both the hip's reachable-height envelope and its yaw sector, then
// shrinks the global minimum radius if adjacent rows' discs overlap.
func InitFootprint(cfg *config.Config, rows [3]RowGeometry) (*Footprint, error) {
	g := cfg.LegGeometry
	w := cfg.Walk

	if w.StepClearance < 0 || w.StepClearance >= 1 {
		return nil, fmt.Errorf("step_clearance must be in [0,1), got %v", w.StepClearance)
	}

	minKnee := math.Max(0, g.MinKneeBend)
	maxHipDrop := math.Min(-g.MinHipLift, math.Pi/2-math.Atan2(
		g.TibiaLength*math.Sin(minKnee),
		g.FemurLength+g.TibiaLength*math.Cos(minKnee),
	))

	maxBodyHeight := g.FemurLength*math.Sin(maxHipDrop) +
		g.TibiaLength*math.Sin(maxHipDrop+clamp(math.Pi/2-maxHipDrop, minKnee, g.MaxKneeBend))

	if w.StepClearance*maxBodyHeight > 2*g.FemurLength {
		return nil, fmt.Errorf("step_clearance %.4f * max_body_height %.4f exceeds 2*femur_length %.4f: infeasible",
			w.StepClearance, maxBodyHeight, 2*g.FemurLength)
	}

	bodyClearance := w.BodyClearance
	if bodyClearance == config.BodyClearanceAuto {
		bodyClearance = g.MinLegLength/maxBodyHeight + w.StepCurvatureAllowance*w.StepClearance
	}
	if bodyClearance < 0 || bodyClearance >= 1 {
		return nil, fmt.Errorf("body_clearance must resolve to [0,1), got %.4f", bodyClearance)
	}

	footprint := &Footprint{
		MaxBodyHeight:        maxBodyHeight,
		BodyClearance:        bodyClearance,
		MinFootprintRadius:   math.Inf(1),
		IdentityTipPositions: make(map[leg.ID]math3d.Vector3, leg.LegCount),
	}

	for row := 0; row < 3; row++ {
		rad, horizontalRange, err := rowFootprintRadius(g, w, bodyClearance, maxBodyHeight, rows[row].YawLimitAroundStance)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		footprint.FootSpreadDistances[row] = g.HipLength + horizontalRange - rad
		const footprintDownscale = 0.8
		footprint.MinFootprintRadius = math.Min(footprint.MinFootprintRadius, rad*footprintDownscale)

		for _, side := range []leg.Side{leg.Left, leg.Right} {
			id := leg.ID{Side: side, Row: row}
			pos := rows[row].RootOffset.Add(math3d.Vector3{
				X: footprint.FootSpreadDistances[row] * math.Cos(rows[row].StanceLegYaw),
				Y: footprint.FootSpreadDistances[row] * math.Sin(rows[row].StanceLegYaw),
				Z: -bodyClearance * maxBodyHeight,
			})
			pos.X *= side.MirrorDir()
			footprint.IdentityTipPositions[id] = *pos
		}
	}

	minGap := math.Inf(1)
	for _, side := range []leg.Side{leg.Left, leg.Right} {
		front := footprint.IdentityTipPositions[leg.ID{Side: side, Row: 0}]
		middle := footprint.IdentityTipPositions[leg.ID{Side: side, Row: 1}]
		rear := footprint.IdentityTipPositions[leg.ID{Side: side, Row: 2}]

		minGap = math.Min(minGap, horizontalDistance(middle, front)-2*footprint.MinFootprintRadius)
		minGap = math.Min(minGap, horizontalDistance(middle, rear)-2*footprint.MinFootprintRadius)
	}
	if minGap < 0 {
		footprint.MinFootprintRadius += minGap * 0.5
	}
	if footprint.MinFootprintRadius <= 0 {
		return nil, fmt.Errorf("min_footprint_radius %.6f <= 0 after overlap correction: infeasible", footprint.MinFootprintRadius)
	}

	footprint.StanceRadius = math.Abs(footprint.IdentityTipPositions[leg.ID{Side: leg.Left, Row: 1}].X)

	return footprint, nil
}

func rowFootprintRadius(g config.LegGeometryConfig, w config.WalkConfig, bodyClearance, maxBodyHeight, yawLimit float64) (rad float64, horizontalRange float64, err error) {
	legDrop := math.Asin((bodyClearance * maxBodyHeight) / g.MaxLegLength)

	rad = math.Inf(1)
	if legDrop > -g.MinHipLift {
		extraHeight := bodyClearance*maxBodyHeight - g.FemurLength*math.Sin(-g.MinHipLift)
		if extraHeight > g.TibiaLength {
			return 0, 0, fmt.Errorf("extra_height %.4f exceeds tibia_length %.4f: infeasible", extraHeight, g.TibiaLength)
		}
		rad = math.Sqrt(g.TibiaLength*g.TibiaLength - extraHeight*extraHeight)
		horizontalRange = g.FemurLength*math.Cos(-g.MinHipLift) + rad
	} else {
		horizontalRange = math.Sqrt(g.MaxLegLength*g.MaxLegLength - bodyClearance*maxBodyHeight*bodyClearance*maxBodyHeight)
	}
	horizontalRange *= w.LegSpanScale

	cotanTheta := math.Tan(0.5*math.Pi - yawLimit)
	rad = math.Min(rad, math3d.SolveQuadratic(cotanTheta*cotanTheta, 2*horizontalRange, -horizontalRange*horizontalRange))
	if rad <= 0 {
		return 0, 0, fmt.Errorf("inscribed radius %.6f <= 0: infeasible", rad)
	}

	legTipBodyClearance := math.Max(0, bodyClearance-w.StepCurvatureAllowance*w.StepClearance) * maxBodyHeight
	if legTipBodyClearance < g.MinLegLength {
		rad = math.Min(rad, (horizontalRange-math.Sqrt(g.MinLegLength*g.MinLegLength-legTipBodyClearance*legTipBodyClearance))/2)
	}
	if rad <= 0 {
		return 0, 0, fmt.Errorf("inscribed radius %.6f <= 0 after min-leg-length reduction: infeasible", rad)
	}

	return rad, horizontalRange, nil
}

func horizontalDistance(a, b math3d.Vector3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Hypot(dx, dy)
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
