package domain

import (
	"math"
	"time"
)

// DrainagePlan is the assembled analysis of one catchment. It is built once
// per request and never mutated.
type DrainagePlan struct {
	ID              string                    `json:"id"`
	Catchment       Catchment                 `json:"catchment"`
	Terrain         TerrainSample             `json:"terrain"`
	Outlet          WaterOutlet               `json:"outlet"`
	Hydraulics      HydraulicResult           `json:"hydraulics"`
	PipePath        []Coordinate              `json:"pipe_path"`
	Description     string                    `json:"description"`
	MeanDailyRainMM float64                   `json:"mean_daily_rain_mm"`
	HarvestM3       float64                   `json:"harvest_m3"`
	Fallbacks       map[string]FallbackReason `json:"fallbacks,omitempty"`
	AnalyzedAt      time.Time                 `json:"analyzed_at"`
}

// Describe renders the one-line summary of the trunk line.
func Describe(p Pattern) string {
	return p.Title() + " desenli ana toplayıcı hattı."
}

// ComposePlan joins the sizing output with a straight center-to-outlet trunk
// path. The path is an abstraction, not a routed pipe.
func ComposePlan(c Catchment, terrain TerrainSample, outlet WaterOutlet, rainfall []float64, analyzedAt time.Time) DrainagePlan {
	hyd := Size(terrain, c, outlet.DistanceM)
	meanRain := MeanDailyRain(rainfall)

	return DrainagePlan{
		ID:              c.ID(),
		Catchment:       c,
		Terrain:         terrain,
		Outlet:          outlet,
		Hydraulics:      hyd,
		PipePath:        []Coordinate{c.Center, outlet.Target},
		Description:     Describe(hyd.Pattern),
		MeanDailyRainMM: meanRain,
		HarvestM3:       HarvestM3(c.AreaHa(), meanRain),
		AnalyzedAt:      analyzedAt,
	}
}

// Discharge describes where the trunk line empties.
type Discharge struct {
	DistanceM  float64 `json:"distance_m"`
	Target     string  `json:"target"`
	TargetLat  float64 `json:"target_lat"`
	TargetLon  float64 `json:"target_lon"`
	TotalPipeM float64 `json:"total_pipe_m"`
}

// PlanGeometry is the map-ready trunk line.
type PlanGeometry struct {
	PipePath    []Coordinate `json:"pipe_path"`
	Description string       `json:"description"`
}

// Report is the rounded, client-facing view of a plan.
type Report struct {
	System       Pattern      `json:"system"`
	QFlow        float64      `json:"q_flow"`
	DiameterMM   float64      `json:"diameter_mm"`
	SlopePct     float64      `json:"slope_pct"`
	Discharge    Discharge    `json:"discharge"`
	PlanGeometry PlanGeometry `json:"plan_geometry"`
	HarvestM3    float64      `json:"harvest_m3"`
}

// Report rounds the plan for presentation: flow to 3 decimals, diameter and
// harvest to whole units, slope to 2 decimals, pipe length to 1 decimal.
func (p DrainagePlan) Report() Report {
	return Report{
		System:     p.Hydraulics.Pattern,
		QFlow:      roundTo(p.Hydraulics.PeakFlowM3s, 3),
		DiameterMM: roundTo(p.Hydraulics.PipeDiameterMM, 0),
		SlopePct:   roundTo(p.Terrain.SlopePct, 2),
		Discharge: Discharge{
			DistanceM:  p.Outlet.DistanceM,
			Target:     p.Outlet.Label,
			TargetLat:  p.Outlet.Target.Lat,
			TargetLon:  p.Outlet.Target.Lon,
			TotalPipeM: roundTo(p.Hydraulics.TotalLengthM, 1),
		},
		PlanGeometry: PlanGeometry{
			PipePath:    p.PipePath,
			Description: p.Description,
		},
		HarvestM3: roundTo(p.HarvestM3, 0),
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
