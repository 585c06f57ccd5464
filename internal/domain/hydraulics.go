package domain

import "math"

const (
	UrbanRunoffCoeff   = 0.85
	NaturalRunoffCoeff = 0.40

	// DesignIntensityMMH is a Gumbel-derived design storm, not recomputed
	// from the rainfall series.
	DesignIntensityMMH = 65.0

	// ManningN is the roughness of the pipe wall.
	ManningN = 0.013

	// MinPipeSlope keeps the Manning solve away from zero slope.
	MinPipeSlope = 0.005

	// LongRunThresholdM and LongRunFactor define the friction margin: runs
	// strictly longer than the threshold get a 10% larger pipe.
	LongRunThresholdM = 1000.0
	LongRunFactor     = 1.10
)

// HydraulicResult is the output of the sizing engine.
type HydraulicResult struct {
	RunoffCoeff    float64 `json:"runoff_coeff"`
	PeakFlowM3s    float64 `json:"peak_flow_m3s"`
	PipeDiameterMM float64 `json:"pipe_diameter_mm"`
	TotalLengthM   float64 `json:"total_length_m"`
	Pattern        Pattern `json:"pattern"`
}

// RunoffCoefficient returns C for a land-cover class.
func RunoffCoefficient(landClass int) float64 {
	if landClass == UrbanLandClass {
		return UrbanRunoffCoeff
	}
	return NaturalRunoffCoeff
}

// PeakFlow is the rational method Q = C·i·A/360, in m³/s for i in mm/h and A in ha.
func PeakFlow(c, intensityMMH, areaHa float64) float64 {
	return c * intensityMMH * areaHa / 360
}

// PipeSlope converts a percent slope to the m/m slope used by Manning,
// floored at MinPipeSlope.
func PipeSlope(slopePct float64) float64 {
	return math.Max(MinPipeSlope, slopePct/100)
}

// PipeDiameterMM solves Manning's equation for the diameter of a circular
// pipe carrying q m³/s flowing full at the given percent slope.
func PipeDiameterMM(q, slopePct float64) float64 {
	s := PipeSlope(slopePct)
	d := math.Pow(math.Pow(4, 5.0/3.0)*ManningN*q/(math.Pi*math.Sqrt(s)), 3.0/8.0)
	return d * 1000
}

// FrictionCorrected applies the long-run margin to a diameter.
func FrictionCorrected(diameterMM, totalLengthM float64) float64 {
	if totalLengthM > LongRunThresholdM {
		return diameterMM * LongRunFactor
	}
	return diameterMM
}

// Size runs the sizing engine for a catchment draining to an outlet
// distanceM away.
func Size(t TerrainSample, c Catchment, distanceM float64) HydraulicResult {
	coeff := RunoffCoefficient(t.LandClass)
	q := PeakFlow(coeff, DesignIntensityMMH, c.AreaHa())
	total := c.RadiusM + distanceM

	return HydraulicResult{
		RunoffCoeff:    coeff,
		PeakFlowM3s:    q,
		PipeDiameterMM: FrictionCorrected(PipeDiameterMM(q, t.SlopePct), total),
		TotalLengthM:   total,
		Pattern:        ClassifyPattern(t.SlopePct, t.LandClass),
	}
}
