package domain

import (
	"context"
	"errors"
	"math"
)

const (
	// DefaultSearchRadiusM bounds the search for a natural water outlet.
	DefaultSearchRadiusM = 2000.0

	LabelNaturalWater  = "Doğal Su Kütlesi (Dere/Deniz)"
	LabelMunicipalLine = "Belediye Şehir Hattı"
	LabelRegionalLine  = "Bölgesel Tahliye Hattı"

	municipalDistanceM = 500.0
	municipalShiftDeg  = 0.004
	regionalDistanceM  = 350.0
	regionalShiftDeg   = 0.003

	earthRadiusM = 6371008.8
)

var (
	// ErrNoWaterSource is the fallback cause when no water provider is configured.
	ErrNoWaterSource = errors.New("water source not configured")

	// ErrMalformedGeometry is returned for water features without finite coordinates.
	ErrMalformedGeometry = errors.New("malformed water feature geometry")
)

// WaterOutlet is the discharge point of the trunk line.
type WaterOutlet struct {
	DistanceM float64    `json:"distance_m"`
	Label     string     `json:"label"`
	Target    Coordinate `json:"target"`
}

// WaterSource lists water feature centroids within radiusM of center.
type WaterSource interface {
	WaterFeatures(ctx context.Context, center Coordinate, radiusM float64) ([]Coordinate, error)
}

// MunicipalOutlet approximates the nearest municipal line when no natural
// water is visible.
func MunicipalOutlet(center Coordinate) WaterOutlet {
	return WaterOutlet{DistanceM: municipalDistanceM, Label: LabelMunicipalLine, Target: center.South(municipalShiftDeg)}
}

// RegionalOutlet is used when the water lookup itself fails.
func RegionalOutlet(center Coordinate) WaterOutlet {
	return WaterOutlet{DistanceM: regionalDistanceM, Label: LabelRegionalLine, Target: center.South(regionalShiftDeg)}
}

// LocateOutlet finds the nearest water feature to center. It never fails:
// with no feature in range it returns [MunicipalOutlet], and on any lookup
// error it returns [RegionalOutlet].
func LocateOutlet(ctx context.Context, src WaterSource, center Coordinate, maxSearchRadiusM float64) Result[WaterOutlet] {
	if src == nil {
		return fallback(RegionalOutlet(center), FallbackUpstreamError, ErrNoWaterSource)
	}
	if maxSearchRadiusM <= 0 {
		maxSearchRadiusM = DefaultSearchRadiusM
	}

	features, err := src.WaterFeatures(ctx, center, maxSearchRadiusM)
	if err != nil {
		return fallback(RegionalOutlet(center), FallbackUpstreamError, err)
	}
	if len(features) == 0 {
		return fallback(MunicipalOutlet(center), FallbackNotFound, nil)
	}

	nearest, best := Coordinate{}, math.Inf(1)
	for _, f := range features {
		d := PlanarDistanceM(center, f)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return fallback(RegionalOutlet(center), FallbackUpstreamError, ErrMalformedGeometry)
		}
		if d < best {
			nearest, best = f, d
		}
	}

	return ok(WaterOutlet{
		DistanceM: math.Round(best*10) / 10,
		Label:     LabelNaturalWater,
		Target:    nearest,
	})
}

// PlanarDistanceM is the equirectangular distance between two points in
// meters. Within the 2 km search radius the error is far below the 100 m
// tolerance of the lookup.
func PlanarDistanceM(a, b Coordinate) float64 {
	const rad = math.Pi / 180
	meanLat := (a.Lat + b.Lat) / 2 * rad
	x := (b.Lon - a.Lon) * rad * math.Cos(meanLat)
	y := (b.Lat - a.Lat) * rad
	return math.Hypot(x, y) * earthRadiusM
}
