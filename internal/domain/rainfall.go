package domain

import (
	"context"
	"errors"
	"time"

	"gonum.org/v1/gonum/floats"
)

const (
	// FallbackDailyRainMM fills the series when the archive cannot be reached.
	FallbackDailyRainMM = 50.0

	// NominalMeanRainMM replaces the mean when the archive returns no days.
	NominalMeanRainMM = 600.0

	// HarvestRunoffFactor is the share of rain assumed collectable.
	HarvestRunoffFactor = 0.7

	fallbackSeriesLen = 10

	// rainMeanDivisor is fixed at ten regardless of the series length.
	// See DESIGN.md, open question on the rainfall mean.
	rainMeanDivisor = 10
)

// RainfallWindowStart and RainfallWindowEnd bound the historical series.
var (
	RainfallWindowStart = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
	RainfallWindowEnd   = time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// ErrNoRainfallProvider is the fallback cause when no rainfall provider is configured.
var ErrNoRainfallProvider = errors.New("rainfall provider not configured")

// RainfallProvider returns daily precipitation totals in mm for the
// historical window, oldest first.
type RainfallProvider interface {
	DailyPrecipitation(ctx context.Context, lat, lon float64) ([]float64, error)
}

// FallbackRainfall is the series used when the provider fails.
func FallbackRainfall() []float64 {
	series := make([]float64, fallbackSeriesLen)
	for i := range series {
		series[i] = FallbackDailyRainMM
	}
	return series
}

// FetchRainfall queries the provider and substitutes [FallbackRainfall] on error.
// An empty series is passed through and flagged; [MeanDailyRain] handles it.
func FetchRainfall(ctx context.Context, p RainfallProvider, at Coordinate) Result[[]float64] {
	if p == nil {
		return fallback(FallbackRainfall(), FallbackUpstreamError, ErrNoRainfallProvider)
	}
	series, err := p.DailyPrecipitation(ctx, at.Lat, at.Lon)
	if err != nil {
		return fallback(FallbackRainfall(), FallbackUpstreamError, err)
	}
	if len(series) == 0 {
		return fallback([]float64{}, FallbackEmptySeries, nil)
	}
	return ok(series)
}

// MeanDailyRain divides the series total by ten. An empty series yields
// [NominalMeanRainMM].
func MeanDailyRain(series []float64) float64 {
	if len(series) == 0 {
		return NominalMeanRainMM
	}
	return floats.Sum(series) / rainMeanDivisor
}

// HarvestM3 estimates the harvestable rainwater volume for the catchment.
func HarvestM3(areaHa, meanDailyRainMM float64) float64 {
	return areaHa * meanDailyRainMM * HarvestRunoffFactor
}
