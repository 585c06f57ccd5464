package domain

import (
	"context"
	"errors"
	"math"
)

const (
	// UrbanLandClass is the WorldCover built-up code, used as the default
	// class when sampling fails.
	UrbanLandClass = 50

	// DefaultSlopeDeg is substituted when the slope cannot be sampled.
	DefaultSlopeDeg = 2.0

	// SampleScaleM is the native sampling resolution in meters.
	SampleScaleM = 10
)

// ErrNoTerrainSampler is the fallback cause when no geospatial provider is configured.
var ErrNoTerrainSampler = errors.New("terrain sampler not configured")

// RawTerrain is the reducer output for a catchment. Nil fields were absent
// from the provider response (e.g. no DEM coverage over open water).
type RawTerrain struct {
	SlopeMeanDeg *float64
	LandMode     *int
}

// TerrainSampler returns the mean slope and modal land-cover class over a catchment.
type TerrainSampler interface {
	SampleTerrain(ctx context.Context, c Catchment) (RawTerrain, error)
}

// TerrainSample is the terrain input of the sizing engine.
type TerrainSample struct {
	SlopeDeg  float64 `json:"slope_deg"`
	SlopePct  float64 `json:"slope_pct"`
	LandClass int     `json:"land_class"`
}

// NewTerrainSample derives the percent slope from a slope in degrees.
func NewTerrainSample(slopeDeg float64, landClass int) TerrainSample {
	return TerrainSample{
		SlopeDeg:  slopeDeg,
		SlopePct:  math.Tan(slopeDeg*math.Pi/180) * 100,
		LandClass: landClass,
	}
}

// DefaultTerrain is the terrain assumed when sampling fails.
func DefaultTerrain() TerrainSample {
	return NewTerrainSample(DefaultSlopeDeg, UrbanLandClass)
}

// SampleTerrain queries the sampler and substitutes defaults on failure.
// Missing reducer outputs are filled individually and reported as not found.
func SampleTerrain(ctx context.Context, sampler TerrainSampler, c Catchment) Result[TerrainSample] {
	if sampler == nil {
		return fallback(DefaultTerrain(), FallbackUpstreamError, ErrNoTerrainSampler)
	}

	raw, err := sampler.SampleTerrain(ctx, c)
	if err != nil {
		return fallback(DefaultTerrain(), FallbackUpstreamError, err)
	}

	slope, class := DefaultSlopeDeg, UrbanLandClass
	complete := true
	if raw.SlopeMeanDeg != nil && isFinite(*raw.SlopeMeanDeg) && *raw.SlopeMeanDeg >= 0 {
		slope = *raw.SlopeMeanDeg
	} else {
		complete = false
	}
	if raw.LandMode != nil {
		class = *raw.LandMode
	} else {
		complete = false
	}

	sample := NewTerrainSample(slope, class)
	if !complete {
		return fallback(sample, FallbackNotFound, nil)
	}
	return ok(sample)
}
