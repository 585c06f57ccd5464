package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// DefaultRadiusM is the catchment radius used when a request omits one.
const DefaultRadiusM = 250.0

// ErrInvalidCatchment is returned for a catchment with a non-finite center or
// a non-positive radius.
var ErrInvalidCatchment = errors.New("invalid catchment")

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// South returns the coordinate shifted deg degrees toward the south pole.
func (c Coordinate) South(deg float64) Coordinate {
	return Coordinate{Lat: c.Lat - deg, Lon: c.Lon}
}

// Catchment is the circular area draining to a single collection point.
type Catchment struct {
	Center  Coordinate `json:"center"`
	RadiusM float64    `json:"radius_m"`
}

// AreaHa returns the catchment area in hectares.
func (c Catchment) AreaHa() float64 {
	return math.Pi * c.RadiusM * c.RadiusM / 10000
}

// Validate reports whether the catchment can be analyzed.
func (c Catchment) Validate() error {
	if !isFinite(c.Center.Lat) || !isFinite(c.Center.Lon) {
		return fmt.Errorf("%w: center must be finite", ErrInvalidCatchment)
	}
	if !isFinite(c.RadiusM) || c.RadiusM <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidCatchment, c.RadiusM)
	}
	return nil
}

// ID returns a deterministic identifier for the catchment so repeated
// analyses of the same area share a key downstream.
func (c Catchment) ID() string {
	input := fmt.Sprintf("%.6f|%.6f|%g", c.Center.Lat, c.Center.Lon, c.RadiusM)
	hash := sha256.Sum256([]byte(input))
	return "catchment-" + hex.EncodeToString(hash[:8])
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
