package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReferenceScenariosPass(t *testing.T) {
	assert.Equal(t, 0, run(filepath.Join("testdata", "scenarios.json")))
}

func TestRun_MissingFile(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "missing.json")))
}

func TestRun_WrongExpectationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{
		"name": "wrong pattern",
		"lat": 41.0, "lon": 29.0, "radius": 250,
		"slope_deg": 2.0, "land_class": 50,
		"rainfall": [],
		"expect": {"system": "pinnate", "q_flow": 3.013, "diameter_mm": 862, "slope_pct": 3.49, "total_pipe_m": 750, "harvest_m3": 8247}
	}]`), 0o600))

	assert.Equal(t, 1, run(path))
}

func TestValidateScenarios_ReportsEachMismatch(t *testing.T) {
	distance := 100.0
	s := scenario{
		Name: "flat forest", Lat: 40.0, Lon: 30.0, RadiusM: 250,
		SlopeDeg: 0.5, LandClass: 10, DistanceM: &distance,
		Expect: expected{System: "dendritic"},
	}

	p := validateScenarios([]scenario{s})

	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "system = pinnate, want dendritic")
}

func TestValidateInvariants_Pass(t *testing.T) {
	scenarios, err := loadScenarios(filepath.Join("testdata", "scenarios.json"))
	require.NoError(t, err)

	assert.True(t, validateInvariants(scenarios).passed())
}
