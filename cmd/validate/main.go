// Command validate checks the offline sizing pipeline against a file of
// reference scenarios. Each scenario fixes the terrain, outlet distance and
// rainfall series that the live providers would return, so the check runs
// without network access.
//
// Usage:
//
//	go run ./cmd/validate -scenarios cmd/validate/testdata/scenarios.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/domain"
)

var analyzedAt = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// scenario is one fixed-input analysis and its expected rounded report.
type scenario struct {
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	RadiusM   float64   `json:"radius"`
	SlopeDeg  float64   `json:"slope_deg"`
	LandClass int       `json:"land_class"`
	DistanceM *float64  `json:"distance_m"` // nil means no water in range
	Rainfall  []float64 `json:"rainfall"`
	Expect    expected  `json:"expect"`
}

type expected struct {
	System     domain.Pattern `json:"system"`
	QFlow      float64        `json:"q_flow"`
	DiameterMM float64        `json:"diameter_mm"`
	SlopePct   float64        `json:"slope_pct"`
	TotalPipeM float64        `json:"total_pipe_m"`
	HarvestM3  float64        `json:"harvest_m3"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("scenarios", "", "path to reference scenarios JSON")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*path); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== Drainage Sizing Validation ===")
	fmt.Println()

	scenarios, err := loadScenarios(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load scenarios: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateScenarios(scenarios),
		validateInvariants(scenarios),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Scenarios: %d\n", len(scenarios))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadScenarios(path string) ([]scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []scenario
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", path)
	}
	return out, nil
}

func (s scenario) catchment() domain.Catchment {
	return domain.Catchment{Center: domain.Coordinate{Lat: s.Lat, Lon: s.Lon}, RadiusM: s.RadiusM}
}

func (s scenario) plan() domain.DrainagePlan {
	c := s.catchment()
	outlet := domain.MunicipalOutlet(c.Center)
	if s.DistanceM != nil {
		outlet = domain.WaterOutlet{DistanceM: *s.DistanceM, Label: domain.LabelNaturalWater, Target: c.Center}
	}
	return domain.ComposePlan(c, domain.NewTerrainSample(s.SlopeDeg, s.LandClass), outlet, s.Rainfall, analyzedAt)
}

// ── Phase 1: reference reports ──

func validateScenarios(scenarios []scenario) *phase {
	p := &phase{name: "Phase 1: Reference reports"}
	for _, s := range scenarios {
		if err := s.catchment().Validate(); err != nil {
			p.errorf("%s: %v", s.Name, err)
			continue
		}
		rep := s.plan().Report()
		if rep.System != s.Expect.System {
			p.errorf("%s: system = %s, want %s", s.Name, rep.System, s.Expect.System)
		}
		checkClose(p, s.Name, "q_flow", rep.QFlow, s.Expect.QFlow, 0.001)
		checkClose(p, s.Name, "diameter_mm", rep.DiameterMM, s.Expect.DiameterMM, 1)
		checkClose(p, s.Name, "slope_pct", rep.SlopePct, s.Expect.SlopePct, 0.01)
		checkClose(p, s.Name, "total_pipe_m", rep.Discharge.TotalPipeM, s.Expect.TotalPipeM, 0.1)
		checkClose(p, s.Name, "harvest_m3", rep.HarvestM3, s.Expect.HarvestM3, 1)
	}
	return p
}

func checkClose(p *phase, name, field string, got, want, tol float64) {
	if math.Abs(got-want) > tol {
		p.errorf("%s: %s = %v, want %v (±%v)", name, field, got, want, tol)
	}
}

// ── Phase 2: sizing invariants ──

func validateInvariants(scenarios []scenario) *phase {
	p := &phase{name: "Phase 2: Sizing invariants"}
	for _, s := range scenarios {
		plan := s.plan()
		h := plan.Hydraulics

		if h.PipeDiameterMM <= 0 || math.IsNaN(h.PipeDiameterMM) {
			p.errorf("%s: diameter %v is not positive", s.Name, h.PipeDiameterMM)
		}
		if len(plan.PipePath) != 2 || plan.PipePath[0] != plan.Catchment.Center {
			p.errorf("%s: pipe path must run from the center to the outlet", s.Name)
		}

		// Doubling the radius quadruples the area and so the peak flow.
		bigger := s
		bigger.RadiusM *= 2
		ratio := bigger.plan().Hydraulics.PeakFlowM3s / h.PeakFlowM3s
		if math.Abs(ratio-4) > 1e-9 {
			p.errorf("%s: peak flow ratio for doubled radius = %v, want 4", s.Name, ratio)
		}
	}
	return p
}
