package overpass

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/domain"
	"github.com/couchcryptid/storm-drainage-service/internal/observability"
	"github.com/serjvanilla/go-overpass"
)

const providerName = "overpass"

// querier is the subset of the go-overpass client used here.
type querier interface {
	Query(query string) (overpass.Result, error)
}

// WaterSource implements domain.WaterSource with OpenStreetMap water
// features served by an Overpass API endpoint.
type WaterSource struct {
	client  querier
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWaterSource creates an Overpass-backed water source.
func NewWaterSource(endpoint string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *WaterSource {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &WaterSource{
		client:  &client,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// WaterFeatures returns water nodes, and the nearest node of water ways,
// within radiusM.
func (s *WaterSource) WaterFeatures(ctx context.Context, center domain.Coordinate, radiusM float64) ([]domain.Coordinate, error) {
	start := time.Now()
	result, err := s.executeQuery(ctx, waterQuery(center, radiusM, s.timeout))
	s.metrics.ObserveUpstream(providerName, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("water features: %w", err)
	}

	features := waterPoints(result, center)
	s.logger.Debug("overpass water features", "lat", center.Lat, "lon", center.Lon, "count", len(features))
	return features, nil
}

// executeQuery runs the query while honoring ctx. The library call itself is
// bounded by the HTTP client timeout.
func (s *WaterSource) executeQuery(ctx context.Context, query string) (overpass.Result, error) {
	type outcome struct {
		result overpass.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := s.client.Query(query)
		done <- outcome{result: r, err: err}
	}()

	select {
	case <-ctx.Done():
		return overpass.Result{}, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return overpass.Result{}, fmt.Errorf("overpass query failed: %w", o.err)
		}
		return o.result, nil
	}
}

func waterQuery(center domain.Coordinate, radiusM float64, timeout time.Duration) string {
	around := fmt.Sprintf("(around:%.0f,%.6f,%.6f)", radiusM, center.Lat, center.Lon)
	return fmt.Sprintf(`
		[out:json][timeout:%d];
		(
			node["natural"="water"]%[2]s;
			way["natural"="water"]%[2]s;
			way["waterway"~"^(river|stream|canal|drain|ditch)$"]%[2]s;
			way["natural"="coastline"]%[2]s;
		);
		out body;
		>;
		out skel qt;
	`, int(math.Ceil(timeout.Seconds())), around)
}

// waterPoints keeps tagged water elements. Member nodes pulled in by the
// recursion carry no water tags and are skipped. A way is reduced to its node
// nearest center. Output is sorted by element ID for determinism.
func waterPoints(result overpass.Result, center domain.Coordinate) []domain.Coordinate {
	type element struct {
		id    int64
		coord domain.Coordinate
	}
	var elements []element

	for _, n := range result.Nodes {
		if n == nil || !isWater(n.Tags) {
			continue
		}
		elements = append(elements, element{id: n.ID, coord: domain.Coordinate{Lat: n.Lat, Lon: n.Lon}})
	}

	for _, w := range result.Ways {
		if w == nil || !isWater(w.Tags) {
			continue
		}
		nearest, ok := nearestNode(w.Nodes, center)
		if !ok {
			continue
		}
		elements = append(elements, element{id: w.ID, coord: nearest})
	}

	sort.Slice(elements, func(i, j int) bool { return elements[i].id < elements[j].id })
	out := make([]domain.Coordinate, len(elements))
	for i, e := range elements {
		out[i] = e.coord
	}
	return out
}

func nearestNode(nodes []*overpass.Node, center domain.Coordinate) (domain.Coordinate, bool) {
	var (
		best  domain.Coordinate
		bestD = math.Inf(1)
		found bool
	)
	for _, n := range nodes {
		if n == nil {
			continue
		}
		c := domain.Coordinate{Lat: n.Lat, Lon: n.Lon}
		if d := domain.PlanarDistanceM(center, c); d < bestD {
			best, bestD, found = c, d, true
		}
	}
	return best, found
}

func isWater(tags map[string]string) bool {
	if tags["natural"] == "water" || tags["natural"] == "coastline" {
		return true
	}
	_, ok := tags["waterway"]
	return ok
}
