//go:build smoke

package overpass

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/domain"
	"github.com/couchcryptid/storm-drainage-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Overpass API.
// Run with: go test -tags=smoke ./internal/adapter/overpass/ -v -count=1

func TestSmoke_WaterFeatures_Bosphorus(t *testing.T) {
	src := NewWaterSource("https://overpass-api.de/api/interpreter", 30*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())

	// Beşiktaş pier, a few hundred meters from the strait.
	center := domain.Coordinate{Lat: 41.0422, Lon: 29.0067}
	r := domain.LocateOutlet(context.Background(), src, center, domain.DefaultSearchRadiusM)

	require.NoError(t, r.Err)
	assert.False(t, r.UsedFallback())
	assert.Equal(t, domain.LabelNaturalWater, r.Value.Label)
	assert.Less(t, r.Value.DistanceM, domain.DefaultSearchRadiusM*1.5)
}
