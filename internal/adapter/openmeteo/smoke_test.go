//go:build smoke

package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Open-Meteo archive API.
// Run with: go test -tags=smoke ./internal/adapter/openmeteo/ -v -count=1

func smokeClient() *Client {
	return NewClient("https://archive-api.open-meteo.com/v1/archive", 30*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_DailyPrecipitation(t *testing.T) {
	series, err := smokeClient().DailyPrecipitation(context.Background(), 41.0, 29.0)
	require.NoError(t, err)

	// Ten years of daily values, minus any nulls.
	assert.Greater(t, len(series), 3500)
	for _, v := range series {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestSmoke_CachedProvider(t *testing.T) {
	cached := NewCachedProvider(smokeClient(), 10, time.Hour, clockwork.NewRealClock(), observability.NewMetricsForTesting())

	first, err := cached.DailyPrecipitation(context.Background(), 39.93, 32.85)
	require.NoError(t, err)
	second, err := cached.DailyPrecipitation(context.Background(), 39.93, 32.85)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
