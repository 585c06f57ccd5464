package earthengine

import (
	"context"
	"fmt"
	"math"

	"github.com/couchcryptid/storm-drainage-service/internal/domain"
)

// SampleTerrain implements domain.TerrainSampler: mean slope and modal
// land-cover class over the catchment disk.
func (c *Client) SampleTerrain(ctx context.Context, catchment domain.Catchment) (domain.RawTerrain, error) {
	var stats map[string]*float64
	if err := c.compute(ctx, terrainExpression(catchment), &stats); err != nil {
		return domain.RawTerrain{}, fmt.Errorf("sample terrain: %w", err)
	}

	var raw domain.RawTerrain
	if v := stats["slope_mean"]; v != nil {
		raw.SlopeMeanDeg = v
	}
	if v := stats["land_mode"]; v != nil {
		class := int(math.Round(*v))
		raw.LandMode = &class
	}
	return raw, nil
}

// terrainExpression stacks WorldCover ("land") and SRTM slope ("slope") and
// reduces both with mean and mode, producing land_mean, land_mode,
// slope_mean and slope_mode.
func terrainExpression(c domain.Catchment) expression {
	land := rename(firstImage(worldCoverID), "land")
	slope := rename(call("Terrain.slope", map[string]node{"input": loadImage(srtmID)}), "slope")

	stacked := call("Image.addBands", map[string]node{"dstImg": land, "srcImg": slope})
	reducer := call("Reducer.combine", map[string]node{
		"reducer1":     call("Reducer.mean", nil),
		"reducer2":     call("Reducer.mode", nil),
		"sharedInputs": constant(true),
	})

	return newExpression(call("Image.reduceRegion", map[string]node{
		"image":      stacked,
		"reducer":    reducer,
		"geometry":   buffer(point(c.Center.Lat, c.Center.Lon), c.RadiusM),
		"scale":      constant(domain.SampleScaleM),
		"bestEffort": constant(true),
	}))
}
