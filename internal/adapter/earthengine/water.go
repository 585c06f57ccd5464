package earthengine

import (
	"context"
	"fmt"

	"github.com/couchcryptid/storm-drainage-service/internal/domain"
)

const (
	// worldCoverWater is the WorldCover class for permanent water bodies.
	worldCoverWater = 80

	// maxWaterFeatures caps the vectors returned for one search region.
	maxWaterFeatures = 5000
)

// WaterFeatures implements domain.WaterSource: WorldCover water pixels in the
// bounding box of the search disk, vectorized to connected-region centroids.
func (c *Client) WaterFeatures(ctx context.Context, center domain.Coordinate, radiusM float64) ([]domain.Coordinate, error) {
	var fc featureCollection
	if err := c.compute(ctx, waterExpression(center, radiusM), &fc); err != nil {
		return nil, fmt.Errorf("water features: %w", err)
	}
	if len(fc.Features) >= maxWaterFeatures {
		c.logger.Warn("water features truncated at limit, nearest water may be missing",
			"lat", center.Lat, "lon", center.Lon, "radius_m", radiusM, "limit", maxWaterFeatures)
	}
	return fc.centroids()
}

func waterExpression(center domain.Coordinate, radiusM float64) expression {
	mask := call("Image.selfMask", map[string]node{
		"image": call("Image.eq", map[string]node{
			"image1": firstImage(worldCoverID),
			"image2": call("Image.constant", map[string]node{"value": constant(worldCoverWater)}),
		}),
	})

	vectors := call("Image.reduceToVectors", map[string]node{
		"image":          mask,
		"geometry":       bounds(buffer(point(center.Lat, center.Lon), radiusM)),
		"scale":          constant(domain.SampleScaleM),
		"geometryType":   constant("centroid"),
		"eightConnected": constant(true),
	})

	return newExpression(call("Collection.limit", map[string]node{
		"collection": vectors,
		"limit":      constant(maxWaterFeatures),
	}))
}

// GeoJSON subset returned for a FeatureCollection result.

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Geometry *geometry `json:"geometry"`
}

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

func (fc featureCollection) centroids() ([]domain.Coordinate, error) {
	out := make([]domain.Coordinate, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil || f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) != 2 {
			return nil, fmt.Errorf("feature %d: %w", i, domain.ErrMalformedGeometry)
		}
		out = append(out, domain.Coordinate{Lat: f.Geometry.Coordinates[1], Lon: f.Geometry.Coordinates[0]})
	}
	return out, nil
}
