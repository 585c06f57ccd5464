// Package domain models the hydrological sizing of a single stormwater trunk
// line for a circular catchment.
//
// # Data Sources
//
// Terrain and land cover come from Google Earth Engine: mean slope is derived
// from the SRTM 30 m DEM (USGS/SRTMGL1_003) and the modal land-cover class
// from ESA WorldCover v200, both sampled at a 10 m scale with a best-effort
// reducer. Water outlets are WorldCover class 80 ("permanent water bodies")
// pixels vectorized to centroids, or OSM water features from Overpass.
// Daily precipitation comes from the Open-Meteo archive for a fixed
// 2015-01-01..2024-12-31 window.
//
// # Land-Cover Codes
//
// WorldCover classes are integers in steps of ten: 10 tree cover,
// 20 shrubland, 30 grassland, 40 cropland, 50 built-up, 60 bare,
// 70 snow/ice, 80 water, 90 wetland, 95 mangroves, 100 moss/lichen.
// Only 50 (built-up) changes the computation; it is also the default class
// when terrain sampling fails.
//
// # Formulas
//
// Rational method, metric form:
//
//	Q = C · i · A / 360      Q in m³/s, i in mm/h, A in ha
//
// with C = 0.85 for built-up land and 0.40 otherwise, and a fixed design
// intensity i = 65 mm/h.
//
// Manning's equation solved for the diameter of a circular pipe flowing full:
//
//	D = ((4^(5/3) · n · Q) / (π · √S))^(3/8)
//
// with n = 0.013 and S = max(0.005, slope%/100). D is reported in mm.
// Runs longer than 1000 m (catchment radius plus outlet distance, strictly
// greater) get a flat 10% diameter margin.
//
// # Fallbacks
//
// Every upstream lookup degrades to a deterministic value instead of failing
// the request. [Result] carries the [FallbackReason] so callers can tell a
// fallback from real data:
//
//	Terrain:  slope 2.0°, class 50
//	Outlet:   none found  → 500 m, municipal line, 0.004° south
//	          lookup error → 350 m, regional line, 0.003° south
//	Rainfall: lookup error → ten days of 50 mm
//	          empty series → mean daily rain of 600 mm
//
// The mean daily rain divides the series total by a fixed 10, not by the
// series length. The result is only meaningful for a full record and is kept
// as-is for parity with existing reports.
package domain
