package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/metrics"
	"github.com/localnerve/campusgeo/internal/repository"
	"github.com/localnerve/campusgeo/internal/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// MapQuery is a camera position. Heading is accepted for clients that send it and does not affect the result.
type MapQuery struct {
	Lat       float64
	Lon       float64
	Zoom      int
	Heading   float64
	Tilt      float64
	MinRadius *float64
	MaxRadius *float64
}

// MapResult is the ring of buildings around the camera, nearest first
type MapResult struct {
	Buildings []*BuildingTree `json:"buildings"`
	Count     int             `json:"count"`
	MinRadius float64         `json:"minRadius"`
	Radius    float64         `json:"radius"`
}

// Ring derives the [min, max] search band for a query
func (s *BuildingService) Ring(q MapQuery) (float64, float64) {
	radius := InflateForTilt(s.radii.BaseRadius(q.Zoom), q.Tilt)
	minRadius, maxRadius := 0.0, radius
	if q.MinRadius != nil {
		minRadius = *q.MinRadius
	}
	if q.MaxRadius != nil {
		maxRadius = *q.MaxRadius
	}
	return minRadius, maxRadius
}

// GetBuildingsForMap returns every building whose nearest geometry lies within the query ring,
// with resolved trees and distances.
func (s *BuildingService) GetBuildingsForMap(ctx context.Context, q MapQuery) (*MapResult, error) {
	start := time.Now()

	if q.Lat < -90 || q.Lat > 90 || q.Lon < -180 || q.Lon > 180 || math.IsNaN(q.Lat) || math.IsNaN(q.Lon) {
		return nil, validationError("lat must be within [-90, 90] and lon within [-180, 180]")
	}
	minRadius, maxRadius := s.Ring(q)
	if !isFinite(minRadius) || !isFinite(maxRadius) {
		return nil, validationError("radius band must be finite")
	}
	if minRadius < 0 || maxRadius < minRadius {
		return nil, validationError("radius band [%g, %g] is invalid", minRadius, maxRadius)
	}

	distances, err := s.nearestBuildings(ctx, q.Lat, q.Lon, minRadius, maxRadius)
	if err != nil {
		return nil, classifyError(err)
	}

	result := &MapResult{Buildings: []*BuildingTree{}, MinRadius: minRadius, Radius: maxRadius}
	if len(distances) > 0 {
		ids := make([]uint64, len(distances))
		for i, d := range distances {
			ids[i] = d.BuildingID
		}

		repo := repository.NewBuildingRepository(s.db, s.readTimeout)
		buildings, err := repo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, classifyError(err)
		}
		trees, err := NewResolver(s.db, s.readTimeout).ResolveBuildings(ctx, buildings)
		if err != nil {
			return nil, classifyError(err)
		}

		byID := make(map[uint64]*BuildingTree, len(trees))
		for _, tree := range trees {
			byID[tree.ID] = tree
		}
		// A building deleted between the two queries is skipped.
		for _, d := range distances {
			if tree, ok := byID[d.BuildingID]; ok {
				distance := d.Distance
				tree.Distance = &distance
				result.Buildings = append(result.Buildings, tree)
			}
		}
	}
	result.Count = len(result.Buildings)

	metrics.RingQueryDurationMs.Observe(metrics.SinceMs(start))
	metrics.RingQueryResults.Observe(float64(result.Count))
	return result, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// nearestBuildings uses the database's spherical distance where available and
// otherwise measures the anchors in process.
func (s *BuildingService) nearestBuildings(ctx context.Context, lat, lon, minRadius, maxRadius float64) ([]repository.BuildingDistance, error) {
	repo := repository.NewBuildingRepository(s.db, s.readTimeout)
	if spatial.For(s.db).NativeDistance() {
		return repo.NearestBuildings(ctx, lat, lon, minRadius, maxRadius)
	}

	anchors, err := repo.Anchors(ctx)
	if err != nil {
		return nil, err
	}
	return RingFromAnchors(anchors, lat, lon, minRadius, maxRadius)
}

// RingFromAnchors takes each building's minimum great-circle distance over its anchors
// and keeps those within [minRadius, maxRadius], nearest first with ties by id.
func RingFromAnchors(anchors []repository.Anchor, lat, lon, minRadius, maxRadius float64) ([]repository.BuildingDistance, error) {
	center := orb.Point{lon, lat}
	nearest := make(map[uint64]float64)
	for _, a := range anchors {
		p, err := anchorPoint(a)
		if err != nil {
			return nil, fmt.Errorf("building %d anchor: %w", a.BuildingID, err)
		}
		d := geo.DistanceHaversine(center, p)
		if current, ok := nearest[a.BuildingID]; !ok || d < current {
			nearest[a.BuildingID] = d
		}
	}

	var ring []repository.BuildingDistance
	for id, d := range nearest {
		if d >= minRadius && d <= maxRadius {
			ring = append(ring, repository.BuildingDistance{BuildingID: id, Distance: d})
		}
	}
	sort.Slice(ring, func(i, j int) bool {
		if ring[i].Distance != ring[j].Distance {
			return ring[i].Distance < ring[j].Distance
		}
		return ring[i].BuildingID < ring[j].BuildingID
	})
	return ring, nil
}

// anchorPoint is a point anchor itself or a face anchor's centroid, in 2D
func anchorPoint(a repository.Anchor) (orb.Point, error) {
	g, err := geometry.Decode(a.Geom.WKT)
	if err != nil {
		return orb.Point{}, err
	}
	switch g := g.(type) {
	case *geometry.Point:
		return orb.Point{g.Coordinates[0], g.Coordinates[1]}, nil
	case *geometry.Polygon:
		c, err := geometry.Centroid(g)
		if err != nil {
			return orb.Point{}, err
		}
		return orb.Point{c.Coordinates[0], c.Coordinates[1]}, nil
	}
	return orb.Point{}, fmt.Errorf("%w: unexpected %s anchor", geometry.ErrInvalidGeometry, g.GeometryType())
}
