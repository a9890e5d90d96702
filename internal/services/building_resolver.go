package services

import (
	"context"
	"errors"
	"time"

	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/models"
	"github.com/localnerve/campusgeo/internal/repository"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Resolver turns stored Object3D graphs into GeoJSON trees.
// Point and face ids are collected first and fetched in one query per kind.
type Resolver struct {
	buildings  repository.BuildingRepository
	geometries repository.GeometryRepository
	places     repository.PlaceRepository
	parallel   bool
}

// NewResolver creates a resolver on a connection. Independent fetches run concurrently.
func NewResolver(db *gorm.DB, readTimeout time.Duration) *Resolver {
	return &Resolver{
		buildings:  repository.NewBuildingRepository(db, readTimeout),
		geometries: repository.NewGeometryRepository(db),
		places:     repository.NewPlaceRepository(db),
		parallel:   true,
	}
}

// newTxResolver creates a resolver bound to a transaction. A transaction holds a
// single connection, so its fetches run one after another.
func newTxResolver(tx *gorm.DB, readTimeout time.Duration) *Resolver {
	r := NewResolver(tx, readTimeout)
	r.parallel = false
	return r
}

// GetBuildingByID loads and resolves one building
func (r *Resolver) GetBuildingByID(ctx context.Context, id uint64) (*BuildingTree, error) {
	building, err := r.buildings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("building %d", id)
		}
		return nil, err
	}

	trees, err := r.ResolveBuildings(ctx, []models.Building{*building})
	if err != nil {
		return nil, err
	}
	return trees[0], nil
}

// ResolveBuildings resolves the graphs and places of already loaded buildings, keeping their order
func (r *Resolver) ResolveBuildings(ctx context.Context, buildings []models.Building) ([]*BuildingTree, error) {
	ids := make([]uint64, 0, len(buildings))
	placeIDs := make([]uint64, 0, len(buildings))
	for _, b := range buildings {
		ids = append(ids, b.ID)
		placeIDs = append(placeIDs, b.PlaceID)
	}

	var (
		objects map[uint64][]Object3DTree
		places  map[uint64]*repository.PlaceSummary
	)
	err := r.run(ctx,
		func(ctx context.Context) error {
			stored, err := r.buildings.LoadObjects(ctx, ids)
			if err != nil {
				return err
			}
			objects, err = r.ResolveMany(ctx, stored)
			return err
		},
		func(ctx context.Context) (err error) {
			places, err = r.places.FetchByIDs(ctx, placeIDs)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	trees := make([]*BuildingTree, 0, len(buildings))
	for i := range buildings {
		b := &buildings[i]
		tree := newBuildingTree(b, places[b.PlaceID])
		if resolved, ok := objects[b.ID]; ok {
			tree.Objects3D = resolved
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

// ResolveMany resolves Object3D rows with preloaded children, grouped by building id
func (r *Resolver) ResolveMany(ctx context.Context, objects []models.Object3D) (map[uint64][]Object3DTree, error) {
	var pointIDs, faceIDs []uint64
	for i := range objects {
		o := &objects[i]
		for _, m := range o.Meshes {
			pointIDs = append(pointIDs, m.PointID)
		}
		if o.Body == nil {
			continue
		}
		for _, f := range o.Body.Frustums {
			faceIDs = append(faceIDs, f.BaseFaceID)
			if f.TopFaceID != nil {
				faceIDs = append(faceIDs, *f.TopFaceID)
			}
		}
		for _, p := range o.Body.Prisms {
			faceIDs = append(faceIDs, p.BaseFaceID)
		}
		for _, p := range o.Body.Pyramids {
			faceIDs = append(faceIDs, p.BaseFaceID)
			pointIDs = append(pointIDs, nodePointID(p.ApexNode))
		}
		for _, c := range o.Body.Cones {
			pointIDs = append(pointIDs, nodePointID(c.CenterNode), nodePointID(c.ApexNode))
		}
		for _, c := range o.Body.Cylinders {
			pointIDs = append(pointIDs, nodePointID(c.CenterNode))
		}
	}

	var (
		points map[uint64]*geometry.Point
		faces  map[uint64]*geometry.Polygon
	)
	err := r.run(ctx,
		func(ctx context.Context) (err error) {
			points, err = r.geometries.FetchPointsByIDs(ctx, pointIDs)
			return err
		},
		func(ctx context.Context) (err error) {
			faces, err = r.geometries.FetchFacesByIDs(ctx, faceIDs)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	nodePoint := func(n *models.Node) *geometry.Point {
		return points[nodePointID(n)]
	}

	result := make(map[uint64][]Object3DTree)
	for i := range objects {
		o := &objects[i]
		tree := Object3DTree{ID: o.ID, BuildingID: o.BuildingID, ObjectType: o.ObjectType}

		for _, m := range o.Meshes {
			tree.Meshes = append(tree.Meshes, MeshTree{
				ID:            m.ID,
				URL:           m.URL,
				Rotation:      m.Rotation,
				Scale:         m.Scale,
				PointID:       m.PointID,
				PointGeometry: points[m.PointID],
			})
		}

		if o.Body != nil {
			body := &BodyTree{
				ID:        o.Body.ID,
				Name:      o.Body.Name,
				Frustums:  []FrustumTree{},
				Prisms:    []PrismTree{},
				Pyramids:  []PyramidTree{},
				Cones:     []ConeTree{},
				Cylinders: []CylinderTree{},
			}
			for _, f := range o.Body.Frustums {
				ft := FrustumTree{ID: f.ID, BaseFaceID: f.BaseFaceID, TopFaceID: f.TopFaceID, BaseFaceGeometry: faces[f.BaseFaceID]}
				if f.TopFaceID != nil {
					ft.TopFaceGeometry = faces[*f.TopFaceID]
				}
				body.Frustums = append(body.Frustums, ft)
			}
			for _, p := range o.Body.Prisms {
				body.Prisms = append(body.Prisms, PrismTree{
					ID:               p.ID,
					BaseFaceID:       p.BaseFaceID,
					Height:           p.Height,
					BaseFaceGeometry: faces[p.BaseFaceID],
				})
			}
			for _, p := range o.Body.Pyramids {
				body.Pyramids = append(body.Pyramids, PyramidTree{
					ID:               p.ID,
					BaseFaceID:       p.BaseFaceID,
					ApexNodeID:       p.ApexNodeID,
					BaseFaceGeometry: faces[p.BaseFaceID],
					ApexGeometry:     nodePoint(p.ApexNode),
				})
			}
			for _, c := range o.Body.Cones {
				body.Cones = append(body.Cones, ConeTree{
					ID:             c.ID,
					CenterNodeID:   c.CenterNodeID,
					ApexNodeID:     c.ApexNodeID,
					Radius:         c.Radius,
					CenterGeometry: nodePoint(c.CenterNode),
					ApexGeometry:   nodePoint(c.ApexNode),
				})
			}
			for _, c := range o.Body.Cylinders {
				body.Cylinders = append(body.Cylinders, CylinderTree{
					ID:             c.ID,
					CenterNodeID:   c.CenterNodeID,
					Radius:         c.Radius,
					Height:         c.Height,
					CenterGeometry: nodePoint(c.CenterNode),
				})
			}
			tree.Body = body
		}

		result[o.BuildingID] = append(result[o.BuildingID], tree)
	}
	return result, nil
}

// run executes the fetches concurrently on a pool, sequentially on a transaction
func (r *Resolver) run(ctx context.Context, fns ...func(context.Context) error) error {
	if !r.parallel {
		for _, fn := range fns {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

func nodePointID(n *models.Node) uint64 {
	if n == nil {
		return 0
	}
	return n.PointID
}
