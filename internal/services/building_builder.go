package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/metrics"
	"github.com/localnerve/campusgeo/internal/models"
	"github.com/localnerve/campusgeo/internal/repository"
	"github.com/localnerve/campusgeo/internal/spatial"
	"gorm.io/gorm"
)

// Node roles
const (
	NodeRoleApex   = "apex"
	NodeRoleCenter = "center"
)

// CreateBuilding persists a building and its whole graph in one transaction and
// returns the resolved tree read back from that transaction.
func (s *BuildingService) CreateBuilding(ctx context.Context, spec BuildingSpec) (*BuildingTree, error) {
	exists, err := repository.NewPlaceRepository(s.db).Exists(ctx, spec.PlaceID)
	if err != nil {
		return nil, classifyError(err)
	}
	if !exists {
		return nil, notFoundError("place %d", spec.PlaceID)
	}

	// Inline geometry is encoded and checked against the database before any write
	b := newGraphBuilder(s.readTimeout)
	if err := b.collect(spec); err != nil {
		return nil, classifyError(err)
	}
	if err := b.checkStorable(spatial.For(s.db)); err != nil {
		return nil, classifyError(err)
	}

	var tree *BuildingTree
	err = s.transaction(ctx, "create", func(ctx context.Context, tx *gorm.DB) error {
		id, err := b.bind(tx).build(ctx, spec)
		if err != nil {
			return err
		}
		tree, err = newTxResolver(tx, s.readTimeout).GetBuildingByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.BuildingsCreatedTotal.Inc()
	log.Printf("Created building %d (%q) with %d objects3d", tree.ID, tree.Name, len(tree.Objects3D))
	return tree, nil
}

// graphBuilder writes one building graph kind by kind. Inline geometry is keyed
// by its payload pointer so every reference resolves to the row created for it.
type graphBuilder struct {
	readTimeout time.Duration
	geometries  repository.GeometryRepository
	buildings   repository.BuildingRepository

	points map[*geometry.Point]*models.Point
	faces  map[*geometry.Polygon]*models.Face
	nodes  map[*geometry.Point]*models.Node

	pointRows []*models.Point
	faceRows  []*models.Face
	nodeRows  []*models.Node

	pointIDs []uint64
	faceIDs  []uint64
	nodeIDs  []uint64
}

func newGraphBuilder(readTimeout time.Duration) *graphBuilder {
	return &graphBuilder{
		readTimeout: readTimeout,
		points:      make(map[*geometry.Point]*models.Point),
		faces:       make(map[*geometry.Polygon]*models.Face),
		nodes:       make(map[*geometry.Point]*models.Node),
	}
}

// bind points the builder's repositories at a transaction
func (b *graphBuilder) bind(tx *gorm.DB) *graphBuilder {
	b.geometries = repository.NewGeometryRepository(tx)
	b.buildings = repository.NewBuildingRepository(tx, b.readTimeout)
	return b
}

// checkStorable rejects inline geometry the database cannot hold
func (b *graphBuilder) checkStorable(dialect spatial.Dialect) error {
	for i, row := range b.pointRows {
		if _, err := dialect.RenderWKT(row.Geom.WKT); err != nil {
			return fmt.Errorf("inline point %d: %w", i, err)
		}
	}
	for i, row := range b.faceRows {
		if _, err := dialect.RenderWKT(row.Geom.WKT); err != nil {
			return fmt.Errorf("inline face %d: %w", i, err)
		}
	}
	return nil
}

// build writes the collected graph. collect must have run first.
func (b *graphBuilder) build(ctx context.Context, spec BuildingSpec) (uint64, error) {
	if err := b.verifyReferences(ctx); err != nil {
		return 0, err
	}
	if err := b.insertGeometry(ctx); err != nil {
		return 0, err
	}

	building := &models.Building{
		Name:        spec.Name,
		Description: spec.Description,
		Floors:      spec.Floors,
		Image:       spec.Image,
		PlaceID:     spec.PlaceID,
	}
	if err := b.buildings.Create(ctx, building); err != nil {
		return 0, err
	}

	objects := make([]*models.Object3D, len(spec.Objects))
	for i, o := range spec.Objects {
		objects[i] = &models.Object3D{BuildingID: building.ID, ObjectType: o.ObjectType()}
	}
	if err := b.buildings.CreateObjects(ctx, objects); err != nil {
		return 0, err
	}

	var (
		meshes []*models.MeshObject
		bodies []*models.Body
		specs  []BodySpec
	)
	for i, o := range spec.Objects {
		switch o := o.(type) {
		case MeshObjectSpec:
			for _, m := range o.Meshes {
				meshes = append(meshes, &models.MeshObject{
					Object3DID: objects[i].ID,
					URL:        m.URL,
					PointID:    b.pointID(m.Point),
					Rotation:   m.Rotation,
					Scale:      m.Scale,
				})
			}
		case BodyObjectSpec:
			bodies = append(bodies, &models.Body{Object3DID: objects[i].ID, Name: o.Body.Name})
			specs = append(specs, o.Body)
		}
	}
	if err := b.buildings.CreateMeshes(ctx, meshes); err != nil {
		return 0, err
	}
	if err := b.buildings.CreateBodies(ctx, bodies); err != nil {
		return 0, err
	}
	if err := b.insertPrimitives(ctx, bodies, specs); err != nil {
		return 0, err
	}

	return building.ID, nil
}

// collect walks every reference once, queuing ids to verify and inline geometry to insert
func (b *graphBuilder) collect(spec BuildingSpec) error {
	for _, o := range spec.Objects {
		switch o := o.(type) {
		case MeshObjectSpec:
			for _, m := range o.Meshes {
				if err := b.collectPoint(m.Point); err != nil {
					return err
				}
			}
		case BodyObjectSpec:
			body := o.Body
			for _, f := range body.Frustums {
				if err := b.collectFaces(f.BaseFace, f.TopFace); err != nil {
					return err
				}
			}
			for _, p := range body.Prisms {
				if err := b.collectFaces(p.BaseFace); err != nil {
					return err
				}
			}
			for _, p := range body.Pyramids {
				if err := b.collectFaces(p.BaseFace); err != nil {
					return err
				}
				if err := b.collectNode(p.Apex, NodeRoleApex); err != nil {
					return err
				}
			}
			for _, c := range body.Cones {
				if err := b.collectNode(c.Center, NodeRoleCenter); err != nil {
					return err
				}
				if err := b.collectNode(c.Apex, NodeRoleApex); err != nil {
					return err
				}
			}
			for _, c := range body.Cylinders {
				if err := b.collectNode(c.Center, NodeRoleCenter); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *graphBuilder) collectPoint(ref PointRef) error {
	if id, ok := ref.ID(); ok {
		b.pointIDs = append(b.pointIDs, id)
		return nil
	}
	p, _ := ref.Inline()
	_, err := b.newPoint(p)
	return err
}

func (b *graphBuilder) newPoint(p *geometry.Point) (*models.Point, error) {
	if row, ok := b.points[p]; ok {
		return row, nil
	}
	row, err := repository.NewPointRow(p)
	if err != nil {
		return nil, err
	}
	b.points[p] = row
	b.pointRows = append(b.pointRows, row)
	return row, nil
}

func (b *graphBuilder) collectFaces(refs ...FaceRef) error {
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		if id, ok := ref.ID(); ok {
			b.faceIDs = append(b.faceIDs, id)
			continue
		}
		f, _ := ref.Inline()
		if _, ok := b.faces[f]; ok {
			continue
		}
		row, err := repository.NewFaceRow(f)
		if err != nil {
			return err
		}
		b.faces[f] = row
		b.faceRows = append(b.faceRows, row)
	}
	return nil
}

// collectNode queues a by-id node, or a new point plus a node naming its role
func (b *graphBuilder) collectNode(ref NodeRef, role string) error {
	if id, ok := ref.ID(); ok {
		b.nodeIDs = append(b.nodeIDs, id)
		return nil
	}
	p, _ := ref.Inline()
	if _, ok := b.nodes[p]; ok {
		return nil
	}
	point, err := b.newPoint(p)
	if err != nil {
		return err
	}
	node := &models.Node{Name: role, Point: point}
	b.nodes[p] = node
	b.nodeRows = append(b.nodeRows, node)
	return nil
}

// verifyReferences checks every by-id reference with one query per kind
func (b *graphBuilder) verifyReferences(ctx context.Context) error {
	checks := []struct {
		kind  string
		ids   []uint64
		exist func(context.Context, []uint64) (map[uint64]bool, error)
	}{
		{"point", b.pointIDs, b.geometries.ExistingPointIDs},
		{"face", b.faceIDs, b.geometries.ExistingFaceIDs},
		{"node", b.nodeIDs, b.geometries.ExistingNodeIDs},
	}
	for _, check := range checks {
		ids := repository.UniqueIDs(check.ids)
		if len(ids) == 0 {
			continue
		}
		found, err := check.exist(ctx, ids)
		if err != nil {
			return err
		}
		var missing []uint64
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return notFoundError("%s ids %v", check.kind, missing)
		}
	}
	return nil
}

// insertGeometry inserts inline points and faces, then the nodes pointing at those points
func (b *graphBuilder) insertGeometry(ctx context.Context) error {
	if err := b.geometries.CreatePoints(ctx, b.pointRows); err != nil {
		return err
	}
	if err := b.geometries.CreateFaces(ctx, b.faceRows); err != nil {
		return err
	}
	for _, node := range b.nodeRows {
		node.PointID = node.Point.ID
	}
	if err := b.geometries.CreateNodes(ctx, b.nodeRows); err != nil {
		return err
	}

	metrics.GeometryRowsCreatedTotal.WithLabelValues("point").Add(float64(len(b.pointRows)))
	metrics.GeometryRowsCreatedTotal.WithLabelValues("face").Add(float64(len(b.faceRows)))
	metrics.GeometryRowsCreatedTotal.WithLabelValues("node").Add(float64(len(b.nodeRows)))
	return nil
}

func (b *graphBuilder) insertPrimitives(ctx context.Context, bodies []*models.Body, specs []BodySpec) error {
	var (
		frustums  []*models.Frustum
		prisms    []*models.Prism
		pyramids  []*models.Pyramid
		cones     []*models.Cone
		cylinders []*models.Cylinder
	)
	for i, body := range specs {
		bodyID := bodies[i].ID
		for _, f := range body.Frustums {
			frustums = append(frustums, &models.Frustum{
				BodyID:     bodyID,
				BaseFaceID: b.faceID(f.BaseFace),
				TopFaceID:  b.optionalFaceID(f.TopFace),
			})
		}
		for _, p := range body.Prisms {
			prisms = append(prisms, &models.Prism{BodyID: bodyID, BaseFaceID: b.faceID(p.BaseFace), Height: p.Height})
		}
		for _, p := range body.Pyramids {
			pyramids = append(pyramids, &models.Pyramid{
				BodyID:     bodyID,
				BaseFaceID: b.faceID(p.BaseFace),
				ApexNodeID: b.nodeID(p.Apex),
			})
		}
		for _, c := range body.Cones {
			cones = append(cones, &models.Cone{
				BodyID:       bodyID,
				CenterNodeID: b.nodeID(c.Center),
				ApexNodeID:   b.nodeID(c.Apex),
				Radius:       c.Radius,
			})
		}
		for _, c := range body.Cylinders {
			cylinders = append(cylinders, &models.Cylinder{
				BodyID:       bodyID,
				CenterNodeID: b.nodeID(c.Center),
				Radius:       c.Radius,
				Height:       c.Height,
			})
		}
	}

	if err := b.buildings.CreateFrustums(ctx, frustums); err != nil {
		return err
	}
	if err := b.buildings.CreatePrisms(ctx, prisms); err != nil {
		return err
	}
	if err := b.buildings.CreatePyramids(ctx, pyramids); err != nil {
		return err
	}
	if err := b.buildings.CreateCones(ctx, cones); err != nil {
		return err
	}
	return b.buildings.CreateCylinders(ctx, cylinders)
}

func (b *graphBuilder) pointID(ref PointRef) uint64 {
	if id, ok := ref.ID(); ok {
		return id
	}
	p, _ := ref.Inline()
	return b.points[p].ID
}

func (b *graphBuilder) faceID(ref FaceRef) uint64 {
	if id, ok := ref.ID(); ok {
		return id
	}
	f, _ := ref.Inline()
	return b.faces[f].ID
}

func (b *graphBuilder) optionalFaceID(ref FaceRef) *uint64 {
	if ref.IsZero() {
		return nil
	}
	id := b.faceID(ref)
	return &id
}

func (b *graphBuilder) nodeID(ref NodeRef) uint64 {
	if id, ok := ref.ID(); ok {
		return id
	}
	p, _ := ref.Inline()
	return b.nodes[p].ID
}
