package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/models"
	"github.com/localnerve/campusgeo/internal/spatial"
	"gorm.io/gorm"
)

// GeometryRepository is the append-only store of points, faces and nodes.
// There is no update or delete: geometry rows are shared by many owners.
type GeometryRepository interface {
	CreatePoint(ctx context.Context, point *geometry.Point) (uint64, error)
	CreateFace(ctx context.Context, face *geometry.Polygon) (uint64, error)
	CreatePoints(ctx context.Context, points []*models.Point) error
	CreateFaces(ctx context.Context, faces []*models.Face) error
	CreateNodes(ctx context.Context, nodes []*models.Node) error
	FetchPointsByIDs(ctx context.Context, ids []uint64) (map[uint64]*geometry.Point, error)
	FetchFacesByIDs(ctx context.Context, ids []uint64) (map[uint64]*geometry.Polygon, error)
	ExistingPointIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error)
	ExistingFaceIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error)
	ExistingNodeIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error)
}

// GeometryRepositoryImpl implements GeometryRepository over GORM
type GeometryRepositoryImpl struct {
	db *gorm.DB
}

// NewGeometryRepository creates a geometry repository on a connection or transaction
func NewGeometryRepository(db *gorm.DB) *GeometryRepositoryImpl {
	return &GeometryRepositoryImpl{db: db}
}

// geometryRow is a geometry column selected as WKT
type geometryRow struct {
	ID   uint64
	Geom models.Geometry `gorm:"column:wkt"`
}

// CreatePoint inserts one point and returns its id
func (r *GeometryRepositoryImpl) CreatePoint(ctx context.Context, point *geometry.Point) (uint64, error) {
	row, err := NewPointRow(point)
	if err != nil {
		return 0, err
	}
	if err := r.CreatePoints(ctx, []*models.Point{row}); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// CreateFace inserts one face and returns its id
func (r *GeometryRepositoryImpl) CreateFace(ctx context.Context, face *geometry.Polygon) (uint64, error) {
	row, err := NewFaceRow(face)
	if err != nil {
		return 0, err
	}
	if err := r.CreateFaces(ctx, []*models.Face{row}); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// CreatePoints inserts points in one statement, filling their ids
func (r *GeometryRepositoryImpl) CreatePoints(ctx context.Context, points []*models.Point) error {
	return createBatch(ctx, r.db, points)
}

// CreateFaces inserts faces in one statement, filling their ids
func (r *GeometryRepositoryImpl) CreateFaces(ctx context.Context, faces []*models.Face) error {
	return createBatch(ctx, r.db, faces)
}

// CreateNodes inserts nodes in one statement, filling their ids
func (r *GeometryRepositoryImpl) CreateNodes(ctx context.Context, nodes []*models.Node) error {
	return createBatch(ctx, r.db, nodes)
}

// FetchPointsByIDs resolves point ids to GeoJSON. An empty id set issues no query.
func (r *GeometryRepositoryImpl) FetchPointsByIDs(ctx context.Context, ids []uint64) (map[uint64]*geometry.Point, error) {
	result := make(map[uint64]*geometry.Point)
	rows, err := r.fetch(ctx, models.Point{}.TableName(), ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		p, err := geometry.DecodePoint(row.Geom.WKT)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", row.ID, err)
		}
		result[row.ID] = p
	}
	return result, nil
}

// FetchFacesByIDs resolves face ids to GeoJSON. An empty id set issues no query.
func (r *GeometryRepositoryImpl) FetchFacesByIDs(ctx context.Context, ids []uint64) (map[uint64]*geometry.Polygon, error) {
	result := make(map[uint64]*geometry.Polygon)
	rows, err := r.fetch(ctx, models.Face{}.TableName(), ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		p, err := geometry.DecodePolygon(row.Geom.WKT)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", row.ID, err)
		}
		result[row.ID] = p
	}
	return result, nil
}

// ExistingPointIDs reports which of the ids are stored points
func (r *GeometryRepositoryImpl) ExistingPointIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	return existingIDs(ctx, r.db, &models.Point{}, ids)
}

// ExistingFaceIDs reports which of the ids are stored faces
func (r *GeometryRepositoryImpl) ExistingFaceIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	return existingIDs(ctx, r.db, &models.Face{}, ids)
}

// ExistingNodeIDs reports which of the ids are stored nodes
func (r *GeometryRepositoryImpl) ExistingNodeIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	return existingIDs(ctx, r.db, &models.Node{}, ids)
}

func (r *GeometryRepositoryImpl) fetch(ctx context.Context, table string, ids []uint64) ([]geometryRow, error) {
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []geometryRow
	err := r.db.WithContext(ctx).
		Table(table).
		Select("id, " + spatial.For(r.db).AsText("geom") + " AS wkt").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	return rows, nil
}

// NewPointRow encodes a GeoJSON point into an unsaved row
func NewPointRow(point *geometry.Point) (*models.Point, error) {
	if point == nil {
		return nil, fmt.Errorf("%w: missing point", geometry.ErrInvalidGeometry)
	}
	wkt, err := geometry.EncodePoint(point.Coordinates)
	if err != nil {
		return nil, err
	}
	return &models.Point{Geom: models.NewGeometry(wkt)}, nil
}

// NewFaceRow encodes a GeoJSON polygon into an unsaved row
func NewFaceRow(face *geometry.Polygon) (*models.Face, error) {
	if face == nil {
		return nil, fmt.Errorf("%w: missing polygon", geometry.ErrInvalidGeometry)
	}
	wkt, err := geometry.EncodeFace(face.Coordinates)
	if err != nil {
		return nil, err
	}
	return &models.Face{Geom: models.NewGeometry(wkt)}, nil
}

// UniqueIDs drops zero and duplicate ids and sorts the rest
func UniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func existingIDs(ctx context.Context, db *gorm.DB, model interface{}, ids []uint64) (map[uint64]bool, error) {
	found := make(map[uint64]bool)
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return found, nil
	}

	var existing []uint64
	if err := db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

func createBatch[T any](ctx context.Context, db *gorm.DB, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Omit(clauseAssociations).Create(&rows).Error
}
