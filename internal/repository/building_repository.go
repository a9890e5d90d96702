package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/localnerve/campusgeo/internal/models"
	"github.com/localnerve/campusgeo/internal/spatial"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const clauseAssociations = clause.Associations

// ListFilter narrows a building listing
type ListFilter struct {
	Search    string
	PlaceID   uint64
	MinFloors *int
	MaxFloors *int
	Offset    int
	Limit     int
}

// BuildingDistance is a building's minimum distance in meters to a query center
type BuildingDistance struct {
	BuildingID uint64
	Distance   float64
}

// Anchor is one piece of building geometry used for distance: a point, or a face whose centroid counts
type Anchor struct {
	BuildingID uint64
	Geom       models.Geometry `gorm:"column:geom"`
	IsFace     int
}

// BuildingRepository persists buildings and their Object3D subtrees
type BuildingRepository interface {
	Create(ctx context.Context, building *models.Building) error
	CreateObjects(ctx context.Context, objects []*models.Object3D) error
	CreateMeshes(ctx context.Context, meshes []*models.MeshObject) error
	CreateBodies(ctx context.Context, bodies []*models.Body) error
	CreateFrustums(ctx context.Context, rows []*models.Frustum) error
	CreatePrisms(ctx context.Context, rows []*models.Prism) error
	CreatePyramids(ctx context.Context, rows []*models.Pyramid) error
	CreateCones(ctx context.Context, rows []*models.Cone) error
	CreateCylinders(ctx context.Context, rows []*models.Cylinder) error
	Get(ctx context.Context, id uint64) (*models.Building, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Building, error)
	LoadObjects(ctx context.Context, buildingIDs []uint64) ([]models.Object3D, error)
	List(ctx context.Context, filter ListFilter) ([]models.Building, int64, error)
	Update(ctx context.Context, id uint64, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uint64) (int64, error)
	NearestBuildings(ctx context.Context, lat, lon, minRadius, maxRadius float64) ([]BuildingDistance, error)
	Anchors(ctx context.Context) ([]Anchor, error)
}

// BuildingRepositoryImpl implements BuildingRepository over GORM
type BuildingRepositoryImpl struct {
	db          *gorm.DB
	readTimeout time.Duration
}

// NewBuildingRepository creates a building repository on a connection or transaction.
// readTimeout bounds SELECTs on databases that accept execution time hints.
func NewBuildingRepository(db *gorm.DB, readTimeout time.Duration) *BuildingRepositoryImpl {
	return &BuildingRepositoryImpl{db: db, readTimeout: readTimeout}
}

func (r *BuildingRepositoryImpl) read(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Scopes(spatial.For(r.db).ReadHints(r.readTimeout))
}

// Create inserts the building row only
func (r *BuildingRepositoryImpl) Create(ctx context.Context, building *models.Building) error {
	return r.db.WithContext(ctx).Omit(clauseAssociations).Create(building).Error
}

// CreateObjects inserts Object3D rows, filling their ids
func (r *BuildingRepositoryImpl) CreateObjects(ctx context.Context, objects []*models.Object3D) error {
	return createBatch(ctx, r.db, objects)
}

// CreateMeshes inserts mesh rows
func (r *BuildingRepositoryImpl) CreateMeshes(ctx context.Context, meshes []*models.MeshObject) error {
	return createBatch(ctx, r.db, meshes)
}

// CreateBodies inserts body rows, filling their ids
func (r *BuildingRepositoryImpl) CreateBodies(ctx context.Context, bodies []*models.Body) error {
	return createBatch(ctx, r.db, bodies)
}

// CreateFrustums inserts frustum rows
func (r *BuildingRepositoryImpl) CreateFrustums(ctx context.Context, rows []*models.Frustum) error {
	return createBatch(ctx, r.db, rows)
}

// CreatePrisms inserts prism rows
func (r *BuildingRepositoryImpl) CreatePrisms(ctx context.Context, rows []*models.Prism) error {
	return createBatch(ctx, r.db, rows)
}

// CreatePyramids inserts pyramid rows
func (r *BuildingRepositoryImpl) CreatePyramids(ctx context.Context, rows []*models.Pyramid) error {
	return createBatch(ctx, r.db, rows)
}

// CreateCones inserts cone rows
func (r *BuildingRepositoryImpl) CreateCones(ctx context.Context, rows []*models.Cone) error {
	return createBatch(ctx, r.db, rows)
}

// CreateCylinders inserts cylinder rows
func (r *BuildingRepositoryImpl) CreateCylinders(ctx context.Context, rows []*models.Cylinder) error {
	return createBatch(ctx, r.db, rows)
}

// Get loads one building with its place name. Returns gorm.ErrRecordNotFound when absent.
func (r *BuildingRepositoryImpl) Get(ctx context.Context, id uint64) (*models.Building, error) {
	var building models.Building
	err := r.read(ctx).
		Preload("Place", selectPlaceSummary).
		First(&building, id).Error
	if err != nil {
		return nil, err
	}
	return &building, nil
}

// FindByIDs loads buildings with their place names, in no particular order
func (r *BuildingRepositoryImpl) FindByIDs(ctx context.Context, ids []uint64) ([]models.Building, error) {
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var buildings []models.Building
	err := r.read(ctx).
		Preload("Place", selectPlaceSummary).
		Where("id IN ?", ids).
		Find(&buildings).Error
	return buildings, err
}

// LoadObjects loads the Object3D trees of the buildings with every node association joined.
// Faces and points stay as ids; they are resolved in batch by the caller.
func (r *BuildingRepositoryImpl) LoadObjects(ctx context.Context, buildingIDs []uint64) ([]models.Object3D, error) {
	buildingIDs = UniqueIDs(buildingIDs)
	if len(buildingIDs) == 0 {
		return nil, nil
	}

	var objects []models.Object3D
	err := r.read(ctx).
		Preload("Meshes", orderByID).
		Preload("Body").
		Preload("Body.Frustums", orderByID).
		Preload("Body.Prisms", orderByID).
		Preload("Body.Pyramids", orderByID).
		Preload("Body.Pyramids.ApexNode").
		Preload("Body.Cones", orderByID).
		Preload("Body.Cones.CenterNode").
		Preload("Body.Cones.ApexNode").
		Preload("Body.Cylinders", orderByID).
		Preload("Body.Cylinders.CenterNode").
		Where("building_id IN ?", buildingIDs).
		Order("building_id").
		Order("id").
		Find(&objects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load objects3d: %w", err)
	}
	return objects, nil
}

// List returns one page of buildings matching the filter plus the total match count
func (r *BuildingRepositoryImpl) List(ctx context.Context, filter ListFilter) ([]models.Building, int64, error) {
	query := r.read(ctx).Model(&models.Building{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.PlaceID != 0 {
		query = query.Where("place_id = ?", filter.PlaceID)
	}
	if filter.MinFloors != nil {
		query = query.Where("floors >= ?", *filter.MinFloors)
	}
	if filter.MaxFloors != nil {
		query = query.Where("floors <= ?", *filter.MaxFloors)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var buildings []models.Building
	err := query.Session(&gorm.Session{}).
		Preload("Place", selectPlaceSummary).
		Order("id").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&buildings).Error
	if err != nil {
		return nil, 0, err
	}
	return buildings, total, nil
}

// Update applies column updates to one building and reports the rows affected
func (r *BuildingRepositoryImpl) Update(ctx context.Context, id uint64, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Building{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

// Delete removes a building and its Object3D subtree, leaving points, faces and nodes.
// The order matches the ON DELETE CASCADE constraints so it also works where they are not enforced.
// Run it inside a transaction.
func (r *BuildingRepositoryImpl) Delete(ctx context.Context, id uint64) (int64, error) {
	db := r.db.WithContext(ctx)
	objectIDs := func() *gorm.DB {
		return db.Model(&models.Object3D{}).Select("id").Where("building_id = ?", id)
	}
	bodyIDs := func() *gorm.DB {
		return db.Model(&models.Body{}).Select("id").Where("object3d_id IN (?)", objectIDs())
	}

	for _, primitive := range []interface{}{&models.Frustum{}, &models.Prism{}, &models.Pyramid{}, &models.Cone{}, &models.Cylinder{}} {
		if err := db.Where("body_id IN (?)", bodyIDs()).Delete(primitive).Error; err != nil {
			return 0, err
		}
	}
	if err := db.Where("object3d_id IN (?)", objectIDs()).Delete(&models.Body{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("object3d_id IN (?)", objectIDs()).Delete(&models.MeshObject{}).Error; err != nil {
		return 0, err
	}
	if err := db.Where("building_id = ?", id).Delete(&models.Object3D{}).Error; err != nil {
		return 0, err
	}

	result := db.Where("id = ?", id).Delete(&models.Building{})
	return result.RowsAffected, result.Error
}

// NearestBuildings runs the ring query in SQL: each building's distance is the minimum
// great-circle distance from the center to any of its anchors. Faces are measured at
// their centroid.
func (r *BuildingRepositoryImpl) NearestBuildings(ctx context.Context, lat, lon, minRadius, maxRadius float64) ([]BuildingDistance, error) {
	dialect := spatial.For(r.db)
	if !dialect.NativeDistance() {
		return nil, fmt.Errorf("ring query: %s has no spherical distance", dialect.Name())
	}
	distance := dialect.SphereDistance("a.geom", "@center")
	union := anchorUnion(
		func(column string) string { return dialect.Anchor(column, false) },
		func(column string) string { return dialect.Anchor(column, true) },
	)
	query := "SELECT a.building_id AS building_id, MIN(" + distance + ") AS distance\n" +
		"FROM (\n" + union + "\n) a\n" +
		"GROUP BY a.building_id\n" +
		"HAVING MIN(" + distance + ") BETWEEN @min AND @max\n" +
		"ORDER BY distance ASC, a.building_id ASC"

	var rows []BuildingDistance
	err := r.db.WithContext(ctx).Raw(query, map[string]interface{}{
		"center": CenterWKT(lat, lon),
		"min":    minRadius,
		"max":    maxRadius,
	}).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ring query failed: %w", err)
	}
	return rows, nil
}

// CenterWKT renders a ring center as a 2D WKT point, longitude first
func CenterWKT(lat, lon float64) string {
	return "POINT(" + strconv.FormatFloat(lon, 'f', -1, 64) + " " + strconv.FormatFloat(lat, 'f', -1, 64) + ")"
}

// Anchors lists every piece of building geometry as WKT, for databases without native distance
func (r *BuildingRepositoryImpl) Anchors(ctx context.Context) ([]Anchor, error) {
	asText := spatial.For(r.db).AsText
	query := "SELECT a.building_id AS building_id, a.geom AS geom, a.is_face AS is_face FROM (\n" +
		anchorUnion(asText, asText) + "\n) a"

	var rows []Anchor
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("anchor query failed: %w", err)
	}
	return rows, nil
}

// anchorUnion selects (building_id, geom, is_face) for every mesh point, primitive node and face-based primitive base
func anchorUnion(point, face func(column string) string) string {
	nodeAnchor := func(table, nodeColumn string) string {
		return fmt.Sprintf("SELECT o.building_id AS building_id, %s AS geom, 0 AS is_face FROM %s x "+
			"JOIN bodies b ON b.id = x.body_id "+
			"JOIN objects3d o ON o.id = b.object3d_id "+
			"JOIN nodes n ON n.id = x.%s "+
			"JOIN points p ON p.id = n.point_id", point("p.geom"), table, nodeColumn)
	}
	faceAnchor := func(table, faceColumn string) string {
		return fmt.Sprintf("SELECT o.building_id AS building_id, %s AS geom, 1 AS is_face FROM %s x "+
			"JOIN bodies b ON b.id = x.body_id "+
			"JOIN objects3d o ON o.id = b.object3d_id "+
			"JOIN faces f ON f.id = x.%s", face("f.geom"), table, faceColumn)
	}

	parts := []string{
		fmt.Sprintf("SELECT o.building_id AS building_id, %s AS geom, 0 AS is_face FROM mesh_objects m "+
			"JOIN objects3d o ON o.id = m.object3d_id "+
			"JOIN points p ON p.id = m.point_id", point("p.geom")),
		nodeAnchor("pyramids", "apex_node_id"),
		nodeAnchor("cones", "center_node_id"),
		nodeAnchor("cones", "apex_node_id"),
		nodeAnchor("cylinders", "center_node_id"),
		faceAnchor("frustums", "base_face_id"),
		faceAnchor("prisms", "base_face_id"),
		faceAnchor("pyramids", "base_face_id"),
	}
	return strings.Join(parts, "\nUNION ALL\n")
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func selectPlaceSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}
