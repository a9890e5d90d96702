package repository

import (
	"context"
	"fmt"

	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/models"
	"github.com/localnerve/campusgeo/internal/spatial"
	"gorm.io/gorm"
)

// PlaceSummary is a place with its decoded boundary
type PlaceSummary struct {
	ID       uint64
	Name     string
	Boundary *geometry.Polygon
}

// PlaceRepository reads the places that own buildings
type PlaceRepository interface {
	Exists(ctx context.Context, id uint64) (bool, error)
	FetchByIDs(ctx context.Context, ids []uint64) (map[uint64]*PlaceSummary, error)
}

// PlaceRepositoryImpl implements PlaceRepository over GORM
type PlaceRepositoryImpl struct {
	db *gorm.DB
}

// NewPlaceRepository creates a place repository on a connection or transaction
func NewPlaceRepository(db *gorm.DB) *PlaceRepositoryImpl {
	return &PlaceRepositoryImpl{db: db}
}

// Exists reports whether the place is stored
func (r *PlaceRepositoryImpl) Exists(ctx context.Context, id uint64) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Place{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FetchByIDs loads places with their boundary polygon. An empty id set issues no query.
func (r *PlaceRepositoryImpl) FetchByIDs(ctx context.Context, ids []uint64) (map[uint64]*PlaceSummary, error) {
	result := make(map[uint64]*PlaceSummary)
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return result, nil
	}

	var rows []struct {
		ID       uint64
		Name     string
		Boundary models.Geometry `gorm:"column:boundary"`
	}
	err := r.db.WithContext(ctx).
		Model(&models.Place{}).
		Select("id, name, " + spatial.For(r.db).AsText("boundary") + " AS boundary").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch places: %w", err)
	}

	for _, row := range rows {
		place := &PlaceSummary{ID: row.ID, Name: row.Name}
		if row.Boundary.Valid() {
			if place.Boundary, err = geometry.DecodePolygon(row.Boundary.WKT); err != nil {
				return nil, fmt.Errorf("place %d boundary: %w", row.ID, err)
			}
		}
		result[row.ID] = place
	}
	return result, nil
}
