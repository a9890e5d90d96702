package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/localnerve/campusgeo/internal/metrics"
	"github.com/localnerve/campusgeo/internal/repository"
	"github.com/localnerve/campusgeo/internal/types"
	"gorm.io/gorm"
)

// Listing page size bounds
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ListQuery is one page of the building listing with its filters
type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	PlaceID   uint64
	MinFloors *int
	MaxFloors *int
}

// Pagination describes the returned page
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// BuildingList is a page of building summaries
type BuildingList struct {
	Pagination Pagination        `json:"pagination"`
	Buildings  []BuildingSummary `json:"buildings"`
}

// BuildingPatch is the PATCH /api/building/:id body. Absent fields are left unchanged.
type BuildingPatch struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Floors      *int          `json:"floors"`
	Image       *string       `json:"image"`
	PlaceID     *types.FlexID `json:"placeId" swaggertype:"integer"`
}

// ListBuildings returns one page of summaries ordered by id
func (s *BuildingService) ListBuildings(ctx context.Context, q ListQuery) (*BuildingList, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.MinFloors != nil && q.MaxFloors != nil && *q.MinFloors > *q.MaxFloors {
		return nil, validationError("minFloors must not exceed maxFloors")
	}

	repo := repository.NewBuildingRepository(s.db, s.readTimeout)
	buildings, total, err := repo.List(ctx, repository.ListFilter{
		Search:    q.Search,
		PlaceID:   q.PlaceID,
		MinFloors: q.MinFloors,
		MaxFloors: q.MaxFloors,
		Offset:    (q.Page - 1) * q.Limit,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	list := &BuildingList{
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		},
		Buildings: make([]BuildingSummary, 0, len(buildings)),
	}
	for i := range buildings {
		list.Buildings = append(list.Buildings, newBuildingSummary(&buildings[i]))
	}
	return list, nil
}

// UpdateBuilding applies a partial update and returns the resolved tree
func (s *BuildingService) UpdateBuilding(ctx context.Context, id uint64, patch BuildingPatch) (*BuildingTree, error) {
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}

	err = s.transaction(ctx, "update", func(ctx context.Context, tx *gorm.DB) error {
		repo := repository.NewBuildingRepository(tx, s.readTimeout)
		if _, err := repo.Get(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("building %d", id)
			}
			return err
		}
		if placeID, ok := fields["place_id"].(uint64); ok {
			exists, err := repository.NewPlaceRepository(tx).Exists(ctx, placeID)
			if err != nil {
				return err
			}
			if !exists {
				return notFoundError("place %d", placeID)
			}
		}
		if len(fields) == 0 {
			return nil
		}
		_, err := repo.Update(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	log.Printf("Updated building %d (%d fields)", id, len(fields))
	return s.GetBuildingByID(ctx, id)
}

func (p BuildingPatch) fields() (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, validationError("name must not be empty")
		}
		if len(name) > maxNameLength {
			return nil, validationError("name must be at most %d characters", maxNameLength)
		}
		fields["name"] = name
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Floors != nil {
		if *p.Floors < 0 {
			return nil, validationError("floors must not be negative")
		}
		fields["floors"] = *p.Floors
	}
	if p.Image != nil {
		fields["image"] = *p.Image
	}
	if p.PlaceID != nil {
		fields["place_id"] = p.PlaceID.Uint64()
	}
	return fields, nil
}

// DeleteBuilding removes the building and its Object3D subtree in one transaction.
// Points, faces and nodes stay; other owners may share them.
func (s *BuildingService) DeleteBuilding(ctx context.Context, id uint64) error {
	err := s.transaction(ctx, "delete", func(ctx context.Context, tx *gorm.DB) error {
		affected, err := repository.NewBuildingRepository(tx, s.readTimeout).Delete(ctx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return notFoundError("building %d", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	metrics.BuildingsDeletedTotal.Inc()
	log.Printf("Deleted building %d", id)
	return nil
}
