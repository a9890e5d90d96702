package services

import (
	"time"

	"github.com/localnerve/campusgeo/internal/geometry"
	"github.com/localnerve/campusgeo/internal/models"
	"github.com/localnerve/campusgeo/internal/repository"
)

// BuildingTree is a building with its whole Object3D graph resolved to GeoJSON
type BuildingTree struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	Floors      *int           `json:"floors"`
	Image       *string        `json:"image"`
	PlaceID     uint64         `json:"placeId"`
	Place       *PlaceTree     `json:"place,omitempty"`
	Objects3D   []Object3DTree `json:"objects3d"`
	Distance    *float64       `json:"distance,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// BuildingSummary is a listing row without the Object3D graph
type BuildingSummary struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Floors      *int       `json:"floors"`
	Image       *string    `json:"image"`
	PlaceID     uint64     `json:"placeId"`
	Place       *PlaceTree `json:"place,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type PlaceTree struct {
	ID       uint64            `json:"id"`
	Name     string            `json:"name"`
	Boundary *geometry.Polygon `json:"boundary,omitempty"`
}

type Object3DTree struct {
	ID         uint64            `json:"id"`
	BuildingID uint64            `json:"buildingId"`
	ObjectType models.ObjectType `json:"objectType"`
	Meshes     []MeshTree        `json:"meshes,omitempty"`
	Body       *BodyTree         `json:"body,omitempty"`
}

type MeshTree struct {
	ID            uint64          `json:"id"`
	URL           string          `json:"url"`
	Rotation      float64         `json:"rotation"`
	Scale         float64         `json:"scale"`
	PointID       uint64          `json:"pointId"`
	PointGeometry *geometry.Point `json:"pointGeometry"`
}

type BodyTree struct {
	ID        uint64         `json:"id"`
	Name      string         `json:"name"`
	Frustums  []FrustumTree  `json:"frustums"`
	Prisms    []PrismTree    `json:"prisms"`
	Pyramids  []PyramidTree  `json:"pyramids"`
	Cones     []ConeTree     `json:"cones"`
	Cylinders []CylinderTree `json:"cylinders"`
}

type FrustumTree struct {
	ID               uint64            `json:"id"`
	BaseFaceID       uint64            `json:"baseFaceId"`
	TopFaceID        *uint64           `json:"topFaceId"`
	BaseFaceGeometry *geometry.Polygon `json:"baseFaceGeometry"`
	TopFaceGeometry  *geometry.Polygon `json:"topFaceGeometry"`
}

type PrismTree struct {
	ID               uint64            `json:"id"`
	BaseFaceID       uint64            `json:"baseFaceId"`
	Height           float64           `json:"height"`
	BaseFaceGeometry *geometry.Polygon `json:"baseFaceGeometry"`
}

type PyramidTree struct {
	ID               uint64            `json:"id"`
	BaseFaceID       uint64            `json:"baseFaceId"`
	ApexNodeID       uint64            `json:"apexNodeId"`
	BaseFaceGeometry *geometry.Polygon `json:"baseFaceGeometry"`
	ApexGeometry     *geometry.Point   `json:"apexGeometry"`
}

type ConeTree struct {
	ID             uint64          `json:"id"`
	CenterNodeID   uint64          `json:"centerNodeId"`
	ApexNodeID     uint64          `json:"apexNodeId"`
	Radius         float64         `json:"radius"`
	CenterGeometry *geometry.Point `json:"centerGeometry"`
	ApexGeometry   *geometry.Point `json:"apexGeometry"`
}

type CylinderTree struct {
	ID             uint64          `json:"id"`
	CenterNodeID   uint64          `json:"centerNodeId"`
	Radius         float64         `json:"radius"`
	Height         float64         `json:"height"`
	CenterGeometry *geometry.Point `json:"centerGeometry"`
}

func newBuildingTree(b *models.Building, place *repository.PlaceSummary) *BuildingTree {
	return &BuildingTree{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Floors:      b.Floors,
		Image:       b.Image,
		PlaceID:     b.PlaceID,
		Place:       newPlaceTree(b, place),
		Objects3D:   []Object3DTree{},
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func newBuildingSummary(b *models.Building) BuildingSummary {
	return BuildingSummary{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Floors:      b.Floors,
		Image:       b.Image,
		PlaceID:     b.PlaceID,
		Place:       newPlaceTree(b, nil),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// newPlaceTree prefers the summary with the decoded boundary over the preloaded name-only place
func newPlaceTree(b *models.Building, place *repository.PlaceSummary) *PlaceTree {
	switch {
	case place != nil:
		return &PlaceTree{ID: place.ID, Name: place.Name, Boundary: place.Boundary}
	case b.Place != nil:
		return &PlaceTree{ID: b.Place.ID, Name: b.Place.Name}
	}
	return nil
}
