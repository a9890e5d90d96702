package geometry

import (
	"encoding/json"
	"fmt"
)

// GeoJSON type names handled by this package
const (
	TypePoint   = "Point"
	TypePolygon = "Polygon"
)

// Geometry is a decoded GeoJSON geometry, either *Point or *Polygon
type Geometry interface {
	GeometryType() string
}

// Point is a GeoJSON Point: [lon, lat] or [lon, lat, elevation]
type Point struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Polygon is a GeoJSON Polygon. The first ring is the outer boundary.
type Polygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// NewPoint builds a GeoJSON Point from coordinates
func NewPoint(coords ...float64) *Point {
	return &Point{Type: TypePoint, Coordinates: coords}
}

// NewPolygon builds a GeoJSON Polygon from rings
func NewPolygon(rings ...[][]float64) *Polygon {
	return &Polygon{Type: TypePolygon, Coordinates: rings}
}

// GeometryType implements Geometry
func (p *Point) GeometryType() string { return TypePoint }

// GeometryType implements Geometry
func (p *Polygon) GeometryType() string { return TypePolygon }

// UnmarshalJSON accepts a Point whose type member is omitted, but rejects any other type.
func (p *Point) UnmarshalJSON(data []byte) error {
	type rawPoint Point
	var raw rawPoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if raw.Type == "" {
		raw.Type = TypePoint
	}
	if raw.Type != TypePoint {
		return fmt.Errorf("%w: expected type %q, got %q", ErrInvalidGeometry, TypePoint, raw.Type)
	}
	*p = Point(raw)
	return nil
}

// UnmarshalJSON accepts a Polygon whose type member is omitted, but rejects any other type.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	type rawPolygon Polygon
	var raw rawPolygon
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if raw.Type == "" {
		raw.Type = TypePolygon
	}
	if raw.Type != TypePolygon {
		return fmt.Errorf("%w: expected type %q, got %q", ErrInvalidGeometry, TypePolygon, raw.Type)
	}
	*p = Polygon(raw)
	return nil
}
