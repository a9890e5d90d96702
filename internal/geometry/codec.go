package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"github.com/twpayne/go-geom/xy"
)

// ErrInvalidGeometry is wrapped by every validation failure in this package
var ErrInvalidGeometry = errors.New("invalid geometry")

// SRID is the spatial reference of every stored geometry (WGS84 lon/lat)
const SRID = 4326

// EncodePoint converts GeoJSON point coordinates to WKT
func EncodePoint(coords []float64) (string, error) {
	layout, err := checkPosition(coords)
	if err != nil {
		return "", err
	}
	return marshal(geom.NewPointFlat(layout, append([]float64(nil), coords...)))
}

// EncodeFace converts GeoJSON polygon rings to WKT.
// Every ring must already be closed; the ring is never closed here.
func EncodeFace(rings [][][]float64) (string, error) {
	if len(rings) == 0 {
		return "", fmt.Errorf("%w: polygon has no rings", ErrInvalidGeometry)
	}

	var layout geom.Layout
	coords := make([][]geom.Coord, len(rings))
	for i, ring := range rings {
		if len(ring) < 4 {
			return "", fmt.Errorf("%w: ring %d has %d positions, need at least 4", ErrInvalidGeometry, i, len(ring))
		}
		coords[i] = make([]geom.Coord, len(ring))
		for j, position := range ring {
			l, err := checkPosition(position)
			if err != nil {
				return "", fmt.Errorf("ring %d position %d: %w", i, j, err)
			}
			if layout == geom.NoLayout {
				layout = l
			} else if l != layout {
				return "", fmt.Errorf("%w: ring %d mixes 2D and 3D positions", ErrInvalidGeometry, i)
			}
			coords[i][j] = geom.Coord(append([]float64(nil), position...))
		}
		if !coords[i][0].Equal(layout, coords[i][len(ring)-1]) {
			return "", fmt.Errorf("%w: ring %d is not closed", ErrInvalidGeometry, i)
		}
	}

	polygon, err := geom.NewPolygon(layout).SetCoords(coords)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return marshal(polygon)
}

// EncodeGeometry converts a decoded GeoJSON value to WKT
func EncodeGeometry(g Geometry) (string, error) {
	switch v := g.(type) {
	case *Point:
		if v == nil {
			break
		}
		return EncodePoint(v.Coordinates)
	case *Polygon:
		if v == nil {
			break
		}
		return EncodeFace(v.Coordinates)
	}
	return "", fmt.Errorf("%w: unsupported geometry %T", ErrInvalidGeometry, g)
}

// Decode parses WKT into a GeoJSON Point or Polygon
func Decode(text string) (Geometry, error) {
	t, err := wkt.Unmarshal(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return FromGeom(t)
}

// DecodePoint parses WKT that must hold a point
func DecodePoint(text string) (*Point, error) {
	g, err := Decode(text)
	if err != nil {
		return nil, err
	}
	p, ok := g.(*Point)
	if !ok {
		return nil, fmt.Errorf("%w: expected Point, got %s", ErrInvalidGeometry, g.GeometryType())
	}
	return p, nil
}

// DecodePolygon parses WKT that must hold a polygon
func DecodePolygon(text string) (*Polygon, error) {
	g, err := Decode(text)
	if err != nil {
		return nil, err
	}
	p, ok := g.(*Polygon)
	if !ok {
		return nil, fmt.Errorf("%w: expected Polygon, got %s", ErrInvalidGeometry, g.GeometryType())
	}
	return p, nil
}

// FromGeom converts a go-geom value into GeoJSON. Only points and polygons are supported.
func FromGeom(t geom.T) (Geometry, error) {
	switch g := t.(type) {
	case *geom.Point:
		if g.Empty() {
			return nil, fmt.Errorf("%w: empty point", ErrInvalidGeometry)
		}
		return NewPoint(ordinates(g.Coords(), g.Layout())...), nil
	case *geom.Polygon:
		rings := g.Coords()
		if len(rings) == 0 {
			return nil, fmt.Errorf("%w: empty polygon", ErrInvalidGeometry)
		}
		out := make([][][]float64, len(rings))
		for i, ring := range rings {
			out[i] = make([][]float64, len(ring))
			for j, c := range ring {
				out[i][j] = ordinates(c, g.Layout())
			}
		}
		return NewPolygon(out...), nil
	}
	return nil, fmt.Errorf("%w: unsupported geometry %T", ErrInvalidGeometry, t)
}

// Centroid returns the area centroid of the outer ring as a 2D point.
// Degenerate (zero area) rings fall back to the vertex average.
func Centroid(p *Polygon) (*Point, error) {
	if p == nil || len(p.Coordinates) == 0 {
		return nil, fmt.Errorf("%w: empty polygon", ErrInvalidGeometry)
	}
	ring := p.Coordinates[0]
	coords := make([]geom.Coord, len(ring))
	for i, position := range ring {
		if len(position) < 2 {
			return nil, fmt.Errorf("%w: position %d has %d ordinates", ErrInvalidGeometry, i, len(position))
		}
		coords[i] = geom.Coord{position[0], position[1]}
	}
	polygon, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{coords})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	c, err := xy.Centroid(polygon)
	if err == nil && len(c) >= 2 && !math.IsNaN(c[0]) && !math.IsNaN(c[1]) {
		return NewPoint(c[0], c[1]), nil
	}

	// open the ring so the closing position is not counted twice
	vertices := coords
	if len(vertices) > 1 {
		vertices = vertices[:len(vertices)-1]
	}
	var lon, lat float64
	for _, v := range vertices {
		lon += v[0]
		lat += v[1]
	}
	n := float64(len(vertices))
	return NewPoint(lon/n, lat/n), nil
}

func checkPosition(coords []float64) (geom.Layout, error) {
	var layout geom.Layout
	switch len(coords) {
	case 2:
		layout = geom.XY
	case 3:
		layout = geom.XYZ
	default:
		return geom.NoLayout, fmt.Errorf("%w: position needs 2 or 3 ordinates, got %d", ErrInvalidGeometry, len(coords))
	}
	for _, v := range coords {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return geom.NoLayout, fmt.Errorf("%w: non-finite ordinate", ErrInvalidGeometry)
		}
	}
	if coords[0] < -180 || coords[0] > 180 {
		return geom.NoLayout, fmt.Errorf("%w: longitude %v out of range", ErrInvalidGeometry, coords[0])
	}
	if coords[1] < -90 || coords[1] > 90 {
		return geom.NoLayout, fmt.Errorf("%w: latitude %v out of range", ErrInvalidGeometry, coords[1])
	}
	return layout, nil
}

// ordinates keeps x, y and z, dropping any measure
func ordinates(c geom.Coord, layout geom.Layout) []float64 {
	n := 2
	if layout == geom.XYZ || layout == geom.XYZM {
		n = 3
	}
	out := make([]float64, n)
	copy(out, c[:n])
	return out
}

func marshal(g geom.T) (string, error) {
	s, err := wkt.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return s, nil
}
