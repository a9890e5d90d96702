package geometry_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/localnerve/campusgeo/internal/geometry"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestPointRoundTrip encodes a 3D point to WKT and decodes it back
func TestPointRoundTrip(t *testing.T) {
	coords := []float64{105.8342, 21.0285, 10.5}

	text, err := geometry.EncodePoint(coords)
	if err != nil {
		t.Fatalf("EncodePoint failed: %v", err)
	}
	if !strings.HasPrefix(text, "POINT") {
		t.Errorf("Expected POINT WKT, got %q", text)
	}

	point, err := geometry.DecodePoint(text)
	if err != nil {
		t.Fatalf("DecodePoint failed: %v", err)
	}
	if point.Type != "Point" {
		t.Errorf("Expected type Point, got %s", point.Type)
	}
	if len(point.Coordinates) != 3 {
		t.Fatalf("Expected 3 ordinates, got %d", len(point.Coordinates))
	}
	for i := range coords {
		if !almostEqual(point.Coordinates[i], coords[i]) {
			t.Errorf("Ordinate %d: expected %v, got %v", i, coords[i], point.Coordinates[i])
		}
	}
}

// TestFaceRoundTrip encodes a closed ring and decodes it back
func TestFaceRoundTrip(t *testing.T) {
	ring := [][]float64{
		{105.0, 21.0},
		{105.001, 21.0},
		{105.001, 21.001},
		{105.0, 21.001},
		{105.0, 21.0},
	}

	text, err := geometry.EncodeFace([][][]float64{ring})
	if err != nil {
		t.Fatalf("EncodeFace failed: %v", err)
	}

	polygon, err := geometry.DecodePolygon(text)
	if err != nil {
		t.Fatalf("DecodePolygon failed: %v", err)
	}
	if len(polygon.Coordinates) != 1 || len(polygon.Coordinates[0]) != len(ring) {
		t.Fatalf("Unexpected ring shape: %v", polygon.Coordinates)
	}
	for i, position := range ring {
		got := polygon.Coordinates[0][i]
		if !almostEqual(got[0], position[0]) || !almostEqual(got[1], position[1]) {
			t.Errorf("Position %d: expected %v, got %v", i, position, got)
		}
	}
}

// TestEncodeFaceRejectsOpenRing verifies the codec does not close rings itself
func TestEncodeFaceRejectsOpenRing(t *testing.T) {
	ring := [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	_, err := geometry.EncodeFace([][][]float64{ring})
	if !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry for an open ring, got %v", err)
	}
}

func TestEncodeFaceValidation(t *testing.T) {
	tests := []struct {
		name  string
		rings [][][]float64
	}{
		{"no rings", nil},
		{"too few positions", [][][]float64{{{0, 0}, {1, 0}, {0, 0}}}},
		{"mixed dimensions", [][][]float64{{{0, 0}, {1, 0, 3}, {1, 1}, {0, 0}}}},
		{"bad ordinate count", [][][]float64{{{0}, {1, 0}, {1, 1}, {0}}}},
		{"latitude out of range", [][][]float64{{{0, 0}, {1, 95}, {1, 1}, {0, 0}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := geometry.EncodeFace(tc.rings); !errors.Is(err, geometry.ErrInvalidGeometry) {
				t.Errorf("Expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestEncodePointValidation(t *testing.T) {
	for _, coords := range [][]float64{nil, {1}, {1, 2, 3, 4}, {181, 0}, {math.NaN(), 0}} {
		if _, err := geometry.EncodePoint(coords); !errors.Is(err, geometry.ErrInvalidGeometry) {
			t.Errorf("EncodePoint(%v): expected ErrInvalidGeometry, got %v", coords, err)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := geometry.Decode("POINT (1"); !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry, got %v", err)
	}
	if _, err := geometry.DecodePoint("POLYGON ((0 0, 1 0, 1 1, 0 0))"); !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Errorf("Expected type mismatch error, got %v", err)
	}
}

func TestCentroid(t *testing.T) {
	square := geometry.NewPolygon([][]float64{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}})
	c, err := geometry.Centroid(square)
	if err != nil {
		t.Fatalf("Centroid failed: %v", err)
	}
	if !almostEqual(c.Coordinates[0], 1) || !almostEqual(c.Coordinates[1], 1) {
		t.Errorf("Expected centroid [1 1], got %v", c.Coordinates)
	}
}

func TestGeoJSONUnmarshal(t *testing.T) {
	var p geometry.Point
	if err := json.Unmarshal([]byte(`{"coordinates":[1,2]}`), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if p.Type != "Point" {
		t.Errorf("Expected default type Point, got %q", p.Type)
	}

	var wrong geometry.Polygon
	err := json.Unmarshal([]byte(`{"type":"Point","coordinates":[[[1,2]]]}`), &wrong)
	if !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry for mismatched type, got %v", err)
	}
}

func TestColumnToWKT(t *testing.T) {
	// POINT(1 2) with SRID 4326 as PostGIS hex EWKB
	text, err := geometry.ColumnToWKT("0101000020E6100000000000000000F03F0000000000000040")
	if err != nil {
		t.Fatalf("ColumnToWKT failed: %v", err)
	}
	point, err := geometry.DecodePoint(text)
	if err != nil {
		t.Fatalf("DecodePoint failed on %q: %v", text, err)
	}
	if !almostEqual(point.Coordinates[0], 1) || !almostEqual(point.Coordinates[1], 2) {
		t.Errorf("Expected [1 2], got %v", point.Coordinates)
	}

	passthrough, err := geometry.ColumnToWKT([]byte("POINT (3 4)"))
	if err != nil || passthrough != "POINT (3 4)" {
		t.Errorf("Expected WKT passthrough, got %q, %v", passthrough, err)
	}

	// SQL Server writes 3D WKT without the Z tag
	untagged, err := geometry.ColumnToWKT("POINT (105.8342 21.0285 10.5)")
	if err != nil {
		t.Fatalf("ColumnToWKT failed: %v", err)
	}
	point, err = geometry.DecodePoint(untagged)
	if err != nil {
		t.Fatalf("DecodePoint failed on %q: %v", untagged, err)
	}
	if len(point.Coordinates) != 3 || !almostEqual(point.Coordinates[2], 10.5) {
		t.Errorf("Expected elevation 10.5 to survive, got %v", point.Coordinates)
	}

	face, err := geometry.ColumnToWKT([]byte("POLYGON ((0 0 1, 1 0 1, 1 1 1, 0 0 1))"))
	if err != nil || !strings.HasPrefix(face, "POLYGON Z ((") {
		t.Errorf("Expected untagged 3D polygon to be tagged, got %q, %v", face, err)
	}

	empty, err := geometry.ColumnToWKT(nil)
	if err != nil || empty != "" {
		t.Errorf("Expected empty WKT for NULL, got %q, %v", empty, err)
	}
}
