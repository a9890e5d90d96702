package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/localnerve/campusgeo/internal/testhelpers"
)

func TestCenterWKT(t *testing.T) {
	tests := []struct {
		lat, lon float64
		expected string
	}{
		{21.0285, 105.8342, "POINT(105.8342 21.0285)"},
		{-33.5, -70, "POINT(-70 -33.5)"},
		{0, 0, "POINT(0 0)"},
	}

	for _, tc := range tests {
		if got := CenterWKT(tc.lat, tc.lon); got != tc.expected {
			t.Errorf("CenterWKT(%g, %g): expected %s, got %s", tc.lat, tc.lon, tc.expected, got)
		}
	}
}

func TestNearestBuildingsWithoutSphericalDistance(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	repo := NewBuildingRepository(db, time.Second)

	_, err := repo.NearestBuildings(context.Background(), 21.0285, 105.8342, 0, 1000)
	if err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Fatalf("Expected sqlite ring query to be refused, got %v", err)
	}
}

func TestAnchorUnionCoversEveryAnchorKind(t *testing.T) {
	union := anchorUnion(
		func(column string) string { return "P(" + column + ")" },
		func(column string) string { return "F(" + column + ")" },
	)

	if got := strings.Count(union, "UNION ALL"); got != 7 {
		t.Errorf("Expected 8 anchor selects, got %d unions", got+1)
	}
	if got := strings.Count(union, "P(p.geom)"); got != 5 {
		t.Errorf("Expected 5 point anchors, got %d", got)
	}
	if got := strings.Count(union, "F(f.geom)"); got != 3 {
		t.Errorf("Expected 3 face anchors, got %d", got)
	}
}
