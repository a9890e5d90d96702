package spatial

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		native   bool
	}{
		{"postgres", "postgres", true},
		{"mysql", "mysql", true},
		{"sqlserver", "sqlserver", true},
		{"sqlite", "sqlite", false},
		{"unknown", "sqlite", false},
	}

	for _, tc := range tests {
		d := ByName(tc.name)
		if d.Name() != tc.expected {
			t.Errorf("ByName(%q): expected %s, got %s", tc.name, tc.expected, d.Name())
		}
		if d.NativeDistance() != tc.native {
			t.Errorf("ByName(%q): expected NativeDistance %v", tc.name, tc.native)
		}
	}
}

func TestFromTextAndAsText(t *testing.T) {
	if got := ByName("postgres").FromText("?"); got != "ST_GeomFromText(?, 4326)" {
		t.Errorf("Unexpected postgres FromText: %s", got)
	}
	if got := ByName("mysql").AsText("p.geom"); !strings.Contains(got, "axis-order=long-lat") {
		t.Errorf("Expected mysql AsText to force long-lat axis order, got %s", got)
	}
	if got := ByName("sqlite").FromText("?"); got != "?" {
		t.Errorf("Expected sqlite FromText passthrough, got %s", got)
	}
	if got := ByName("sqlserver").AsText("f.geom"); got != "f.geom.STAsText()" {
		t.Errorf("Unexpected sqlserver AsText: %s", got)
	}
}

func TestTxGuards(t *testing.T) {
	guards := ByName("postgres").TxGuards(2*time.Second, 5*time.Second)
	if len(guards) != 2 || guards[0] != "SET LOCAL lock_timeout = '2000ms'" || guards[1] != "SET LOCAL statement_timeout = '5000ms'" {
		t.Errorf("Unexpected postgres guards: %v", guards)
	}

	if restore := ByName("postgres").TxRestore(); len(restore) != 0 {
		t.Errorf("Expected SET LOCAL guards to need no restore, got %v", restore)
	}

	guards = ByName("mysql").TxGuards(300*time.Millisecond, time.Second)
	if len(guards) != 1 || !strings.HasSuffix(guards[0], "SESSION innodb_lock_wait_timeout = 1") {
		t.Errorf("Expected mysql lock wait to round up to 1 second, got %v", guards)
	}
	if !strings.Contains(guards[0], "@campusgeo_lock_wait = @@SESSION.innodb_lock_wait_timeout") {
		t.Errorf("Expected mysql guard to save the session lock wait, got %s", guards[0])
	}
	restore := ByName("mysql").TxRestore()
	if len(restore) != 1 || restore[0] != "SET SESSION innodb_lock_wait_timeout = @campusgeo_lock_wait" {
		t.Errorf("Expected mysql restore of the saved lock wait, got %v", restore)
	}
	if guards := ByName("mysql").TxGuards(1500*time.Millisecond, time.Second); !strings.HasSuffix(guards[0], "= 2") {
		t.Errorf("Expected 1.5s lock wait to round up to 2 seconds, got %s", guards[0])
	}

	guards = ByName("sqlserver").TxGuards(250*time.Millisecond, time.Second)
	if len(guards) != 1 || guards[0] != "SET LOCK_TIMEOUT 250" {
		t.Errorf("Unexpected sqlserver guards: %v", guards)
	}
	if restore := ByName("sqlserver").TxRestore(); len(restore) != 1 || restore[0] != "SET LOCK_TIMEOUT -1" {
		t.Errorf("Expected sqlserver lock timeout reset, got %v", restore)
	}

	if guards := ByName("sqlite").TxGuards(time.Second, time.Second); len(guards) != 0 {
		t.Errorf("Expected no sqlite guards, got %v", guards)
	}
}

func TestRenderWKT(t *testing.T) {
	tests := []struct {
		dialect  string
		wkt      string
		expected string
		rejected bool
	}{
		{"postgres", "POINT Z (105.8342 21.0285 10.5)", "POINT Z (105.8342 21.0285 10.5)", false},
		{"sqlite", "POINT Z (105.8342 21.0285 10.5)", "POINT Z (105.8342 21.0285 10.5)", false},
		{"mysql", "POINT (105.8342 21.0285)", "POINT (105.8342 21.0285)", false},
		{"mysql", "POINT Z (105.8342 21.0285 10.5)", "", true},
		{"mysql", "POLYGON Z ((0 0 1,1 0 1,1 1 1,0 0 1))", "", true},
		{"sqlserver", "POINT Z (105.8342 21.0285 10.5)", "POINT (105.8342 21.0285 10.5)", false},
		{"sqlserver", "POLYGON Z ((0 0 1,1 0 1,1 1 1,0 0 1))", "POLYGON ((0 0 1,1 0 1,1 1 1,0 0 1))", false},
		{"sqlserver", "POINT (105.8342 21.0285)", "POINT (105.8342 21.0285)", false},
	}

	for _, tc := range tests {
		got, err := ByName(tc.dialect).RenderWKT(tc.wkt)
		if tc.rejected {
			if !errors.Is(err, ErrUnsupportedGeometry) {
				t.Errorf("%s %q: expected ErrUnsupportedGeometry, got %v", tc.dialect, tc.wkt, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s %q: unexpected error %v", tc.dialect, tc.wkt, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("%s %q: expected %q, got %q", tc.dialect, tc.wkt, tc.expected, got)
		}
	}
}

func TestHasZ(t *testing.T) {
	if !HasZ("POINT Z (1 2 3)") || !HasZ("polygon z ((0 0 0,1 0 0,1 1 0,0 0 0))") {
		t.Error("Expected Z tagged WKT to be 3D")
	}
	if HasZ("POINT (1 2)") || HasZ("POINTZ (1 2 3)") {
		t.Error("Expected untagged WKT to not be 3D")
	}
}

func TestSphereDistance(t *testing.T) {
	postgis := ByName("postgres")
	if got := postgis.SphereDistance(postgis.Anchor("f.geom", true), "@center"); got !=
		"ST_DistanceSphere(ST_Force2D(ST_Centroid(f.geom)), ST_GeomFromText(@center, 4326))" {
		t.Errorf("Unexpected postgis distance: %s", got)
	}

	mysql := ByName("mysql")
	if got := mysql.Anchor("p.geom", false); got != "p.geom" {
		t.Errorf("Expected mysql point anchor to be the column, got %s", got)
	}
	if got := mysql.Anchor("f.geom", true); got != "ST_SRID(ST_Centroid(ST_SRID(f.geom, 0)), 4326)" {
		t.Errorf("Unexpected mysql face anchor: %s", got)
	}
	if got := mysql.SphereDistance("a.geom", "@center"); got !=
		"ST_Distance_Sphere(a.geom, ST_GeomFromText(@center, 4326, 'axis-order=long-lat'))" {
		t.Errorf("Unexpected mysql distance: %s", got)
	}

	sqlserver := ByName("sqlserver")
	if got := sqlserver.Anchor("f.geom", true); got != "geography::STGeomFromText(f.geom.STCentroid().STAsText(), 4326)" {
		t.Errorf("Unexpected sqlserver face anchor: %s", got)
	}
	if got := sqlserver.SphereDistance("a.geom", "@center"); got !=
		"a.geom.STDistance(geography::STGeomFromText(@center, 4326))" {
		t.Errorf("Unexpected sqlserver distance: %s", got)
	}

	if got := ByName("sqlite").SphereDistance("a.geom", "@center"); got != "" {
		t.Errorf("Expected no sqlite distance, got %s", got)
	}
}
