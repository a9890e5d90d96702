package services

import (
	"testing"
)

func TestDefaultRadiusTable(t *testing.T) {
	table := DefaultRadiusTable()

	cases := map[int]float64{
		10: 50000,
		14: 3200,
		17: 400,
		18: 195,
		22: 195,
		25: 195,
		3:  195,
	}
	for zoom, want := range cases {
		if got := table.BaseRadius(zoom); got != want {
			t.Errorf("BaseRadius(%d) = %g, want %g", zoom, got, want)
		}
	}
	if table.BaseRadius(25) != table.Fallback() {
		t.Error("An out of table zoom should use the fallback")
	}
}

func TestInflateForTilt(t *testing.T) {
	if got := InflateForTilt(195, 0); got != 195 {
		t.Errorf("Zero tilt should leave the radius unchanged, got %g", got)
	}
	if got := InflateForTilt(195, 85); got != 390 {
		t.Errorf("Tilt 85 should double the radius, got %g", got)
	}
	if got := InflateForTilt(195, 170); got != 390 {
		t.Errorf("Tilt beyond 85 should be capped, got %g", got)
	}
	if got := InflateForTilt(1000, 42.5); got != 1500 {
		t.Errorf("Half tilt should inflate by half, got %g", got)
	}
	if got := InflateForTilt(1000, -10); got != 1000 {
		t.Errorf("Negative tilt should be ignored, got %g", got)
	}
}

func TestParseRadiusTable(t *testing.T) {
	table, err := ParseRadiusTable("10:40000, 18-20:150, default:100")
	if err != nil {
		t.Fatalf("ParseRadiusTable failed: %v", err)
	}
	cases := map[int]float64{
		10: 40000,
		11: 25000,
		18: 150,
		20: 150,
		21: 195,
		30: 100,
	}
	for zoom, want := range cases {
		if got := table.BaseRadius(zoom); got != want {
			t.Errorf("BaseRadius(%d) = %g, want %g", zoom, got, want)
		}
	}

	empty, err := ParseRadiusTable("  ")
	if err != nil || empty.BaseRadius(10) != 50000 {
		t.Errorf("An empty override should give the default table, got %v", err)
	}

	for _, bad := range []string{"10", "x:100", "10:-5", "10:abc", "20-18:100"} {
		if _, err := ParseRadiusTable(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestNewRadiusTableLaterDuplicatesWin(t *testing.T) {
	table := NewRadiusTable([]ZoomRadius{{15, 10}, {12, 30}, {15, 20}}, 5)
	if got := table.BaseRadius(15); got != 20 {
		t.Errorf("Expected the later duplicate, got %g", got)
	}
	if got := table.BaseRadius(12); got != 30 {
		t.Errorf("Expected 30, got %g", got)
	}
	if got := table.BaseRadius(13); got != 5 {
		t.Errorf("Expected fallback, got %g", got)
	}
}
