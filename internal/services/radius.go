package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// MaxTilt is the camera tilt, in degrees, at which the search radius doubles
const MaxTilt = 85.0

// ZoomRadius maps one map zoom level to a base search radius in meters
type ZoomRadius struct {
	Zoom   int
	Radius float64
}

// RadiusTable is a sorted zoom to radius lookup with a fallback for zooms it does not list
type RadiusTable struct {
	entries  []ZoomRadius
	fallback float64
}

// DefaultRadiusTable covers zoom 10 through 22. Anything else falls back to 195m.
func DefaultRadiusTable() RadiusTable {
	return NewRadiusTable([]ZoomRadius{
		{10, 50000},
		{11, 25000},
		{12, 12500},
		{13, 6400},
		{14, 3200},
		{15, 1600},
		{16, 800},
		{17, 400},
		{18, 195},
		{19, 195},
		{20, 195},
		{21, 195},
		{22, 195},
	}, 195)
}

// NewRadiusTable builds a table from entries in any order. Later duplicates win.
func NewRadiusTable(entries []ZoomRadius, fallback float64) RadiusTable {
	byZoom := make(map[int]float64, len(entries))
	for _, e := range entries {
		byZoom[e.Zoom] = e.Radius
	}
	sorted := make([]ZoomRadius, 0, len(byZoom))
	for zoom, radius := range byZoom {
		sorted = append(sorted, ZoomRadius{Zoom: zoom, Radius: radius})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Zoom < sorted[j].Zoom })
	return RadiusTable{entries: sorted, fallback: fallback}
}

// ParseRadiusTable overlays "zoom:radius" pairs on the default table.
// Pairs are comma separated and a zoom may be a range, e.g. "10:40000,18-22:150".
// The key "default" replaces the fallback radius.
func ParseRadiusTable(s string) (RadiusTable, error) {
	base := DefaultRadiusTable()
	if strings.TrimSpace(s) == "" {
		return base, nil
	}

	entries := append([]ZoomRadius(nil), base.entries...)
	fallback := base.fallback
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return RadiusTable{}, fmt.Errorf("invalid zoom radius %q: expected zoom:radius", pair)
		}
		radius, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || radius <= 0 || math.IsInf(radius, 0) {
			return RadiusTable{}, fmt.Errorf("invalid zoom radius %q: radius must be a positive number", pair)
		}

		key = strings.TrimSpace(key)
		if key == "default" {
			fallback = radius
			continue
		}
		from, to, err := parseZoomRange(key)
		if err != nil {
			return RadiusTable{}, fmt.Errorf("invalid zoom radius %q: %w", pair, err)
		}
		for zoom := from; zoom <= to; zoom++ {
			entries = append(entries, ZoomRadius{Zoom: zoom, Radius: radius})
		}
	}
	return NewRadiusTable(entries, fallback), nil
}

func parseZoomRange(key string) (int, int, error) {
	lo, hi, isRange := strings.Cut(key, "-")
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("zoom must be an integer")
	}
	if !isRange {
		return from, from, nil
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil || to < from {
		return 0, 0, fmt.Errorf("zoom range must be ascending integers")
	}
	return from, to, nil
}

// BaseRadius looks up the radius for a zoom level
func (t RadiusTable) BaseRadius(zoom int) float64 {
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Zoom >= zoom })
	if i < len(t.entries) && t.entries[i].Zoom == zoom {
		return t.entries[i].Radius
	}
	return t.fallback
}

// Fallback is the radius for zooms outside the table
func (t RadiusTable) Fallback() float64 {
	return t.fallback
}

// InflateForTilt widens the radius up to 2x as the camera tilts toward MaxTilt
func InflateForTilt(radius, tilt float64) float64 {
	if tilt <= 0 || math.IsNaN(tilt) {
		return radius
	}
	return radius * (1 + math.Min(tilt, MaxTilt)/MaxTilt)
}
