package domain_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanflows/jam-section-etl/internal/domain"
)

func TestClassifyPath(t *testing.T) {
	cases := []struct {
		name string
		line []domain.Coordinate
		want domain.Direction
	}{
		{
			name: "northbound",
			line: []domain.Coordinate{{X: -51.20, Y: -30.10}, {X: -51.20, Y: -30.00}},
			want: domain.Direction{Lon: domain.East, Lat: domain.North, Major: domain.AxisNorthSouth},
		},
		{
			name: "southbound",
			line: []domain.Coordinate{{X: -51.20, Y: -30.00}, {X: -51.21, Y: -30.10}},
			want: domain.Direction{Lon: domain.West, Lat: domain.South, Major: domain.AxisNorthSouth},
		},
		{
			name: "eastbound",
			line: []domain.Coordinate{{X: -51.30, Y: -30.05}, {X: -51.10, Y: -30.04}},
			want: domain.Direction{Lon: domain.East, Lat: domain.North, Major: domain.AxisEastWest},
		},
		{
			name: "westbound",
			line: []domain.Coordinate{{X: -51.10, Y: -30.05}, {X: -51.30, Y: -30.06}},
			want: domain.Direction{Lon: domain.West, Lat: domain.South, Major: domain.AxisEastWest},
		},
		{
			name: "equal deltas tie to east-west",
			line: []domain.Coordinate{{X: 0, Y: 0}, {X: 1, Y: 1}},
			want: domain.Direction{Lon: domain.East, Lat: domain.North, Major: domain.AxisEastWest},
		},
		{
			name: "zero displacement ties to east-west",
			line: []domain.Coordinate{{X: 5, Y: 5}, {X: 7, Y: 9}, {X: 5, Y: 5}},
			want: domain.Direction{Lon: domain.East, Lat: domain.North, Major: domain.AxisEastWest},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := domain.ClassifyPath(tc.line)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyPath_FirstAndLastPointsOnly(t *testing.T) {
	base := []domain.Coordinate{{X: 0, Y: 0}, {X: 3, Y: 10}}
	want, ok := domain.ClassifyPath(base)
	require.True(t, ok)

	// Inserting, removing, or reordering intermediate points must not change
	// the classification.
	variants := [][]domain.Coordinate{
		{{X: 0, Y: 0}, {X: 100, Y: -50}, {X: 3, Y: 10}},
		{{X: 0, Y: 0}, {X: -7, Y: 2}, {X: 40, Y: 40}, {X: 3, Y: 10}},
		{{X: 0, Y: 0}, {X: 2, Y: 9}, {X: 1, Y: 4}, {X: 3, Y: 10}},
	}
	for _, v := range variants {
		got, ok := domain.ClassifyPath(v)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestClassifyPath_Degenerate(t *testing.T) {
	_, ok := domain.ClassifyPath(nil)
	assert.False(t, ok)

	_, ok = domain.ClassifyPath([]domain.Coordinate{{X: 1, Y: 2}})
	assert.False(t, ok)
}

func TestClassifyExtent(t *testing.T) {
	cases := []struct {
		name string
		e    domain.Extent
		want domain.Axis
	}{
		{"taller than wide", domain.Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 100}, domain.AxisNorthSouth},
		{"wider than tall", domain.Extent{MinX: 0, MinY: 0, MaxX: 100, MaxY: 10}, domain.AxisEastWest},
		{"square ties to north-south", domain.Extent{MinX: 0, MinY: 0, MaxX: 50, MaxY: 50}, domain.AxisNorthSouth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.ClassifyExtent(tc.e))
		})
	}
}

func TestExtentOfAndUnion(t *testing.T) {
	a := domain.ExtentOf(
		domain.Coordinate{X: 3, Y: 9},
		domain.Coordinate{X: 1, Y: 12},
		domain.Coordinate{X: 2, Y: 7},
	)
	assert.Equal(t, domain.Extent{MinX: 1, MinY: 7, MaxX: 3, MaxY: 12}, a)

	b := domain.ExtentOf(domain.Coordinate{X: -5, Y: 10}, domain.Coordinate{X: 0, Y: 20})
	assert.Equal(t, domain.Extent{MinX: -5, MinY: 7, MaxX: 3, MaxY: 20}, a.Union(b))
}

func TestNewJamPerSection_StampsClock(t *testing.T) {
	frozen := time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	defer domain.SetClock(nil)

	start := time.Date(2024, time.June, 3, 8, 15, 0, 0, time.UTC)
	fact := domain.NewJamPerSection(start, 42, 7, "contains")

	assert.Equal(t, start, fact.JamStartTime)
	assert.Equal(t, int64(42), fact.JamUUID)
	assert.Equal(t, int64(7), fact.SectionID)
	assert.Equal(t, "contains", fact.Tier)
	assert.Equal(t, frozen, fact.MatchedAt)
}
