package match_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanflows/jam-section-etl/internal/domain"
	"github.com/urbanflows/jam-section-etl/internal/geo"
	"github.com/urbanflows/jam-section-etl/internal/match"
)

// The test grid lives in planar UTM meters near Porto Alegre; jam polylines
// are constructed in planar space and unprojected, since jam input is
// geographic.
const (
	baseX = 480_000.0
	baseY = 6_675_000.0
)

func pt(dx, dy float64) domain.Coordinate {
	return domain.Coordinate{X: baseX + dx, Y: baseY + dy}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	builder   *geo.Builder
	projector *geo.Projector
	nextUUID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p, err := geo.NewProjector(22, true)
	require.NoError(t, err)
	return &fixture{
		builder:   geo.NewBuilder(p, 10, 20),
		projector: p,
		nextUUID:  100,
	}
}

func (f *fixture) sections(t *testing.T, rows ...domain.RawSectionRow) []*geo.Section {
	t.Helper()
	sections, err := f.builder.BuildSections(rows)
	require.NoError(t, err)
	return sections
}

// jam builds a jam from planar waypoints.
func (f *fixture) jam(t *testing.T, waypoints ...domain.Coordinate) *geo.Jam {
	t.Helper()
	line, err := f.projector.UnprojectLine(waypoints)
	require.NoError(t, err)

	f.nextUUID++
	row := domain.RawJamRow{
		ID: f.nextUUID, UUID: f.nextUUID,
		StartTime: time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC),
		Line:      line,
	}
	jam, ok, err := f.builder.BuildJam(row)
	require.NoError(t, err)
	require.True(t, ok)
	return jam
}

// ruaNorte runs north along x=0 from y=0 to y=600.
func ruaNorte() domain.RawSectionRow {
	return domain.RawSectionRow{
		ID: 1, StreetName: "Rua Norte", LengthMeters: 600,
		Start: pt(0, 0), Mid: pt(0, 300), End: pt(0, 600),
	}
}

// avLeste runs east along y=300 from x=-300 to x=300, crossing ruaNorte.
func avLeste() domain.RawSectionRow {
	return domain.RawSectionRow{
		ID: 2, StreetName: "Av Leste", LengthMeters: 600,
		Start: pt(-300, 300), Mid: pt(0, 300), End: pt(300, 300),
	}
}

func pairKeys(matches []match.Match) []string {
	keys := make([]string, len(matches))
	for i, m := range matches {
		keys[i] = fmt.Sprintf("%d->%d:%s", m.Jam.Row.UUID, m.Section.Row.ID, m.Tier)
	}
	return keys
}

func TestMatchPage_TierContains(t *testing.T) {
	f := newFixture(t)
	m := match.New(f.sections(t, ruaNorte(), avLeste()), discardLogger())

	// Runs the full length of Rua Norte with margin: the jam's fat buffer
	// swallows the section's thin corridor entirely.
	j1 := f.jam(t, pt(0, -30), pt(0, 300), pt(0, 630))

	matches, unmatched := m.MatchPage([]*geo.Jam{j1})
	assert.Empty(t, unmatched)
	assert.ElementsMatch(t, []string{
		fmt.Sprintf("%d->1:contains", j1.Row.UUID),
	}, pairKeys(matches))
}

func TestMatchPage_TierWithin(t *testing.T) {
	f := newFixture(t)
	m := match.New(f.sections(t, ruaNorte(), avLeste()), discardLogger())

	// A short noisy trace 5 m off the Av Leste centerline: too short for
	// the contains tier, but its thin buffer fits the fat corridor.
	j2 := f.jam(t, pt(-200, 305), pt(-50, 304), pt(100, 306))

	matches, unmatched := m.MatchPage([]*geo.Jam{j2})
	assert.Empty(t, unmatched)
	assert.ElementsMatch(t, []string{
		fmt.Sprintf("%d->2:within", j2.Row.UUID),
	}, pairKeys(matches))
}

func TestMatchPage_TierIntersects_DirectionFilter(t *testing.T) {
	f := newFixture(t)
	m := match.New(f.sections(t, ruaNorte(), avLeste()), discardLogger())

	// Crosses both streets diagonally at the intersection with a
	// North/South major axis: geometric overlap with both, direction
	// agreement only with Rua Norte.
	j3 := f.jam(t, pt(-80, 250), pt(40, 480))

	matches, unmatched := m.MatchPage([]*geo.Jam{j3})
	assert.Empty(t, unmatched)
	assert.ElementsMatch(t, []string{
		fmt.Sprintf("%d->1:intersects", j3.Row.UUID),
	}, pairKeys(matches))
}

func TestMatchPage_PerpendicularRejected(t *testing.T) {
	f := newFixture(t)
	m := match.New(f.sections(t, ruaNorte()), discardLogger())

	// East-west jam crossing the north-south section at a right angle: thin
	// buffers intersect, but the direction filter rejects the pair.
	crossing := f.jam(t, pt(-200, 300), pt(200, 300))

	matches, unmatched := m.MatchPage([]*geo.Jam{crossing})
	assert.Empty(t, matches)
	require.Len(t, unmatched, 1)
	assert.Equal(t, crossing.Row.UUID, unmatched[0].Row.UUID)
}

func TestMatchPage_TierPartition(t *testing.T) {
	f := newFixture(t)
	m := match.New(f.sections(t, ruaNorte(), avLeste()), discardLogger())

	// j1 is accepted by the contains tier against Rua Norte. It also
	// geometrically intersects Av Leste's corridor near the crossing, but an
	// earlier-tier match removes it from later tiers entirely.
	j1 := f.jam(t, pt(0, -30), pt(0, 300), pt(0, 630))

	matches, unmatched := m.MatchPage([]*geo.Jam{j1})
	assert.Empty(t, unmatched)
	require.Len(t, matches, 1)
	assert.Equal(t, match.TierContains, matches[0].Tier)
	assert.Equal(t, int64(1), matches[0].Section.Row.ID)
}

func TestMatchPage_MultipleSectionsWithinOneTier(t *testing.T) {
	f := newFixture(t)

	north := ruaNorte()
	farther := domain.RawSectionRow{
		ID: 5, StreetName: "Rua Norte", LengthMeters: 600,
		Start: pt(0, 600), Mid: pt(0, 900), End: pt(0, 1200),
	}
	m := match.New(f.sections(t, north, farther), discardLogger())

	// One long jam along both sections of the street: two contains-tier
	// facts for a single jam, intentionally not deduplicated.
	long := f.jam(t, pt(0, -30), pt(0, 600), pt(0, 1230))

	matches, unmatched := m.MatchPage([]*geo.Jam{long})
	assert.Empty(t, unmatched)
	assert.ElementsMatch(t, []string{
		fmt.Sprintf("%d->1:contains", long.Row.UUID),
		fmt.Sprintf("%d->5:contains", long.Row.UUID),
	}, pairKeys(matches))
}

func TestMatchPage_PaginationInvariance(t *testing.T) {
	f := newFixture(t)
	m := match.New(f.sections(t, ruaNorte(), avLeste()), discardLogger())

	jams := []*geo.Jam{
		f.jam(t, pt(0, -30), pt(0, 300), pt(0, 630)),
		f.jam(t, pt(-200, 305), pt(-50, 304), pt(100, 306)),
		f.jam(t, pt(-80, 250), pt(40, 480)),
		f.jam(t, pt(-200, 300), pt(200, 300)), // perpendicular, unmatched
		f.jam(t, pt(5, 80), pt(4, 520)),
	}

	all, allUnmatched := m.MatchPage(jams)

	var paged []match.Match
	var pagedUnmatched int
	for start := 0; start < len(jams); start += 2 {
		end := min(start+2, len(jams))
		matches, unmatched := m.MatchPage(jams[start:end])
		paged = append(paged, matches...)
		pagedUnmatched += len(unmatched)
	}

	assert.ElementsMatch(t, pairKeys(all), pairKeys(paged),
		"page boundaries must not change the produced pairs")
	assert.Equal(t, len(allUnmatched), pagedUnmatched)
}

// TestMatchPage_EndToEndScenario is the two-street, three-jam acceptance
// scenario: one jam per tier, each attributed to exactly one street.
func TestMatchPage_EndToEndScenario(t *testing.T) {
	f := newFixture(t)
	m := match.New(f.sections(t, ruaNorte(), avLeste()), discardLogger())

	j1 := f.jam(t, pt(0, -30), pt(0, 300), pt(0, 630))       // contains -> S1
	j2 := f.jam(t, pt(-200, 305), pt(-50, 304), pt(100, 306)) // within -> S2
	j3 := f.jam(t, pt(-80, 250), pt(40, 480))                 // intersects -> S1 only

	matches, unmatched := m.MatchPage([]*geo.Jam{j1, j2, j3})
	assert.Empty(t, unmatched)
	assert.ElementsMatch(t, []string{
		fmt.Sprintf("%d->1:contains", j1.Row.UUID),
		fmt.Sprintf("%d->2:within", j2.Row.UUID),
		fmt.Sprintf("%d->1:intersects", j3.Row.UUID),
	}, pairKeys(matches))
}
