// Package match implements the tiered spatial-join cascade that attributes
// jams to street sections.
package match

import (
	"log/slog"

	"github.com/tidwall/rtree"

	"github.com/urbanflows/jam-section-etl/internal/geo"
)

// Tier identifies the cascade stage that accepted a pair.
type Tier string

const (
	// TierContains accepts pairs where the jam's fat buffer contains the
	// section's thin buffer entirely: the noise-inflated trace swallows the
	// whole tight section corridor, strong positive evidence.
	TierContains Tier = "contains"

	// TierWithin swaps the tolerances: the jam's thin buffer lies wholly
	// within the section's fat corridor, catching traces with more
	// positional noise than TierContains assumes.
	TierWithin Tier = "within"

	// TierIntersects is the loosest geometric test (thin buffers overlap)
	// and over-generates at crossings, so it only accepts pairs whose
	// travel directions are compatible.
	TierIntersects Tier = "intersects"
)

// Match pairs one jam with one section it was attributed to.
type Match struct {
	Jam     *geo.Jam
	Section *geo.Section
	Tier    Tier
}

// Matcher runs the three-tier cascade against a fixed read-only section set.
// Candidate sections are prefiltered through a bounding-box rtree over the
// fat buffers before the exact GEOS predicates run.
type Matcher struct {
	index  rtree.RTree
	logger *slog.Logger
}

// New indexes the section set. The sections must not be mutated afterwards.
func New(sections []*geo.Section, logger *slog.Logger) *Matcher {
	m := &Matcher{logger: logger}
	for _, s := range sections {
		b := s.Fat.Bounds()
		m.index.Insert([2]float64{b.MinX, b.MinY}, [2]float64{b.MaxX, b.MaxY}, s)
	}
	return m
}

// candidates returns sections whose fat-buffer box intersects the jam's
// fat-buffer box. This is a superset of every tier's true candidates; the
// exact predicate decides.
func (m *Matcher) candidates(jam *geo.Jam) []*geo.Section {
	b := jam.Fat.Bounds()
	var out []*geo.Section
	m.index.Search([2]float64{b.MinX, b.MinY}, [2]float64{b.MaxX, b.MaxY},
		func(_, _ [2]float64, value interface{}) bool {
			out = append(out, value.(*geo.Section))
			return true
		})
	return out
}

// runTier evaluates one predicate over a page. A jam accepted against at
// least one section is matched (possibly many times within the tier); the
// rest carry over unchanged to the next tier.
func (m *Matcher) runTier(jams []*geo.Jam, tier Tier, accept func(*geo.Jam, *geo.Section) bool) (matches []Match, remaining []*geo.Jam) {
	for _, jam := range jams {
		found := false
		for _, section := range m.candidates(jam) {
			if accept(jam, section) {
				matches = append(matches, Match{Jam: jam, Section: section, Tier: tier})
				found = true
			}
		}
		if !found {
			remaining = append(remaining, jam)
		}
	}
	return matches, remaining
}

// directionCompatible reports whether the jam's major axis agrees with the
// section's street-level or section-level orientation. Perpendicular streets
// intersect jams at crossings; this filter discards those false positives.
func directionCompatible(jam *geo.Jam, section *geo.Section) bool {
	return jam.Direction.Major == section.StreetDirection ||
		jam.Direction.Major == section.SectionDirection
}

// MatchPage runs the full cascade over one page of jams. The tiers partition
// the page: a jam accepted by an earlier tier is never evaluated by a later
// one. Unmatched jams are returned for accounting; they produce no output.
func (m *Matcher) MatchPage(jams []*geo.Jam) (matches []Match, unmatched []*geo.Jam) {
	contains, rest := m.runTier(jams, TierContains, func(j *geo.Jam, s *geo.Section) bool {
		return j.Fat.Contains(s.Thin)
	})

	within, rest := m.runTier(rest, TierWithin, func(j *geo.Jam, s *geo.Section) bool {
		return j.Thin.Within(s.Fat)
	})

	intersects, rest := m.runTier(rest, TierIntersects, func(j *geo.Jam, s *geo.Section) bool {
		return j.Thin.Intersects(s.Thin) && directionCompatible(j, s)
	})

	for _, jam := range rest {
		m.logger.Debug("jam matched no section", "jam_uuid", jam.Row.UUID, "jam_start", jam.Row.StartTime)
	}

	matches = make([]Match, 0, len(contains)+len(within)+len(intersects))
	matches = append(matches, contains...)
	matches = append(matches, within...)
	matches = append(matches, intersects...)
	return matches, rest
}
