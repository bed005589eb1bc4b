// Command validate checks a fact file against the cadastre and jam history
// it was produced from. It verifies referential integrity, fact field
// consistency, and, by re-running the matching cascade over the inputs,
// that the fact set is exactly what the current code would produce.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -sections data/sections.csv \
//	  -jams data/jams.ndjson \
//	  -facts data/jams_per_section.ndjson
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urbanflows/jam-section-etl/internal/adapter/file"
	"github.com/urbanflows/jam-section-etl/internal/domain"
	"github.com/urbanflows/jam-section-etl/internal/geo"
	"github.com/urbanflows/jam-section-etl/internal/match"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	sectionsPath := flag.String("sections", "", "path to the sections CSV")
	jamsPath := flag.String("jams", "", "path to the jams NDJSON")
	factsPath := flag.String("facts", "", "path to the facts NDJSON")
	flag.Parse()

	if *sectionsPath == "" || *jamsPath == "" || *factsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*sectionsPath, *jamsPath, *factsPath); code != 0 {
		os.Exit(code)
	}
}

func run(sectionsPath, jamsPath, factsPath string) int {
	fmt.Println("=== Jam Attribution Integrity Validation ===")
	fmt.Println()

	ctx := context.Background()

	sections, err := file.NewSectionReader(sectionsPath).LoadSections(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load sections: %v\n", err)
		return 1
	}
	store, err := file.OpenJamStore(jamsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load jams: %v\n", err)
		return 1
	}
	total, _ := store.CountJams(ctx)
	jams, err := store.FetchPage(ctx, 0, max(total, 1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read jams: %v\n", err)
		return 1
	}
	facts, err := loadFacts(factsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load facts: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateInputs(sections, jams),
		validateReferences(facts, sections, jams),
		validateRematch(facts, sections, jams),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d sections, %d jams, %d facts\n", len(sections), len(jams), len(facts))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadFacts(path string) ([]domain.JamPerSection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var facts []domain.JamPerSection
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var fact domain.JamPerSection
		if err := json.Unmarshal(sc.Bytes(), &fact); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		facts = append(facts, fact)
	}
	return facts, sc.Err()
}

// ── Phase 1: Input Integrity ──
// Validates the cadastre and jam history on their own.

func validateInputs(sections []domain.RawSectionRow, jams []domain.RawJamRow) *phase {
	p := &phase{name: "Phase 1: Input Integrity"}

	seenSections := map[int64]bool{}
	for _, s := range sections {
		if seenSections[s.ID] {
			p.errorf("section %d: duplicate id", s.ID)
		}
		seenSections[s.ID] = true
		if s.LengthMeters <= 0 {
			p.errorf("section %d: non-positive length %g", s.ID, s.LengthMeters)
		}
	}

	seenJams := map[int64]bool{}
	for i, j := range jams {
		if seenJams[j.UUID] {
			p.errorf("jam %d: duplicate uuid", j.UUID)
		}
		seenJams[j.UUID] = true
		if j.StartTime.IsZero() {
			p.errorf("jam %d: zero start time", j.UUID)
		}
		if i > 0 && jams[i].StartTime.Before(jams[i-1].StartTime) {
			p.errorf("jam %d: out of start-time order after %d", j.UUID, jams[i-1].UUID)
		}
	}
	return p
}

// ── Phase 2: Referential Integrity ──
// Every fact must point at a real jam and a real section, with the jam's
// own start time and a known tier.

func validateReferences(facts []domain.JamPerSection, sections []domain.RawSectionRow, jams []domain.RawJamRow) *phase {
	p := &phase{name: "Phase 2: Referential Integrity"}

	sectionIDs := make(map[int64]bool, len(sections))
	for _, s := range sections {
		sectionIDs[s.ID] = true
	}
	jamsByUUID := make(map[int64]domain.RawJamRow, len(jams))
	for _, j := range jams {
		jamsByUUID[j.UUID] = j
	}
	validTiers := map[string]bool{
		string(match.TierContains):   true,
		string(match.TierWithin):     true,
		string(match.TierIntersects): true,
	}

	for i, f := range facts {
		jam, ok := jamsByUUID[f.JamUUID]
		if !ok {
			p.errorf("fact %d: unknown jam uuid %d", i, f.JamUUID)
		} else if !f.JamStartTime.Equal(jam.StartTime) {
			p.errorf("fact %d: start time %s does not match jam %d's %s",
				i, f.JamStartTime, f.JamUUID, jam.StartTime)
		}
		if !sectionIDs[f.SectionID] {
			p.errorf("fact %d: unknown section id %d", i, f.SectionID)
		}
		if !validTiers[f.Tier] {
			p.errorf("fact %d: unknown tier %q", i, f.Tier)
		}
		if f.MatchedAt.IsZero() {
			p.errorf("fact %d: zero matched_at", i)
		}
	}
	return p
}

// ── Phase 3: Rematch ──
// Re-runs the cascade over the inputs and compares the produced pairs with
// the fact file.

func validateRematch(facts []domain.JamPerSection, sections []domain.RawSectionRow, jams []domain.RawJamRow) *phase {
	p := &phase{name: "Phase 3: Rematch (cascade replay)"}

	projector, err := geo.NewProjector(22, true)
	if err != nil {
		p.errorf("projector: %v", err)
		return p
	}
	builder := geo.NewBuilder(projector, 10, 20)

	geoSections, err := builder.BuildSections(sections)
	if err != nil {
		p.errorf("build sections: %v", err)
		return p
	}
	geoJams, degenerate, err := builder.BuildJams(jams)
	if err != nil {
		p.errorf("build jams: %v", err)
		return p
	}
	if degenerate > 0 {
		fmt.Printf("  Note: %d degenerate jam(s) skipped during rematch\n", degenerate)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	matches, _ := match.New(geoSections, logger).MatchPage(geoJams)

	type key struct {
		uuid, section int64
		tier          string
	}
	expected := map[key]int{}
	for _, m := range matches {
		expected[key{m.Jam.Row.UUID, m.Section.Row.ID, string(m.Tier)}]++
	}
	actual := map[key]int{}
	for _, f := range facts {
		actual[key{f.JamUUID, f.SectionID, f.Tier}]++
	}

	for k, n := range expected {
		if actual[k] != n {
			p.errorf("pair %d->%d:%s: expected %d fact(s), found %d", k.uuid, k.section, k.tier, n, actual[k])
		}
	}
	for k, n := range actual {
		if expected[k] == 0 {
			p.errorf("pair %d->%d:%s: %d fact(s) not reproduced by rematch", k.uuid, k.section, k.tier, n)
		}
	}
	return p
}
