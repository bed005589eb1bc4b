// Command genmock generates a synthetic street cadastre and jam history for
// local runs and load tests. It uses the actual projection and geometry
// packages so the generated jams land on the generated sections the way real
// feed data would.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -sections-out data/sections.csv \
//	  -jams-out data/jams.ndjson \
//	  -streets 40 -jams 5000 -seed 1
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urbanflows/jam-section-etl/internal/domain"
	"github.com/urbanflows/jam-section-etl/internal/geo"
)

// The synthetic grid sits in UTM zone 22 south near Porto Alegre.
const (
	baseEasting       = 480_000.0
	baseNorthing      = 6_675_000.0
	blockMeters       = 300.0
	sectionsPerStreet = 4
)

var baseDate = time.Date(2026, time.March, 14, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	sectionsOut := flag.String("sections-out", "", "output path for the sections CSV")
	jamsOut := flag.String("jams-out", "", "output path for the jams NDJSON")
	streets := flag.Int("streets", 40, "number of streets in the grid")
	jams := flag.Int("jams", 5000, "number of jam rows to generate")
	seed := flag.Int64("seed", 1, "PRNG seed")
	flag.Parse()

	if *sectionsOut == "" || *jamsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -sections-out, -jams-out")
	}

	projector, err := geo.NewProjector(22, true)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(*seed))

	sections := generateSections(*streets)
	if err := writeSectionsCSV(*sectionsOut, sections); err != nil {
		return fmt.Errorf("writing sections: %w", err)
	}
	log.Printf("wrote %d sections: %s", len(sections), *sectionsOut)

	rows, err := generateJams(rng, projector, sections, *jams)
	if err != nil {
		return err
	}
	if err := writeJamsNDJSON(*jamsOut, rows); err != nil {
		return fmt.Errorf("writing jams: %w", err)
	}
	log.Printf("wrote %d jams: %s", len(rows), *jamsOut)
	return nil
}

// generateSections lays out a grid: even streets run north-south, odd
// streets run east-west, each split into consecutive sections.
func generateSections(streets int) []domain.RawSectionRow {
	var rows []domain.RawSectionRow
	id := int64(100)
	for s := 0; s < streets; s++ {
		vertical := s%2 == 0
		lane := float64(s/2) * blockMeters
		name := fmt.Sprintf("Rua %d Norte", s/2+1)
		if !vertical {
			name = fmt.Sprintf("Av %d Leste", s/2+1)
		}
		for k := 0; k < sectionsPerStreet; k++ {
			along := float64(k) * blockMeters
			mk := func(d float64) domain.Coordinate {
				if vertical {
					return domain.Coordinate{X: baseEasting + lane, Y: baseNorthing + along + d}
				}
				return domain.Coordinate{X: baseEasting + along + d, Y: baseNorthing + lane}
			}
			id++
			rows = append(rows, domain.RawSectionRow{
				ID:           id,
				StreetName:   name,
				LengthMeters: blockMeters,
				Start:        mk(0),
				Mid:          mk(blockMeters / 2),
				End:          mk(blockMeters),
			})
		}
	}
	return rows
}

// generateJams places each jam along a random section with small lateral
// jitter, so most jams attribute cleanly while a few fall to later tiers.
func generateJams(rng *rand.Rand, projector *geo.Projector, sections []domain.RawSectionRow, count int) ([]domain.RawJamRow, error) {
	rows := make([]domain.RawJamRow, 0, count)
	for i := 0; i < count; i++ {
		s := sections[rng.Intn(len(sections))]
		vertical := s.Start.X == s.End.X

		// Jam span along the section, with jitter across it.
		from := rng.Float64() * blockMeters * 0.4
		to := blockMeters - rng.Float64()*blockMeters*0.4
		jitter := rng.NormFloat64() * 3

		var planar []domain.Coordinate
		for _, along := range []float64{from, (from + to) / 2, to} {
			if vertical {
				planar = append(planar, domain.Coordinate{X: s.Start.X + jitter, Y: s.Start.Y + along})
			} else {
				planar = append(planar, domain.Coordinate{X: s.Start.X + along, Y: s.Start.Y + jitter})
			}
		}
		line, err := projector.UnprojectLine(planar)
		if err != nil {
			return nil, fmt.Errorf("jam %d: %w", i, err)
		}

		start := baseDate.Add(time.Duration(rng.Intn(12*3600)) * time.Second)
		uuid := int64(1_000_000 + i)
		rows = append(rows, domain.RawJamRow{
			ID:           uuid,
			UUID:         uuid,
			StartTime:    start,
			EndTime:      start.Add(time.Duration(2+rng.Intn(20)) * time.Minute),
			Street:       s.StreetName,
			City:         "Porto Alegre",
			SpeedMPS:     rng.Float64() * 4,
			DelaySeconds: 60 + rng.Intn(900),
			LengthMeters: int(to - from),
			Level:        1 + rng.Intn(5),
			Line:         line,
		})
	}
	return rows, nil
}

func writeSectionsCSV(path string, rows []domain.RawSectionRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "street_name", "length_m", "start_x", "start_y", "mid_x", "mid_y", "end_x", "end_y"}); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10), r.StreetName, ff(r.LengthMeters),
			ff(r.Start.X), ff(r.Start.Y), ff(r.Mid.X), ff(r.Mid.Y), ff(r.End.X), ff(r.End.Y),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJamsNDJSON(path string, rows []domain.RawJamRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
