// Package file provides the filesystem adapters: the CSV section cadastre,
// the NDJSON jam history, the NDJSON fact sink, and the GeoJSON display
// export.
package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urbanflows/jam-section-etl/internal/domain"
)

// sectionColumns is the required CSV header for the section cadastre.
var sectionColumns = []string{
	"id", "street_name", "length_m",
	"start_x", "start_y", "mid_x", "mid_y", "end_x", "end_y",
}

// SectionReader loads the street section cadastre from a CSV export.
// It implements pipeline.SectionSource.
type SectionReader struct {
	path string
}

// NewSectionReader creates a reader for the CSV file at path. The file is
// opened on each LoadSections call.
func NewSectionReader(path string) *SectionReader {
	return &SectionReader{path: path}
}

// LoadSections reads and parses every section row. Rows without a street
// name are skipped: the street-level direction aggregate needs a grouping
// key, and the cadastre export leaves the name blank for unnamed service
// roads.
func (r *SectionReader) LoadSections(ctx context.Context) ([]domain.RawSectionRow, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open sections: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read sections header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.RawSectionRow
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sections line %d: %w", line, err)
		}
		if rec[idx["street_name"]] == "" {
			continue
		}
		row, err := parseSectionRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("parse sections line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex maps required column names to their positions, tolerating
// extra columns and arbitrary ordering in the export.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range sectionColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("sections csv missing column %q", name)
		}
	}
	return idx, nil
}

func parseSectionRow(rec []string, idx map[string]int) (domain.RawSectionRow, error) {
	id, err := strconv.ParseInt(rec[idx["id"]], 10, 64)
	if err != nil {
		return domain.RawSectionRow{}, fmt.Errorf("id: %w", err)
	}
	length, err := strconv.ParseFloat(rec[idx["length_m"]], 64)
	if err != nil {
		return domain.RawSectionRow{}, fmt.Errorf("length_m: %w", err)
	}
	coords := make([]float64, 6)
	for i, col := range []string{"start_x", "start_y", "mid_x", "mid_y", "end_x", "end_y"} {
		coords[i], err = strconv.ParseFloat(rec[idx[col]], 64)
		if err != nil {
			return domain.RawSectionRow{}, fmt.Errorf("%s: %w", col, err)
		}
	}
	return domain.RawSectionRow{
		ID:           id,
		StreetName:   rec[idx["street_name"]],
		LengthMeters: length,
		Start:        domain.Coordinate{X: coords[0], Y: coords[1]},
		Mid:          domain.Coordinate{X: coords[2], Y: coords[3]},
		End:          domain.Coordinate{X: coords[4], Y: coords[5]},
	}, nil
}
