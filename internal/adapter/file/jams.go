package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/urbanflows/jam-section-etl/internal/domain"
)

// JamStore serves the jam history in pages ordered by start time. The whole
// NDJSON file is loaded and sorted once at open; offset/limit paging over
// the in-memory slice is then trivially stable, which the page loop relies
// on. It implements pipeline.JamSource.
type JamStore struct {
	rows []domain.RawJamRow
}

// OpenJamStore reads and sorts the NDJSON jam history at path. Blank lines
// are ignored; a malformed line fails the open with its line number.
func OpenJamStore(path string) (*JamStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jams: %w", err)
	}
	defer f.Close()

	var rows []domain.RawJamRow
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var row domain.RawJamRow
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			return nil, fmt.Errorf("parse jams line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jams: %w", err)
	}

	// UUID breaks start-time ties so the page order is total.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].StartTime.Equal(rows[j].StartTime) {
			return rows[i].StartTime.Before(rows[j].StartTime)
		}
		return rows[i].UUID < rows[j].UUID
	})
	return &JamStore{rows: rows}, nil
}

// CountJams returns the total number of jam rows in the history.
func (s *JamStore) CountJams(_ context.Context) (int, error) {
	return len(s.rows), nil
}

// FetchPage returns rows [offset, offset+limit) of the sorted history. An
// offset at or past the end returns an empty page, not an error.
func (s *JamStore) FetchPage(_ context.Context, offset, limit int) ([]domain.RawJamRow, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("invalid page offset=%d limit=%d", offset, limit)
	}
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}
