package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urbanflows/jam-section-etl/internal/domain"
)

// FactAppender appends attribution facts to an NDJSON file, one object per
// line. The file is opened in append mode so re-runs with a later start
// page extend the earlier output instead of truncating it. It implements
// pipeline.FactWriter.
type FactAppender struct {
	f   *os.File
	enc *json.Encoder
}

// NewFactAppender opens (or creates) the NDJSON fact file at path.
func NewFactAppender(path string) (*FactAppender, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open facts: %w", err)
	}
	return &FactAppender{f: f, enc: json.NewEncoder(f)}, nil
}

// WriteFacts appends one line per fact and syncs, so a page is durably on
// disk before the run advances past it.
func (a *FactAppender) WriteFacts(ctx context.Context, facts []domain.JamPerSection) error {
	for _, fact := range facts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.enc.Encode(fact); err != nil {
			return fmt.Errorf("append fact: %w", err)
		}
	}
	if err := a.f.Sync(); err != nil {
		return fmt.Errorf("sync facts: %w", err)
	}
	return nil
}

func (a *FactAppender) Close() error {
	return a.f.Close()
}
