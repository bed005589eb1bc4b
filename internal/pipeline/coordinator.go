// Package pipeline orchestrates the paged batch run: load sections once,
// page jams in start-time order, match, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/urbanflows/jam-section-etl/internal/domain"
	"github.com/urbanflows/jam-section-etl/internal/geo"
	"github.com/urbanflows/jam-section-etl/internal/match"
	"github.com/urbanflows/jam-section-etl/internal/observability"
)

// SectionSource loads the full reference section set.
type SectionSource interface {
	LoadSections(ctx context.Context) ([]domain.RawSectionRow, error)
}

// JamSource pages jam rows in ascending start-time order. The order must be
// stable for the duration of a run: offset/limit paging assumes the
// underlying history is append-only and not mutated during the scan.
type JamSource interface {
	CountJams(ctx context.Context) (int, error)
	FetchPage(ctx context.Context, offset, limit int) ([]domain.RawJamRow, error)
}

// FactWriter appends attribution facts to the output store.
type FactWriter interface {
	WriteFacts(ctx context.Context, facts []domain.JamPerSection) error
}

// Summary reports what a completed run did.
type Summary struct {
	Sections   int
	Pages      int
	Jams       int
	Degenerate int
	Unmatched  int
	Matches    int
}

// Coordinator drives the batch. Pages are processed strictly in sequence; a
// fetch, build, or persist failure aborts the run with the failing page in
// the error. Re-running with StartPage set past the last logged successful
// page resumes without reprocessing.
type Coordinator struct {
	sections  SectionSource
	jams      JamSource
	facts     FactWriter
	builder   *geo.Builder
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	pageSize  int
	startPage int

	ready       atomic.Bool
	geoSections []*geo.Section
}

// New creates a Coordinator. pageSize must be positive; startPage of zero
// processes the whole history.
func New(
	sections SectionSource,
	jams JamSource,
	facts FactWriter,
	builder *geo.Builder,
	logger *slog.Logger,
	metrics *observability.Metrics,
	clock clockwork.Clock,
	pageSize int,
	startPage int,
) *Coordinator {
	return &Coordinator{
		sections:  sections,
		jams:      jams,
		facts:     facts,
		builder:   builder,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		pageSize:  pageSize,
		startPage: startPage,
	}
}

// CheckReadiness returns nil once at least one page has been fully
// persisted.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no page has been persisted yet")
	}
	return nil
}

// Sections returns the geometric section set built by Run, for display
// exports. Nil before Run has loaded them.
func (c *Coordinator) Sections() []*geo.Section { return c.geoSections }

// Run executes the batch: all pages from startPage to the end of the jam
// history. It returns a Summary on success and the first error otherwise.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	rows, err := c.sections.LoadSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	c.geoSections, err = c.builder.BuildSections(rows)
	if err != nil {
		return nil, fmt.Errorf("build sections: %w", err)
	}
	matcher := match.New(c.geoSections, c.logger)
	c.metrics.SectionsLoaded.Set(float64(len(c.geoSections)))

	total, err := c.jams.CountJams(ctx)
	if err != nil {
		return nil, fmt.Errorf("count jams: %w", err)
	}
	pages := (total + c.pageSize - 1) / c.pageSize

	summary := &Summary{Sections: len(c.geoSections), Pages: pages}
	c.logger.Info("batch started",
		"sections", len(c.geoSections), "jams", total,
		"pages", pages, "page_size", c.pageSize, "start_page", c.startPage)

	c.metrics.BatchRunning.Set(1)
	defer c.metrics.BatchRunning.Set(0)

	for page := c.startPage; page < pages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if err := c.processPage(ctx, matcher, page, pages, summary); err != nil {
			return nil, err
		}
	}

	c.logger.Info("batch complete",
		"pages", pages, "jams", summary.Jams, "matches", summary.Matches,
		"unmatched", summary.Unmatched, "degenerate", summary.Degenerate)
	return summary, nil
}

// processPage runs one fetch-build-match-persist cycle.
func (c *Coordinator) processPage(ctx context.Context, matcher *match.Matcher, page, pages int, summary *Summary) error {
	start := c.clock.Now()

	rows, err := c.jams.FetchPage(ctx, page*c.pageSize, c.pageSize)
	if err != nil {
		return fmt.Errorf("fetch page %d: %w", page, err)
	}

	jams, degenerate, err := c.builder.BuildJams(rows)
	if err != nil {
		return fmt.Errorf("build page %d: %w", page, err)
	}
	if degenerate > 0 {
		c.logger.Warn("skipped jams with unusable polylines", "page", page, "count", degenerate)
	}

	matches, unmatched := matcher.MatchPage(jams)

	facts := make([]domain.JamPerSection, len(matches))
	for i, m := range matches {
		facts[i] = domain.NewJamPerSection(m.Jam.Row.StartTime, m.Jam.Row.UUID, m.Section.Row.ID, string(m.Tier))
		c.metrics.MatchesProduced.WithLabelValues(string(m.Tier)).Inc()
	}

	if err := c.facts.WriteFacts(ctx, facts); err != nil {
		return fmt.Errorf("persist page %d: %w", page, err)
	}
	c.ready.Store(true)

	summary.Jams += len(rows)
	summary.Degenerate += degenerate
	summary.Unmatched += len(unmatched)
	summary.Matches += len(facts)

	c.metrics.JamsProcessed.Add(float64(len(rows)))
	c.metrics.DegenerateJams.Add(float64(degenerate))
	c.metrics.UnmatchedJams.Add(float64(len(unmatched)))
	c.metrics.PagesCompleted.Inc()

	elapsed := c.clock.Since(start)
	c.metrics.PageDuration.Observe(elapsed.Seconds())
	c.logger.Info("page stored",
		"page", page+1, "pages", pages,
		"jams", len(rows), "matches", len(facts),
		"unmatched", len(unmatched), "elapsed", elapsed)
	return nil
}
