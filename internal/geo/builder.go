package geo

import (
	"fmt"

	"github.com/twpayne/go-geos"

	"github.com/urbanflows/jam-section-etl/internal/domain"
)

// bufferQuadSegs is the number of segments per quadrant used to approximate
// buffer arcs, the GEOS default.
const bufferQuadSegs = 8

// Section is a reference street segment with its derived geometry. Sections
// are built once per run and are read-only thereafter.
type Section struct {
	Row    domain.RawSectionRow
	Extent domain.Extent

	// StreetDirection is the corridor-level orientation, derived from the
	// aggregate extent of all sections sharing the street name.
	// SectionDirection is this section's own orientation; the two diverge on
	// curving or irregular streets.
	StreetDirection  domain.Axis
	SectionDirection domain.Axis

	// Thin and Fat are the polyline dilated by the main and alternate buffer
	// radii.
	Thin *geos.Geom
	Fat  *geos.Geom

	// DisplayLine is the three-point polyline in geographic coordinates, for
	// map display exports.
	DisplayLine []domain.Coordinate
}

// Jam is a congestion event with its derived geometry.
type Jam struct {
	Row       domain.RawJamRow
	Planar    []domain.Coordinate
	Direction domain.Direction
	Thin      *geos.Geom
	Fat       *geos.Geom
}

// Builder derives buffered geometry and orientations for sections and jams.
// It owns a single GEOS context; the context serializes access internally,
// so a Builder is safe to reuse across sequential pages.
type Builder struct {
	geosCtx    *geos.Context
	projector  *Projector
	thinRadius float64
	fatRadius  float64
}

// NewBuilder creates a Builder with the given buffer radii in meters.
func NewBuilder(projector *Projector, thinRadius, fatRadius float64) *Builder {
	return &Builder{
		geosCtx:    geos.NewContext(),
		projector:  projector,
		thinRadius: thinRadius,
		fatRadius:  fatRadius,
	}
}

// buffers dilates a planar polyline by the thin and fat radii.
func (b *Builder) buffers(line []domain.Coordinate) (thin, fat *geos.Geom) {
	coords := make([][]float64, len(line))
	for i, c := range line {
		coords[i] = []float64{c.X, c.Y}
	}
	ls := b.geosCtx.NewLineString(coords)
	return ls.Buffer(b.thinRadius, bufferQuadSegs), ls.Buffer(b.fatRadius, bufferQuadSegs)
}

// BuildSections derives geometry for the whole reference set in one pass.
// The set must be complete: street-level orientation depends on the
// aggregate extent of every section sharing a street name.
func (b *Builder) BuildSections(rows []domain.RawSectionRow) ([]*Section, error) {
	streetExtents := make(map[string]domain.Extent, len(rows))
	for _, row := range rows {
		e := row.Extent()
		if cur, ok := streetExtents[row.StreetName]; ok {
			e = cur.Union(e)
		}
		streetExtents[row.StreetName] = e
	}

	sections := make([]*Section, 0, len(rows))
	for _, row := range rows {
		display, err := b.projector.UnprojectLine(row.Points())
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", row.ID, err)
		}
		thin, fat := b.buffers(row.Points())
		sections = append(sections, &Section{
			Row:              row,
			Extent:           row.Extent(),
			StreetDirection:  domain.ClassifyExtent(streetExtents[row.StreetName]),
			SectionDirection: domain.ClassifyExtent(row.Extent()),
			Thin:             thin,
			Fat:              fat,
			DisplayLine:      display,
		})
	}
	return sections, nil
}

// BuildJam projects and buffers one jam. Jams whose polyline is too short to
// orient return ok == false and are excluded from matching; a projection
// domain failure is an error and aborts the run.
func (b *Builder) BuildJam(row domain.RawJamRow) (jam *Jam, ok bool, err error) {
	direction, ok := domain.ClassifyPath(row.Line)
	if !ok {
		return nil, false, nil
	}
	planar, err := b.projector.ProjectLine(row.Line)
	if err != nil {
		return nil, false, fmt.Errorf("jam %d: %w", row.UUID, err)
	}
	thin, fat := b.buffers(planar)
	return &Jam{
		Row:       row,
		Planar:    planar,
		Direction: direction,
		Thin:      thin,
		Fat:       fat,
	}, true, nil
}

// BuildJams builds a page of jams, returning the buildable ones and the
// count of degenerate rows skipped.
func (b *Builder) BuildJams(rows []domain.RawJamRow) (jams []*Jam, degenerate int, err error) {
	jams = make([]*Jam, 0, len(rows))
	for _, row := range rows {
		jam, ok, err := b.BuildJam(row)
		if err != nil {
			return nil, degenerate, err
		}
		if !ok {
			degenerate++
			continue
		}
		jams = append(jams, jam)
	}
	return jams, degenerate, nil
}
