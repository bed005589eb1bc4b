// Package geo derives planar geometry for sections and jams: a fixed UTM
// projection, buffered polylines, and orientation classifications.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/wroge/wgs84"

	"github.com/urbanflows/jam-section-etl/internal/domain"
)

// ErrInvalidCoordinate reports input outside the projection domain. No valid
// geometry can be built without a working transform, so callers treat it as
// fatal to the run.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Projector converts between geographic WGS84 longitude/latitude and planar
// UTM meters for one fixed zone. It is built once per run from configuration
// and shared by every caller.
type Projector struct {
	zone     int
	southern bool
	forward  wgs84.Func
	inverse  wgs84.Func
}

// NewProjector builds a projector for the given UTM zone and hemisphere.
func NewProjector(zone int, southern bool) (*Projector, error) {
	if zone < 1 || zone > 60 {
		return nil, fmt.Errorf("utm zone %d out of range: %w", zone, ErrInvalidCoordinate)
	}
	utm := wgs84.UTM(float64(zone), !southern)
	return &Projector{
		zone:     zone,
		southern: southern,
		forward:  wgs84.LonLat().To(utm),
		inverse:  utm.To(wgs84.LonLat()),
	}, nil
}

// Zone returns the configured UTM zone number.
func (p *Projector) Zone() int { return p.zone }

// Southern reports whether the projection uses the southern hemisphere
// false northing.
func (p *Projector) Southern() bool { return p.southern }

// ToPlanar projects a geographic coordinate to UTM meters.
func (p *Projector) ToPlanar(lon, lat float64) (x, y float64, err error) {
	if !finite(lon) || !finite(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("lon=%v lat=%v: %w", lon, lat, ErrInvalidCoordinate)
	}
	x, y, _ = p.forward(lon, lat, 0)
	return x, y, nil
}

// ToGeographic converts UTM meters back to a geographic coordinate.
func (p *Projector) ToGeographic(x, y float64) (lon, lat float64, err error) {
	if !finite(x) || !finite(y) {
		return 0, 0, fmt.Errorf("x=%v y=%v: %w", x, y, ErrInvalidCoordinate)
	}
	lon, lat, _ = p.inverse(x, y, 0)
	return lon, lat, nil
}

// ProjectLine projects a geographic polyline to planar coordinates.
func (p *Projector) ProjectLine(line []domain.Coordinate) ([]domain.Coordinate, error) {
	out := make([]domain.Coordinate, len(line))
	for i, c := range line {
		x, y, err := p.ToPlanar(c.X, c.Y)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = domain.Coordinate{X: x, Y: y}
	}
	return out, nil
}

// UnprojectLine converts a planar polyline to geographic coordinates.
func (p *Projector) UnprojectLine(line []domain.Coordinate) ([]domain.Coordinate, error) {
	out := make([]domain.Coordinate, len(line))
	for i, c := range line {
		lon, lat, err := p.ToGeographic(c.X, c.Y)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = domain.Coordinate{X: lon, Y: lat}
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
