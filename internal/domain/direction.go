package domain

import "math"

// Coordinate is one point of an ordered polyline. For geographic sequences X
// is longitude and Y is latitude (the feed's {"x": lon, "y": lat} encoding);
// for planar sequences both are UTM meters.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Cardinal sense labels for the two axes of a polyline's net displacement.
const (
	North = "North"
	South = "South"
	East  = "East"
	West  = "West"
)

// Axis is the coarse cardinal orientation of a polyline or extent.
type Axis string

const (
	AxisNorthSouth Axis = "North/South"
	AxisEastWest   Axis = "East/West"
)

// Direction is the classification of an ordered coordinate sequence.
type Direction struct {
	Lon   string `json:"lon_direction"`
	Lat   string `json:"lat_direction"`
	Major Axis   `json:"major_direction"`
}

// ClassifyPath derives a Direction from the net displacement between the
// first and last points of line. Intermediate points are ignored. Sequences
// shorter than two points cannot be oriented and return ok == false; callers
// must exclude such entities from matching.
//
// Zero net displacement on both axes classifies as East/West, matching the
// reference feed processor.
func ClassifyPath(line []Coordinate) (Direction, bool) {
	if len(line) < 2 {
		return Direction{}, false
	}

	first, last := line[0], line[len(line)-1]
	deltaX := last.X - first.X
	deltaY := last.Y - first.Y

	d := Direction{Lon: East, Lat: North, Major: AxisEastWest}
	if deltaX < 0 {
		d.Lon = West
	}
	if deltaY < 0 {
		d.Lat = South
	}
	if math.Abs(deltaY) > math.Abs(deltaX) {
		d.Major = AxisNorthSouth
	}
	return d, true
}

// Extent is an axis-aligned bounding box in planar coordinates.
type Extent struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// ExtentOf computes the bounding box of one or more coordinates.
func ExtentOf(points ...Coordinate) Extent {
	e := Extent{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range points {
		e.MinX = math.Min(e.MinX, p.X)
		e.MinY = math.Min(e.MinY, p.Y)
		e.MaxX = math.Max(e.MaxX, p.X)
		e.MaxY = math.Max(e.MaxY, p.Y)
	}
	return e
}

// Union returns the smallest extent covering both e and o.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

// ClassifyExtent returns the major axis of a bounding box: North/South when
// the box is at least as tall as it is wide. Extents carry no travel sense,
// and the tie goes to North/South here, unlike ClassifyPath.
func ClassifyExtent(e Extent) Axis {
	if e.MaxY-e.MinY >= e.MaxX-e.MinX {
		return AxisNorthSouth
	}
	return AxisEastWest
}
