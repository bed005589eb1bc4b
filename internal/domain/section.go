package domain

// RawSectionRow is one reference street segment as loaded from the section
// catalog. The three characteristic points are planar UTM meters.
type RawSectionRow struct {
	ID           int64
	StreetName   string
	LengthMeters float64
	Start        Coordinate
	Mid          Coordinate
	End          Coordinate
}

// Points returns the three-point polyline in order.
func (r RawSectionRow) Points() []Coordinate {
	return []Coordinate{r.Start, r.Mid, r.End}
}

// Extent returns the bounding box of the three points.
func (r RawSectionRow) Extent() Extent {
	return ExtentOf(r.Start, r.Mid, r.End)
}
