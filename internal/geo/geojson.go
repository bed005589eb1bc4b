package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SectionsFeatureCollection renders section display polylines as a GeoJSON
// FeatureCollection for map inspection.
func SectionsFeatureCollection(sections []*Section) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range sections {
		line := make(orb.LineString, len(s.DisplayLine))
		for i, p := range s.DisplayLine {
			line[i] = orb.Point{p.X, p.Y}
		}
		feat := geojson.NewFeature(line)
		feat.Properties = geojson.Properties{
			"id":                s.Row.ID,
			"street":            s.Row.StreetName,
			"length_m":          s.Row.LengthMeters,
			"street_direction":  string(s.StreetDirection),
			"section_direction": string(s.SectionDirection),
		}
		fc.Append(feat)
	}
	return fc
}
