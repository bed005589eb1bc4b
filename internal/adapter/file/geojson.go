package file

import (
	"fmt"
	"os"

	"github.com/urbanflows/jam-section-etl/internal/geo"
)

// ExportSectionsGeoJSON writes the section display polylines as a GeoJSON
// FeatureCollection for map inspection of a run's reference geometry.
func ExportSectionsGeoJSON(path string, sections []*geo.Section) error {
	data, err := geo.SectionsFeatureCollection(sections).MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal sections geojson: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sections geojson: %w", err)
	}
	return nil
}
