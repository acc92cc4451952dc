package opendata

import (
	"context"

	"github.com/OK-LG/berlin-open-data/internal/coords"
)

// maxBuildings caps the footprints returned for one location.
const maxBuildings = 50

// Building is an ALKIS building footprint with its raw attributes.
type Building struct {
	Geometry   *Geometry      `json:"geometry" yaml:"geometry"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// BuildingFootprints returns the buildings intersecting p. No building at
// the location is a valid, empty answer.
func (s *Service) BuildingFootprints(ctx context.Context, p coords.WGS84) ([]Building, error) {
	utm, err := project(p)
	if err != nil {
		return nil, err
	}

	fc, err := s.queryAt(ctx, s.catalog.Buildings, utm, maxBuildings)
	if err != nil {
		return nil, err
	}

	buildings := make([]Building, 0, len(fc.Features))
	for _, f := range fc.Features {
		buildings = append(buildings, Building{
			Geometry:   reprojected(f.Geometry),
			Properties: f.Properties,
		})
	}
	return buildings, nil
}
