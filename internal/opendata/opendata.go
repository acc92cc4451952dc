// Package opendata turns raw Berlin WFS features into typed property
// information: addresses, parcels, buildings, land use, development plans,
// redevelopment areas and land values.
package opendata

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/OK-LG/berlin-open-data/internal/coords"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

// Service runs the domain queries against a WFS backend.
type Service struct {
	wfs     wfs.Querier
	catalog wfs.Catalog
}

// NewService creates a Service querying the sources in catalog through q.
func NewService(q wfs.Querier, catalog wfs.Catalog) *Service {
	return &Service{wfs: q, catalog: catalog}
}

// Catalog returns the sources the service queries.
func (s *Service) Catalog() wfs.Catalog {
	return s.catalog
}

// queryAt runs a point intersection query against src at p.
func (s *Service) queryAt(ctx context.Context, src wfs.Source, p coords.UTM, maxFeatures int) (*wfs.FeatureCollection, error) {
	return wfs.QueryAtPoint(ctx, s.wfs, src, p.X, p.Y, maxFeatures)
}

// project validates p and converts it to the projected system used by every
// layer. Points outside Berlin are queried anyway; the services simply return
// nothing for them.
func project(p coords.WGS84) (coords.UTM, error) {
	if err := p.Validate(); err != nil {
		return coords.UTM{}, &wfs.Error{
			Code:    wfs.CodeInvalidCoordinates,
			Message: err.Error(),
			Err:     err,
		}
	}
	if !coords.IsWithinBerlin(p) {
		zap.L().Debug("opendata: point outside Berlin bounding box",
			zap.Float64("lat", p.Lat),
			zap.Float64("lon", p.Lon),
		)
	}
	return coords.ToUTM(p), nil
}

// Geometry is a WGS84 geometry that serializes as GeoJSON.
type Geometry struct {
	geom.T
}

// reprojected converts a source geometry to a WGS84 Geometry, or nil.
func reprojected(g geom.T) *Geometry {
	if g == nil {
		return nil
	}
	return &Geometry{T: coords.ReprojectGeometry(g)}
}

// MarshalJSON encodes the geometry as a GeoJSON geometry object.
func (g *Geometry) MarshalJSON() ([]byte, error) {
	if g == nil || g.T == nil {
		return []byte("null"), nil
	}
	data, err := geojson.Marshal(g.T)
	if err != nil {
		return nil, eris.Wrap(err, "opendata: encode geometry")
	}
	return data, nil
}

// MarshalYAML renders the same GeoJSON structure for YAML output.
func (g *Geometry) MarshalYAML() (any, error) {
	data, err := g.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "opendata: re-decode geometry")
	}
	return v, nil
}
