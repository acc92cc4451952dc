package opendata

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OK-LG/berlin-open-data/internal/coords"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

// PlanStatus is the lifecycle state of a development plan.
type PlanStatus string

const (
	PlanInPreparation  PlanStatus = "in_preparation"
	PlanLegallyBinding PlanStatus = "legally_binding"
	PlanLifted         PlanStatus = "lifted"
)

// DevelopmentPlan is a Bebauungsplan (B-Plan) covering a location.
type DevelopmentPlan struct {
	Name        string     `json:"name" yaml:"name"`
	Status      PlanStatus `json:"status" yaml:"status"`
	GazetteDate string     `json:"gazette_date,omitempty" yaml:"gazette_date,omitempty"`
	Boundary    *Geometry  `json:"boundary_wgs84,omitempty" yaml:"boundary_wgs84,omitempty"`
}

// RedevelopmentType is the procedure of a redevelopment area.
type RedevelopmentType string

const (
	RedevelopmentComprehensive RedevelopmentType = "comprehensive"
	RedevelopmentSimplified    RedevelopmentType = "simplified"
	RedevelopmentLifted        RedevelopmentType = "lifted"
)

// RedevelopmentArea is a Sanierungsgebiet covering a location.
type RedevelopmentArea struct {
	Name            string            `json:"name" yaml:"name"`
	Type            RedevelopmentType `json:"type" yaml:"type"`
	DesignationDate string            `json:"designation_date,omitempty" yaml:"designation_date,omitempty"`
	Boundary        *Geometry         `json:"boundary_wgs84,omitempty" yaml:"boundary_wgs84,omitempty"`
}

// taggedLayer pairs a source with the tag stamped on each of its features.
type taggedLayer[T any] struct {
	source wfs.Source
	tag    T
}

// queryLayers queries every layer concurrently and maps the features in
// layer order, regardless of which query finishes first. A failing layer
// contributes nothing.
func queryLayers[T, E any](ctx context.Context, s *Service, p coords.UTM, layers []taggedLayer[T], build func(wfs.Feature, T) E) []E {
	results := make([][]wfs.Feature, len(layers))

	var g errgroup.Group
	for i, l := range layers {
		g.Go(func() error {
			fc, err := s.queryAt(ctx, l.source, p, 0)
			if err != nil {
				zap.L().Warn("opendata: layer query failed, treating as empty",
					zap.String("source", l.source.TypeName),
					zap.Error(err),
				)
				return nil
			}
			results[i] = fc.Features
			return nil
		})
	}
	_ = g.Wait()

	out := make([]E, 0)
	for i, features := range results {
		for _, f := range features {
			out = append(out, build(f, layers[i].tag))
		}
	}
	return out
}

// DevelopmentPlans returns the development plans at p, ordered in
// preparation, legally binding, lifted.
func (s *Service) DevelopmentPlans(ctx context.Context, p coords.WGS84) ([]DevelopmentPlan, error) {
	utm, err := project(p)
	if err != nil {
		return nil, err
	}

	layers := []taggedLayer[PlanStatus]{
		{s.catalog.PlansInPreparation, PlanInPreparation},
		{s.catalog.PlansLegallyBinding, PlanLegallyBinding},
		{s.catalog.PlansLifted, PlanLifted},
	}
	return queryLayers(ctx, s, utm, layers, func(f wfs.Feature, status PlanStatus) DevelopmentPlan {
		pp := props(f.Properties)
		return DevelopmentPlan{
			Name:        pp.firstOr("Unknown", areaNameKeys...),
			Status:      status,
			GazetteDate: pp.first(planDateKeys...),
			Boundary:    reprojected(f.Geometry),
		}
	}), nil
}

// RedevelopmentAreas returns the redevelopment areas at p, ordered
// comprehensive, simplified, lifted.
func (s *Service) RedevelopmentAreas(ctx context.Context, p coords.WGS84) ([]RedevelopmentArea, error) {
	utm, err := project(p)
	if err != nil {
		return nil, err
	}

	layers := []taggedLayer[RedevelopmentType]{
		{s.catalog.RedevelopmentComprehensive, RedevelopmentComprehensive},
		{s.catalog.RedevelopmentSimplified, RedevelopmentSimplified},
		{s.catalog.RedevelopmentLifted, RedevelopmentLifted},
	}
	return queryLayers(ctx, s, utm, layers, func(f wfs.Feature, typ RedevelopmentType) RedevelopmentArea {
		pp := props(f.Properties)
		return RedevelopmentArea{
			Name:            pp.firstOr("Unknown", areaNameKeys...),
			Type:            typ,
			DesignationDate: pp.first(redevelopmentDateKeys...),
			Boundary:        reprojected(f.Geometry),
		}
	}), nil
}
