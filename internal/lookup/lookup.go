// Package lookup aggregates every property dataset for a postal address.
package lookup

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OK-LG/berlin-open-data/internal/coords"
	"github.com/OK-LG/berlin-open-data/internal/opendata"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

// Section names used as keys in PropertyReport.Degraded.
const (
	SectionParcel             = "parcel"
	SectionBuildings          = "buildings"
	SectionLandUsePlan        = "land_use_plan"
	SectionLandValue          = "bodenrichtwert"
	SectionDevelopmentPlans   = "development_plans"
	SectionRedevelopmentAreas = "redevelopment_areas"
)

// PropertyReport is the combined view of one address. Sections that could
// not be retrieved are nil or empty and listed in Degraded with the error
// code that caused it.
type PropertyReport struct {
	Address            opendata.GeocodedAddress     `json:"address" yaml:"address"`
	Parcel             *opendata.Parcel             `json:"parcel,omitempty" yaml:"parcel,omitempty"`
	Buildings          []opendata.Building          `json:"buildings" yaml:"buildings"`
	LandUsePlan        *opendata.LandUsePlan        `json:"land_use_plan,omitempty" yaml:"land_use_plan,omitempty"`
	LandValue          *opendata.LandValue          `json:"bodenrichtwert,omitempty" yaml:"bodenrichtwert,omitempty"`
	DevelopmentPlans   []opendata.DevelopmentPlan   `json:"development_plans" yaml:"development_plans"`
	RedevelopmentAreas []opendata.RedevelopmentArea `json:"redevelopment_areas" yaml:"redevelopment_areas"`
	Degraded           map[string]wfs.Code          `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// Orchestrator runs the per-location queries for an address.
type Orchestrator struct {
	svc *opendata.Service
}

// New creates an Orchestrator backed by svc.
func New(svc *opendata.Service) *Orchestrator {
	return &Orchestrator{svc: svc}
}

// Lookup geocodes in and then queries every dataset at the resolved point
// concurrently. A geocoding failure is returned as is; any later failure
// only removes its section from the report.
func (o *Orchestrator) Lookup(ctx context.Context, in opendata.AddressInput) (*PropertyReport, error) {
	addr, err := o.svc.GeocodeAddress(ctx, in)
	if err != nil {
		return nil, err
	}

	report := &PropertyReport{
		Address:            *addr,
		Buildings:          []opendata.Building{},
		DevelopmentPlans:   []opendata.DevelopmentPlan{},
		RedevelopmentAreas: []opendata.RedevelopmentArea{},
	}
	p := addr.Coordinates.WGS84

	var mu sync.Mutex
	degrade := func(section string, err error) {
		code := wfs.CodeOf(err)
		zap.L().Warn("lookup: section unavailable",
			zap.String("section", section),
			zap.String("code", string(code)),
			zap.Stringer("address", addr),
			zap.Error(err),
		)
		mu.Lock()
		defer mu.Unlock()
		if report.Degraded == nil {
			report.Degraded = make(map[string]wfs.Code)
		}
		report.Degraded[section] = code
	}

	var g errgroup.Group
	run(ctx, &g, p, o.svc.ParcelInfo, func(v *opendata.Parcel) { report.Parcel = v }, SectionParcel, degrade)
	run(ctx, &g, p, o.svc.BuildingFootprints, func(v []opendata.Building) { report.Buildings = v }, SectionBuildings, degrade)
	run(ctx, &g, p, o.svc.LandUsePlan, func(v *opendata.LandUsePlan) { report.LandUsePlan = v }, SectionLandUsePlan, degrade)
	run(ctx, &g, p, o.svc.LandValue, func(v *opendata.LandValue) { report.LandValue = v }, SectionLandValue, degrade)
	run(ctx, &g, p, o.svc.DevelopmentPlans, func(v []opendata.DevelopmentPlan) { report.DevelopmentPlans = v }, SectionDevelopmentPlans, degrade)
	run(ctx, &g, p, o.svc.RedevelopmentAreas, func(v []opendata.RedevelopmentArea) { report.RedevelopmentAreas = v }, SectionRedevelopmentAreas, degrade)
	_ = g.Wait()

	return report, nil
}

// run starts one section query. Each section writes a distinct report field,
// so only the degraded map needs locking.
func run[T any](
	ctx context.Context,
	g *errgroup.Group,
	p coords.WGS84,
	query func(context.Context, coords.WGS84) (T, error),
	store func(T),
	section string,
	degrade func(string, error),
) {
	g.Go(func() error {
		v, err := query(ctx, p)
		if err != nil {
			degrade(section, err)
			return nil
		}
		store(v)
		return nil
	})
}
