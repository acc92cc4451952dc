package opendata

import (
	"context"

	"github.com/OK-LG/berlin-open-data/internal/coords"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

// Parcel is a cadastral parcel (Flurstück) from ALKIS.
type Parcel struct {
	ID            string    `json:"flurstueck_id" yaml:"flurstueck_id"`
	Gemarkung     string    `json:"gemarkung" yaml:"gemarkung"`
	GemarkungCode string    `json:"gemarkung_code,omitempty" yaml:"gemarkung_code,omitempty"`
	Flur          string    `json:"flur" yaml:"flur"`
	Zaehler       string    `json:"zaehler" yaml:"zaehler"`
	Nenner        string    `json:"nenner,omitempty" yaml:"nenner,omitempty"`
	AreaSqm       float64   `json:"area_sqm" yaml:"area_sqm"`
	Boundary      *Geometry `json:"boundary_wgs84,omitempty" yaml:"boundary_wgs84,omitempty"`
}

// ParcelInfo returns the parcel containing p.
func (s *Service) ParcelInfo(ctx context.Context, p coords.WGS84) (*Parcel, error) {
	utm, err := project(p)
	if err != nil {
		return nil, err
	}

	src := s.catalog.Parcels
	fc, err := s.queryAt(ctx, src, utm, 1)
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, wfs.NoData(src.Layer, "No parcel found at this location")
	}

	f := fc.Features[0]
	pp := props(f.Properties)
	area, _ := pp.num("afl")
	return &Parcel{
		ID:            pp.str("fsko"),
		Gemarkung:     pp.str("namgmk"),
		GemarkungCode: pp.str("gmk"),
		Flur:          pp.str("fln"),
		Zaehler:       pp.str("zae"),
		Nenner:        pp.str("nen"),
		AreaSqm:       area,
		Boundary:      reprojected(f.Geometry),
	}, nil
}
