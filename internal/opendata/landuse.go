package opendata

import (
	"context"

	"github.com/OK-LG/berlin-open-data/internal/coords"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

// Designation is a Flächennutzungsplan (FNP) land use category.
type Designation struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// LandUsePlan is the FNP designation covering a location.
type LandUsePlan struct {
	Designation Designation `json:"designation" yaml:"designation"`
	Boundary    *Geometry   `json:"boundary_wgs84,omitempty" yaml:"boundary_wgs84,omitempty"`
}

// fnpDesignations maps FNP codes to their German name and English description.
var fnpDesignations = map[string]Designation{
	"W":   {Name: "Wohnbaufläche", Description: "Residential area"},
	"M":   {Name: "Gemischte Baufläche", Description: "Mixed-use area"},
	"GE":  {Name: "Gewerbliche Baufläche", Description: "Commercial area"},
	"GI":  {Name: "Industriegebiet", Description: "Industrial area"},
	"S":   {Name: "Sonderbaufläche", Description: "Special building area"},
	"G":   {Name: "Grünfläche", Description: "Green space"},
	"W/M": {Name: "Wohnbaufläche/Gemischte Baufläche", Description: "Residential/Mixed-use area"},
	"V":   {Name: "Verkehrsfläche", Description: "Traffic/Transportation area"},
	"F":   {Name: "Fläche für die Landwirtschaft", Description: "Agricultural area"},
	"WA":  {Name: "Waldgebiet", Description: "Forest area"},
	"WS":  {Name: "Wasserfläche", Description: "Water body"},
}

// LookupDesignation resolves an FNP code. Unmapped codes are returned with
// the code as name rather than failing.
func LookupDesignation(code string) Designation {
	d, ok := fnpDesignations[code]
	if !ok {
		return Designation{Code: code, Name: code, Description: "Unknown designation"}
	}
	d.Code = code
	return d
}

// LandUsePlan returns the FNP designation at p.
func (s *Service) LandUsePlan(ctx context.Context, p coords.WGS84) (*LandUsePlan, error) {
	utm, err := project(p)
	if err != nil {
		return nil, err
	}

	src := s.catalog.LandUsePlan
	fc, err := s.queryAt(ctx, src, utm, 1)
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, wfs.NoData(src.Layer, "No land use plan data at this location")
	}

	f := fc.Features[0]
	code := props(f.Properties).firstOr("Unknown", landUseCodeKeys...)
	return &LandUsePlan{
		Designation: LookupDesignation(code),
		Boundary:    reprojected(f.Geometry),
	}, nil
}
