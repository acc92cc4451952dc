package wfs

import (
	"fmt"
	"strings"
)

// DefaultBaseURL is the Berlin GDI WFS root.
const DefaultBaseURL = "https://gdi.berlin.de/services/wfs"

// DefaultLandValueYear is the most recent BORIS land value dataset.
const DefaultLandValueYear = 2025

// Source identifies one WFS feature type.
type Source struct {
	// Layer is the short service name surfaced in NO_DATA_AT_LOCATION errors.
	Layer          string
	BaseURL        string
	TypeName       string
	GeometryColumn string
}

// Catalog lists every Berlin source the adapters query.
type Catalog struct {
	Addresses   Source
	Parcels     Source
	Buildings   Source
	LandUsePlan Source

	// Development plans (Bebauungspläne) by lifecycle state.
	PlansInPreparation  Source
	PlansLegallyBinding Source
	PlansLifted         Source

	// Redevelopment areas (Sanierungsgebiete) by procedure.
	RedevelopmentComprehensive Source
	RedevelopmentSimplified    Source
	RedevelopmentLifted        Source

	// LandValues holds the BORIS layers newest first: LandValueYear, one
	// year prior, two years prior.
	LandValues    [3]Source
	LandValueYear int
}

// NewCatalog builds the source catalog against baseURL (DefaultBaseURL when
// empty). latestLandValueYear selects the newest BORIS dataset; the two
// preceding years are derived from it.
func NewCatalog(baseURL string, latestLandValueYear int) Catalog {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if latestLandValueYear <= 0 {
		latestLandValueYear = DefaultLandValueYear
	}

	src := func(service, typeName string) Source {
		return Source{
			Layer:          service,
			BaseURL:        baseURL + "/" + service,
			TypeName:       service + ":" + typeName,
			GeometryColumn: "geom",
		}
	}

	c := Catalog{
		Addresses:   src("adressen_berlin", "adressen_berlin"),
		Parcels:     src("alkis_flurstuecke", "flurstuecke"),
		Buildings:   src("alkis_gebaeude", "gebaeude"),
		LandUsePlan: src("fnp_ak", "fnp_ak_vektor"),

		PlansInPreparation:  src("bplan", "a_bp_iv"),
		PlansLegallyBinding: src("bplan", "b_bp_fs"),
		PlansLifted:         src("bplan", "c_bp_ak"),

		RedevelopmentComprehensive: src("sanier", "a_sanier_umfassend"),
		RedevelopmentSimplified:    src("sanier", "b_sanier_einfach"),
		RedevelopmentLifted:        src("sanier", "c_sanier_aufgehoben"),

		LandValueYear: latestLandValueYear,
	}
	for i := range c.LandValues {
		year := latestLandValueYear - i
		c.LandValues[i] = src(fmt.Sprintf("brw%d", year), fmt.Sprintf("brw_%d_vector", year))
	}
	return c
}
