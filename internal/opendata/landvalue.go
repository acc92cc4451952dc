package opendata

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OK-LG/berlin-open-data/internal/coords"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

// LandValueEntry is one year's Bodenrichtwert (BORIS) for a zone.
type LandValueEntry struct {
	Year            int      `json:"year" yaml:"year"`
	BRW             float64  `json:"brw" yaml:"brw"`
	BRWWithGFZ      *float64 `json:"brw_with_gfz,omitempty" yaml:"brw_with_gfz,omitempty"`
	Stichtag        string   `json:"stichtag" yaml:"stichtag"`
	Nutzung         string   `json:"nutzung" yaml:"nutzung"`
	GFZ             *float64 `json:"gfz,omitempty" yaml:"gfz,omitempty"`
	Beitragszustand string   `json:"beitragszustand,omitempty" yaml:"beitragszustand,omitempty"`
	Bezirk          string   `json:"bezirk" yaml:"bezirk"`
}

// Trend holds percentage changes of the land value, rounded to one decimal.
type Trend struct {
	Change1YPercent *float64 `json:"change_1y_percent,omitempty" yaml:"change_1y_percent,omitempty"`
	Change2YPercent *float64 `json:"change_2y_percent,omitempty" yaml:"change_2y_percent,omitempty"`
}

// LandValue is the land value at a location over the last three datasets.
//
// Current is the newest dataset that has an entry. When the latest year has
// no data at the location, Current holds the prior year; check Current.Year
// rather than assuming the latest year.
type LandValue struct {
	Current  LandValueEntry   `json:"current" yaml:"current"`
	History  []LandValueEntry `json:"history" yaml:"history"`
	Trend    *Trend           `json:"trend,omitempty" yaml:"trend,omitempty"`
	Boundary *Geometry        `json:"boundary_wgs84,omitempty" yaml:"boundary_wgs84,omitempty"`
}

// LandValue returns the land value at p from the three most recent BORIS
// datasets, queried concurrently. A failing year counts as empty.
func (s *Service) LandValue(ctx context.Context, p coords.WGS84) (*LandValue, error) {
	utm, err := project(p)
	if err != nil {
		return nil, err
	}

	var features [3]*wfs.Feature
	var g errgroup.Group
	for i, src := range s.catalog.LandValues {
		g.Go(func() error {
			fc, err := s.queryAt(ctx, src, utm, 1)
			if err != nil {
				zap.L().Warn("opendata: land value query failed, treating as empty",
					zap.String("source", src.TypeName),
					zap.Error(err),
				)
				return nil
			}
			if len(fc.Features) > 0 {
				features[i] = &fc.Features[0]
			}
			return nil
		})
	}
	_ = g.Wait()

	var entries [3]*LandValueEntry
	for i, f := range features {
		if f != nil {
			e := parseLandValue(f.Properties, s.catalog.LandValueYear-i)
			entries[i] = &e
		}
	}
	latest, prior, older := entries[0], entries[1], entries[2]

	if latest == nil && prior == nil {
		return nil, wfs.NoData(s.catalog.LandValues[0].Layer, "No Bodenrichtwert data at this location")
	}

	lv := &LandValue{History: []LandValueEntry{}}
	if latest != nil {
		lv.Current = *latest
		if prior != nil {
			lv.History = append(lv.History, *prior)
		}
	} else {
		lv.Current = *prior
	}
	if older != nil {
		lv.History = append(lv.History, *older)
	}

	lv.Trend = computeTrend(latest, prior, older)

	if features[0] != nil {
		lv.Boundary = reprojected(features[0].Geometry)
	} else {
		lv.Boundary = reprojected(features[1].Geometry)
	}
	return lv, nil
}

func parseLandValue(properties map[string]any, year int) LandValueEntry {
	p := props(properties)
	brw, _ := p.num("brw")
	e := LandValueEntry{
		Year:            year,
		BRW:             brw,
		Stichtag:        p.str("stichtag"),
		Nutzung:         p.str("nutzung"),
		GFZ:             p.positive("gfz"),
		Beitragszustand: p.str("beitragszustand"),
		Bezirk:          p.str("bezirk"),
	}
	if e.GFZ != nil {
		effective := brw * *e.GFZ
		e.BRWWithGFZ = &effective
	}
	return e
}

// computeTrend derives the year over year changes. Without the latest year
// the one-year change compares the two older datasets. It returns nil when no
// change can be computed.
func computeTrend(latest, prior, older *LandValueEntry) *Trend {
	var t Trend
	if latest != nil && prior != nil {
		t.Change1YPercent = percentChange(latest.BRW, prior.BRW)
	}
	if latest != nil && older != nil {
		t.Change2YPercent = percentChange(latest.BRW, older.BRW)
	} else if prior != nil && older != nil {
		t.Change1YPercent = percentChange(prior.BRW, older.BRW)
	}
	if t.Change1YPercent == nil && t.Change2YPercent == nil {
		return nil
	}
	return &t
}

// percentChange returns the change from previous to current in percent with
// one decimal. A zero previous value yields 0.
func percentChange(current, previous float64) *float64 {
	var pct float64
	if previous != 0 {
		pct = math.Floor((current-previous)/previous*1000+0.5) / 10
	}
	return &pct
}
