// Package coords converts between WGS84 (EPSG:4326) and ETRS89 / UTM zone 33N
// (EPSG:25833), the projected system used by the Berlin geodata services.
package coords

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

const (
	// EPSGUTM33 is the reference system of every Berlin WFS layer.
	EPSGUTM33 = "EPSG:25833"

	sridWGS84 = 4326
)

// Berlin's approximate bounding box in WGS84.
const (
	berlinMinLat = 52.33
	berlinMaxLat = 52.68
	berlinMinLon = 13.08
	berlinMaxLon = 13.77
)

// ErrInvalidCoordinates is returned by Validate for out-of-range lat/lon.
var ErrInvalidCoordinates = eris.New("coordinates out of range")

var utm33 = newTransverseMercator(grs80A, grs80F, utmZone33Lon0Deg)

// WGS84 is a geographic coordinate in degrees.
type WGS84 struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Validate checks that the point lies within the valid lat/lon range.
func (p WGS84) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) ||
		math.Abs(p.Lat) > 90 || math.Abs(p.Lon) > 180 {
		return eris.Wrapf(ErrInvalidCoordinates, "lat=%v lon=%v", p.Lat, p.Lon)
	}
	return nil
}

// UTM is a projected coordinate in metres.
type UTM struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	EPSG string  `json:"epsg" yaml:"epsg"`
}

// Coordinates pairs a WGS84 point with its UTM projection. Build it with
// FromWGS84 or FromUTM so the two halves always agree.
type Coordinates struct {
	WGS84 WGS84 `json:"wgs84" yaml:"wgs84"`
	UTM   UTM   `json:"utm" yaml:"utm"`
}

// ToUTM projects a WGS84 point into EPSG:25833.
func ToUTM(p WGS84) UTM {
	x, y := utm33.forward(p.Lat, p.Lon)
	return UTM{X: x, Y: y, EPSG: EPSGUTM33}
}

// ToWGS84 converts an EPSG:25833 point back to WGS84.
func ToWGS84(p UTM) WGS84 {
	lat, lon := utm33.inverse(p.X, p.Y)
	return WGS84{Lat: lat, Lon: lon}
}

// FromWGS84 builds a coordinate pair from lat/lon input.
func FromWGS84(lat, lon float64) Coordinates {
	w := WGS84{Lat: lat, Lon: lon}
	return Coordinates{WGS84: w, UTM: ToUTM(w)}
}

// FromUTM builds a coordinate pair from an EPSG:25833 point.
func FromUTM(x, y float64) Coordinates {
	u := UTM{X: x, Y: y, EPSG: EPSGUTM33}
	return Coordinates{WGS84: ToWGS84(u), UTM: u}
}

// IsWithinBerlin reports whether p falls inside Berlin's bounding box. It is a
// cheap pre-filter, not a boundary test.
func IsWithinBerlin(p WGS84) bool {
	return p.Lat >= berlinMinLat && p.Lat <= berlinMaxLat &&
		p.Lon >= berlinMinLon && p.Lon <= berlinMaxLon
}

// ReprojectGeometry converts every coordinate of an EPSG:25833 geometry to
// WGS84 (x=lon, y=lat). Type, ring layout and point counts are preserved and
// the result carries SRID 4326. A nil geometry yields nil.
func ReprojectGeometry(g geom.T) geom.T {
	if g == nil {
		return nil
	}

	flat := reprojectFlat(g.FlatCoords(), g.Stride())
	layout := g.Layout()

	switch t := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(layout, flat).SetSRID(sridWGS84)
	case *geom.LineString:
		return geom.NewLineStringFlat(layout, flat).SetSRID(sridWGS84)
	case *geom.Polygon:
		return geom.NewPolygonFlat(layout, flat, copyEnds(t.Ends())).SetSRID(sridWGS84)
	case *geom.MultiLineString:
		return geom.NewMultiLineStringFlat(layout, flat, copyEnds(t.Ends())).SetSRID(sridWGS84)
	case *geom.MultiPolygon:
		endss := make([][]int, len(t.Endss()))
		for i, ends := range t.Endss() {
			endss[i] = copyEnds(ends)
		}
		return geom.NewMultiPolygonFlat(layout, flat, endss).SetSRID(sridWGS84)
	default:
		zap.L().Debug("coords: geometry type not reprojected, passing through")
		return g
	}
}

// reprojectFlat converts each x/y pair in a flat coordinate slice, keeping any
// Z or M ordinates untouched.
func reprojectFlat(flat []float64, stride int) []float64 {
	out := make([]float64, len(flat))
	copy(out, flat)
	if stride < 2 {
		return out
	}
	for i := 0; i+1 < len(out); i += stride {
		lat, lon := utm33.inverse(out[i], out[i+1])
		out[i], out[i+1] = lon, lat
	}
	return out
}

func copyEnds(ends []int) []int {
	out := make([]int, len(ends))
	copy(out, ends)
	return out
}
