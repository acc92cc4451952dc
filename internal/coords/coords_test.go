package coords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestToUTM_BrandenburgGate(t *testing.T) {
	u := ToUTM(WGS84{Lat: 52.516275, Lon: 13.377704})

	assert.Equal(t, EPSGUTM33, u.EPSG)
	assert.InDelta(t, 389918.04, u.X, 0.05)
	assert.InDelta(t, 5819699.13, u.Y, 0.05)
}

func TestRoundTrip_WithinServiceArea(t *testing.T) {
	for lat := berlinMinLat; lat <= berlinMaxLat; lat += 0.035 {
		for lon := berlinMinLon; lon <= berlinMaxLon; lon += 0.069 {
			p := WGS84{Lat: lat, Lon: lon}
			back := ToWGS84(ToUTM(p))
			assert.InDelta(t, p.Lat, back.Lat, 1e-6, "lat at %v", p)
			assert.InDelta(t, p.Lon, back.Lon, 1e-6, "lon at %v", p)
		}
	}
}

func TestFromUTM_PairAgrees(t *testing.T) {
	c := FromUTM(389918.04, 5819699.13)

	assert.Equal(t, EPSGUTM33, c.UTM.EPSG)
	assert.InDelta(t, 52.516275, c.WGS84.Lat, 1e-6)
	assert.InDelta(t, 13.377704, c.WGS84.Lon, 1e-6)

	w := FromWGS84(c.WGS84.Lat, c.WGS84.Lon)
	assert.InDelta(t, c.UTM.X, w.UTM.X, 1e-3)
	assert.InDelta(t, c.UTM.Y, w.UTM.Y, 1e-3)
}

func TestIsWithinBerlin(t *testing.T) {
	tests := []struct {
		name string
		p    WGS84
		want bool
	}{
		{"mitte", WGS84{Lat: 52.52, Lon: 13.405}, true},
		{"south-west corner", WGS84{Lat: 52.33, Lon: 13.08}, true},
		{"potsdam outside", WGS84{Lat: 52.39, Lon: 13.06}, false},
		{"hamburg", WGS84{Lat: 53.55, Lon: 9.99}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinBerlin(tt.p))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, WGS84{Lat: 52.5, Lon: 13.4}.Validate())
	assert.NoError(t, WGS84{Lat: -90, Lon: 180}.Validate())
	assert.ErrorIs(t, WGS84{Lat: 91, Lon: 13}.Validate(), ErrInvalidCoordinates)
	assert.ErrorIs(t, WGS84{Lat: 52, Lon: -181}.Validate(), ErrInvalidCoordinates)
}

func TestReprojectGeometry_Nil(t *testing.T) {
	assert.Nil(t, ReprojectGeometry(nil))
}

func TestReprojectGeometry_Point(t *testing.T) {
	u := ToUTM(WGS84{Lat: 52.52, Lon: 13.405})
	pt := geom.NewPointFlat(geom.XY, []float64{u.X, u.Y})

	got := ReprojectGeometry(pt)
	p, ok := got.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 4326, p.SRID())
	assert.InDelta(t, 13.405, p.X(), 1e-6)
	assert.InDelta(t, 52.52, p.Y(), 1e-6)
}

func TestReprojectGeometry_PolygonShapePreserved(t *testing.T) {
	// Two rings of five points each.
	outer := utmRing(52.50, 13.40, 0.01)
	inner := utmRing(52.503, 13.403, 0.002)
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, outer)))
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, inner)))

	got, ok := ReprojectGeometry(poly).(*geom.Polygon)
	require.True(t, ok)
	require.Equal(t, poly.NumLinearRings(), got.NumLinearRings())
	for i := 0; i < poly.NumLinearRings(); i++ {
		assert.Equal(t, poly.LinearRing(i).NumCoords(), got.LinearRing(i).NumCoords())
	}

	first := got.LinearRing(0).Coord(0)
	assert.InDelta(t, 13.40, first.X(), 1e-6)
	assert.InDelta(t, 52.50, first.Y(), 1e-6)

	// Source geometry untouched.
	assert.Greater(t, poly.LinearRing(0).Coord(0).X(), 1000.0)
}

func TestReprojectGeometry_MultiPolygonShapePreserved(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	for _, origin := range [][2]float64{{52.45, 13.3}, {52.55, 13.5}} {
		poly := geom.NewPolygon(geom.XY)
		require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, utmRing(origin[0], origin[1], 0.005))))
		require.NoError(t, mp.Push(poly))
	}

	got, ok := ReprojectGeometry(mp).(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 2, got.NumPolygons())
	assert.Equal(t, mp.Endss(), got.Endss())
	assert.InDelta(t, 13.5, got.Polygon(1).LinearRing(0).Coord(0).X(), 1e-6)
}

// utmRing returns a closed five-point square ring in EPSG:25833 whose south-west
// corner sits at the given WGS84 position.
func utmRing(lat, lon, size float64) []float64 {
	corners := []WGS84{
		{Lat: lat, Lon: lon},
		{Lat: lat, Lon: lon + size},
		{Lat: lat + size, Lon: lon + size},
		{Lat: lat + size, Lon: lon},
		{Lat: lat, Lon: lon},
	}
	flat := make([]float64, 0, len(corners)*2)
	for _, c := range corners {
		u := ToUTM(c)
		flat = append(flat, u.X, u.Y)
	}
	return flat
}
