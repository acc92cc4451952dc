package coords

import "math"

// GRS80 ellipsoid, used by ETRS89. The WGS84 difference is below a millimetre
// at Berlin's latitude, so the datum shift is treated as zero.
const (
	grs80A = 6378137.0
	grs80F = 1 / 298.257222101

	utmK0            = 0.9996
	utmFalseEasting  = 500000.0
	utmZone33Lon0Deg = 15.0
)

// transverseMercator holds the Krüger series coefficients for one ellipsoid and
// central meridian. Series are truncated at the fourth order in n, which keeps
// the forward/inverse pair consistent to well below 1e-9 degrees.
type transverseMercator struct {
	lon0  float64
	e     float64
	scale float64 // k0 * A (rectifying radius)
	alpha [4]float64
	beta  [4]float64
	delta [4]float64
}

func newTransverseMercator(a, f, lon0Deg float64) *transverseMercator {
	n := f / (2 - f)
	n2, n3, n4 := n*n, n*n*n, n*n*n*n
	rectifying := a / (1 + n) * (1 + n2/4 + n4/64)

	return &transverseMercator{
		lon0:  lon0Deg * math.Pi / 180,
		e:     math.Sqrt(f * (2 - f)),
		scale: utmK0 * rectifying,
		alpha: [4]float64{
			n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180,
			13*n2/48 - 3*n3/5 + 557*n4/1440,
			61*n3/240 - 103*n4/140,
			49561 * n4 / 161280,
		},
		beta: [4]float64{
			n/2 - 2*n2/3 + 37*n3/96 - n4/360,
			n2/48 + n3/15 - 437*n4/1440,
			17*n3/480 - 37*n4/840,
			4397 * n4 / 161280,
		},
		delta: [4]float64{
			2*n - 2*n2/3 - 2*n3 + 116*n4/45,
			7*n2/3 - 8*n3/5 - 227*n4/45,
			56*n3/15 - 136*n4/35,
			4279 * n4 / 630,
		},
	}
}

// forward converts geodetic lat/lon (degrees) to easting/northing (metres).
func (tm *transverseMercator) forward(lat, lon float64) (x, y float64) {
	phi := lat * math.Pi / 180
	dLon := lon*math.Pi/180 - tm.lon0

	sinPhi := math.Sin(phi)
	t := math.Sinh(math.Atanh(sinPhi) - tm.e*math.Atanh(tm.e*sinPhi))

	xiP := math.Atan2(t, math.Cos(dLon))
	etaP := math.Atanh(math.Sin(dLon) / math.Sqrt(1+t*t))

	xi, eta := xiP, etaP
	for i, a := range tm.alpha {
		k := float64(2 * (i + 1))
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	return utmFalseEasting + tm.scale*eta, tm.scale * xi
}

// inverse converts easting/northing (metres) back to geodetic lat/lon (degrees).
func (tm *transverseMercator) inverse(x, y float64) (lat, lon float64) {
	xi := y / tm.scale
	eta := (x - utmFalseEasting) / tm.scale

	xiP, etaP := xi, eta
	for i, b := range tm.beta {
		k := float64(2 * (i + 1))
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	phi := chi
	for i, d := range tm.delta {
		phi += d * math.Sin(float64(2*(i+1))*chi)
	}
	lambda := tm.lon0 + math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	return phi * 180 / math.Pi, lambda * 180 / math.Pi
}
