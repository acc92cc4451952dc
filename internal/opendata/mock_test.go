package opendata

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"
	"github.com/twpayne/go-geom"

	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

var testCatalog = wfs.NewCatalog("http://wfs.test", 2025)

// Brandenburger Tor, roughly.
const (
	testLat = 52.516275
	testLon = 13.377704
	testX   = 389918.04
	testY   = 5819699.13
)

var errUpstream = errors.New("upstream failed")

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Query(ctx context.Context, q wfs.Query) (*wfs.FeatureCollection, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wfs.FeatureCollection), args.Error(1)
}

// onSource stubs queries against src.
func (m *mockQuerier) onSource(src wfs.Source) *mock.Call {
	return m.On("Query", mock.Anything, mock.MatchedBy(func(q wfs.Query) bool {
		return q.Source.TypeName == src.TypeName
	}))
}

func collection(features ...wfs.Feature) *wfs.FeatureCollection {
	return &wfs.FeatureCollection{Features: features}
}

// square returns a 40 m square around the test point in EPSG:25833.
func square() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		testX - 20, testY - 20,
		testX + 20, testY - 20,
		testX + 20, testY + 20,
		testX - 20, testY + 20,
		testX - 20, testY - 20,
	}, []int{10})
}

func polygonFeature(props map[string]any) wfs.Feature {
	return wfs.Feature{ID: "f.1", Geometry: square(), Properties: props}
}

func pointFeature(x, y float64, props map[string]any) wfs.Feature {
	return wfs.Feature{ID: "p.1", Geometry: geom.NewPointFlat(geom.XY, []float64{x, y}), Properties: props}
}
