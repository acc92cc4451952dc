package wfs

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Feature is a single WFS feature. Geometry is in the source reference system
// (EPSG:25833 for every Berlin layer) and may be nil.
type Feature struct {
	ID         string
	Geometry   geom.T
	Properties map[string]any
}

// FeatureCollection is a decoded GetFeature response. The counts are nil when
// the service omits them.
type FeatureCollection struct {
	Features       []Feature
	NumberMatched  *int
	NumberReturned *int
}

// EmptyCollection returns a collection with no features.
func EmptyCollection() *FeatureCollection {
	return &FeatureCollection{Features: []Feature{}}
}

type rawFeature struct {
	Type       string            `json:"type"`
	ID         json.RawMessage   `json:"id"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

type rawCollection struct {
	Type           string          `json:"type"`
	Features       []Feature       `json:"features"`
	NumberMatched  json.RawMessage `json:"numberMatched"`
	NumberReturned json.RawMessage `json:"numberReturned"`
}

// UnmarshalJSON decodes a GeoJSON feature, accepting string or numeric ids
// and null geometries.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var raw rawFeature
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "wfs: decode feature")
	}

	f.ID = decodeID(raw.ID)
	f.Properties = raw.Properties
	if f.Properties == nil {
		f.Properties = map[string]any{}
	}

	f.Geometry = nil
	if raw.Geometry != nil {
		g, err := raw.Geometry.Decode()
		if err != nil {
			return eris.Wrapf(err, "wfs: decode geometry of feature %q", f.ID)
		}
		f.Geometry = g
	}
	return nil
}

// UnmarshalJSON decodes a GeoJSON feature collection.
func (fc *FeatureCollection) UnmarshalJSON(data []byte) error {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "wfs: decode feature collection")
	}
	if raw.Type != "" && raw.Type != "FeatureCollection" {
		return eris.Errorf("wfs: unexpected response type %q", raw.Type)
	}

	fc.Features = raw.Features
	if fc.Features == nil {
		fc.Features = []Feature{}
	}
	fc.NumberMatched = decodeCount(raw.NumberMatched)
	fc.NumberReturned = decodeCount(raw.NumberReturned)
	return nil
}

func decodeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// decodeCount parses numberMatched/numberReturned, which some servers report
// as the string "unknown".
func decodeCount(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return nil
	}
	return &n
}
