package opendata

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Candidate property names, tried in order. The Berlin services are not
// consistent about which attribute carries a concept, so every adapter
// probes an explicit list and takes the first non-empty value.
var (
	// fnp_ak:fnp_ak_vektor
	landUseCodeKeys = []string{"nutzungsart", "nutzung", "art", "bezeichnung"}

	// bplan:* and sanier:*
	areaNameKeys = []string{"bezeichnung", "name"}

	// bplan:*
	planDateKeys = []string{"festsetz_datum", "abl_datum"}

	// sanier:*
	redevelopmentDateKeys = []string{"festsetz_datum", "aufhebung_datum"}
)

// props wraps the untyped property bag of a feature.
type props map[string]any

// str returns the property as a string. Numbers are formatted without a
// trailing fraction; missing and null values yield "".
func (p props) str(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// first returns the first non-empty string among keys.
func (p props) first(keys ...string) string {
	for _, k := range keys {
		if s := p.str(k); s != "" {
			return s
		}
	}
	return ""
}

// firstOr is first with a fallback for when no candidate is present.
func (p props) firstOr(fallback string, keys ...string) string {
	if s := p.first(keys...); s != "" {
		return s
	}
	return fallback
}

// num returns the property as a number. Numeric strings are accepted since
// some layers publish decimals as text.
func (p props) num(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(v, ",", ".", 1)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// positive returns the property when it is a non-zero number, or nil.
func (p props) positive(key string) *float64 {
	f, ok := p.num(key)
	if !ok || f == 0 {
		return nil
	}
	return &f
}
