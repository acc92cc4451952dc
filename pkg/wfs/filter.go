package wfs

import (
	"fmt"
	"strings"
)

// PointIntersects renders a CQL spatial filter matching features whose
// geometry contains the EPSG:25833 point (x, y). Coordinates are rounded to
// millimetres to keep the query short and deterministic.
func PointIntersects(geometryColumn string, x, y float64) string {
	return fmt.Sprintf("INTERSECTS(%s, POINT(%.3f %.3f))", geometryColumn, x, y)
}

// AddressMatch renders a CQL filter for the address layer: a case-insensitive
// partial match on the street name (str_name), an exact match on the numeric
// house number (hnr) and, when set, a case-insensitive match on the house
// number suffix (hnr_zusatz) and the postal code (plz).
//
// hnr is numeric in the service schema, so houseNumber is inserted unquoted;
// callers must pass digits only.
func AddressMatch(street, houseNumber, suffix, postalCode string) string {
	filter := fmt.Sprintf("str_name ILIKE '%%%s%%' AND hnr=%s", escapeLiteral(street), houseNumber)
	if suffix != "" {
		filter += fmt.Sprintf(" AND hnr_zusatz ILIKE '%s'", escapeLiteral(suffix))
	}
	if postalCode != "" {
		filter += fmt.Sprintf(" AND plz='%s'", escapeLiteral(postalCode))
	}
	return filter
}

// escapeLiteral doubles single quotes for use inside a CQL string literal.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
