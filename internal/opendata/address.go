package opendata

import (
	"context"
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"
	"golang.org/x/text/unicode/norm"

	"github.com/OK-LG/berlin-open-data/internal/coords"
	"github.com/OK-LG/berlin-open-data/pkg/wfs"
)

// AddressInput is a Berlin postal address to resolve.
type AddressInput struct {
	Street      string `json:"street" yaml:"street"`
	HouseNumber string `json:"house_number" yaml:"house_number"`
	PostalCode  string `json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
}

func (a AddressInput) String() string {
	s := a.Street + " " + a.HouseNumber
	if a.PostalCode != "" {
		s += " (" + a.PostalCode + ")"
	}
	return s
}

// GeocodedAddress is an address as recorded in the official address register.
type GeocodedAddress struct {
	Street      string             `json:"street" yaml:"street"`
	HouseNumber string             `json:"house_number" yaml:"house_number"`
	PostalCode  string             `json:"postal_code" yaml:"postal_code"`
	District    string             `json:"district" yaml:"district"`
	Locality    string             `json:"locality,omitempty" yaml:"locality,omitempty"`
	Coordinates coords.Coordinates `json:"coordinates" yaml:"coordinates"`
}

// GeocodeAddress resolves in against the address register.
func (s *Service) GeocodeAddress(ctx context.Context, in AddressInput) (*GeocodedAddress, error) {
	street := norm.NFC.String(strings.TrimSpace(in.Street))
	number, suffix := splitHouseNumber(in.HouseNumber)
	if street == "" || number == "" {
		return nil, wfs.NewError(wfs.CodeAddressNotFound, "No address found for: "+in.String())
	}

	fc, err := s.wfs.Query(ctx, wfs.Query{
		Source:      s.catalog.Addresses,
		Filter:      wfs.AddressMatch(street, number, suffix, strings.TrimSpace(in.PostalCode)),
		MaxFeatures: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, wfs.NewError(wfs.CodeAddressNotFound, "No address found for: "+in.String())
	}

	f := fc.Features[0]
	pt, ok := f.Geometry.(*geom.Point)
	if !ok || pt == nil || pt.Empty() {
		return nil, wfs.NewError(wfs.CodeServiceError, "Address feature has no point geometry")
	}

	p := props(f.Properties)
	return &GeocodedAddress{
		Street:      p.str("str_name"),
		HouseNumber: p.str("hnr") + p.str("hnr_zusatz"),
		PostalCode:  p.str("plz"),
		District:    p.str("bez_name"),
		Locality:    p.str("ort_name"),
		Coordinates: coords.FromUTM(pt.X(), pt.Y()),
	}, nil
}

// splitHouseNumber separates the leading digits of a house number from its
// suffix: "12a" gives ("12", "a"). The number part is empty when the input
// does not start with a digit.
func splitHouseNumber(s string) (number, suffix string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// String implements fmt.Stringer for log fields.
func (g *GeocodedAddress) String() string {
	return fmt.Sprintf("%s %s, %s %s", g.Street, g.HouseNumber, g.PostalCode, g.District)
}
