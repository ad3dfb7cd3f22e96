// Package geocode turns raw coordinates into a human-readable
// area/street/district tuple without calling any external service.
// The mapping is deterministic so it can be asserted on in tests and
// stays stable across reloads.
package geocode

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/paulmach/orb"
)

// Address is the reverse-geocoding result.
type Address struct {
	FullAddress string `json:"fullAddress"`
	Area        string `json:"area"`
	Street      string `json:"street"`
	District    string `json:"district"`
}

// serviceArea is the demo municipality (Delhi). orb bounds are
// (lng, lat) ordered.
var serviceArea = orb.Bound{
	Min: orb.Point{77.10, 28.40},
	Max: orb.Point{77.40, 28.90},
}

// synthesisArea is the coordinate range used when a complaint arrives
// without device coordinates.
var synthesisArea = orb.Bound{
	Min: orb.Point{77.10, 28.50},
	Max: orb.Point{77.40, 28.80},
}

// districtBands bucket latitude, south to north. Upper bound is
// exclusive except for the last band.
var districtBands = []struct {
	upTo float64
	name string
}{
	{28.56, "South Delhi"},
	{28.68, "Central Delhi"},
	{28.80, "North Delhi"},
	{28.90, "North West Delhi"},
}

// areaBands bucket longitude, west to east.
var areaBands = []struct {
	upTo float64
	name string
}{
	{77.16, "Karol Bagh"},
	{77.21, "Subhash Marg"},
	{77.24, "Gandhi Nagar"},
	{77.28, "Nehru Road"},
	{77.33, "Lajpat Nagar"},
	{77.40, "Mayur Vihar"},
}

// ReverseGeocode maps (lat, lng) onto the synthetic address grid. It is
// a pure function: identical input always yields an identical tuple,
// and it never fails. Coordinates outside the service area (or not
// finite) produce the fallback tuple carrying the raw coordinates.
func ReverseGeocode(lat, lng float64) Address {
	p := orb.Point{lng, lat}
	if !isFinite(lat) || !isFinite(lng) || !serviceArea.Contains(p) {
		return fallback(lat, lng)
	}

	district := districtBands[len(districtBands)-1].name
	for _, b := range districtBands {
		if lat < b.upTo {
			district = b.name
			break
		}
	}

	area := areaBands[len(areaBands)-1].name
	for _, b := range areaBands {
		if lng < b.upTo {
			area = b.name
			break
		}
	}

	street := streetFor(lat, lng)
	return Address{
		FullAddress: fmt.Sprintf("%s, %s, %s", street, area, district),
		Area:        area,
		Street:      street,
		District:    district,
	}
}

// streetFor derives a stable street name from both coordinates.
func streetFor(lat, lng float64) string {
	n := int(math.Floor(lat*100)+math.Floor(lng*100)) % 20
	if n < 0 {
		n += 20
	}
	return fmt.Sprintf("Street %d", n+1)
}

func fallback(lat, lng float64) Address {
	return Address{
		FullAddress: fmt.Sprintf("Lat: %.4f, Lng: %.4f", lat, lng),
		Street:      "Unknown Street",
		District:    "Unknown District",
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RandomPoint picks a plausible coordinate inside the synthesis range,
// for complaints filed without device coordinates. The caller owns the
// rand source so synthesis stays reproducible.
func RandomPoint(r *rand.Rand) (lat, lng float64) {
	lat = synthesisArea.Min.Y() + r.Float64()*(synthesisArea.Max.Y()-synthesisArea.Min.Y())
	lng = synthesisArea.Min.X() + r.Float64()*(synthesisArea.Max.X()-synthesisArea.Min.X())
	return lat, lng
}

// InServiceArea reports whether the point falls inside the demo
// municipality bound.
func InServiceArea(lat, lng float64) bool {
	return serviceArea.Contains(orb.Point{lng, lat})
}
