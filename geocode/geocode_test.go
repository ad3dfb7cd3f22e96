package geocode

import (
	"math"
	"math/rand"
	"testing"
)

func TestReverseGeocodeDeterministic(t *testing.T) {
	first := ReverseGeocode(28.61, 77.20)
	for i := 0; i < 50; i++ {
		if got := ReverseGeocode(28.61, 77.20); got != first {
			t.Fatalf("call %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestReverseGeocodeBands(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		area     string
		district string
	}{
		{"gandhi nagar central", 28.65, 77.22, "Gandhi Nagar", "Central Delhi"},
		{"nehru road south", 28.55, 77.25, "Nehru Road", "South Delhi"},
		{"subhash marg central", 28.60, 77.20, "Subhash Marg", "Central Delhi"},
		{"karol bagh north", 28.70, 77.12, "Karol Bagh", "North Delhi"},
		{"mayur vihar north west", 28.85, 77.35, "Mayur Vihar", "North West Delhi"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ReverseGeocode(tc.lat, tc.lng)
			if got.Area != tc.area {
				t.Errorf("area: got %q, want %q", got.Area, tc.area)
			}
			if got.District != tc.district {
				t.Errorf("district: got %q, want %q", got.District, tc.district)
			}
			if got.Street == "" || got.Street == "Unknown Street" {
				t.Errorf("street: got %q, want a synthetic street", got.Street)
			}
			if got.FullAddress == "" {
				t.Error("full address is empty")
			}
		})
	}
}

func TestReverseGeocodeFallback(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
	}{
		{"out of area", 19.07, 72.88},
		{"zero", 0, 0},
		{"nan", math.NaN(), 77.20},
		{"inf", 28.61, math.Inf(1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ReverseGeocode(tc.lat, tc.lng)
			if got.Street != "Unknown Street" {
				t.Errorf("street: got %q, want Unknown Street", got.Street)
			}
			if got.District != "Unknown District" {
				t.Errorf("district: got %q, want Unknown District", got.District)
			}
			if got.FullAddress == "" {
				t.Error("fallback must still carry the raw coordinates as text")
			}
		})
	}
}

func TestRandomPointStaysInServiceArea(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		lat, lng := RandomPoint(r)
		if !InServiceArea(lat, lng) {
			t.Fatalf("point (%f, %f) outside service area", lat, lng)
		}
		addr := ReverseGeocode(lat, lng)
		if addr.District == "Unknown District" {
			t.Fatalf("synthesized point (%f, %f) reverse-geocoded to fallback", lat, lng)
		}
	}
}

func TestRandomPointReproducible(t *testing.T) {
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		alat, alng := RandomPoint(a)
		blat, blng := RandomPoint(b)
		if alat != blat || alng != blng {
			t.Fatal("same seed must yield the same points")
		}
	}
}
