package geo_test

import (
	"math"
	"testing"

	"green-roots/internal/geo"
)

func TestHaversine(t *testing.T) {
	t.Run("identical points are zero distance", func(t *testing.T) {
		points := [][2]float64{
			{0, 0},
			{14.5995, 120.9842},
			{-90, 0},
			{45.5, -73.6},
		}
		for _, p := range points {
			if d := geo.Haversine(p[0], p[1], p[0], p[1]); d != 0 {
				t.Errorf("Haversine(%v, %v, same) = %v, want 0", p[0], p[1], d)
			}
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][4]float64{
			{14.5995, 120.9842, 14.6760, 121.0437},
			{0, 0, 0, 90},
			{-33.8688, 151.2093, 51.5074, -0.1278},
		}
		for _, p := range pairs {
			ab := geo.Haversine(p[0], p[1], p[2], p[3])
			ba := geo.Haversine(p[2], p[3], p[0], p[1])
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("Haversine not symmetric: %v vs %v", ab, ba)
			}
		}
	})

	t.Run("quarter of the equator", func(t *testing.T) {
		want := geo.EarthRadiusKm * math.Pi / 2
		got := geo.Haversine(0, 0, 0, 90)
		if math.Abs(got-want) > 0.01 {
			t.Errorf("Haversine(0,0,0,90) = %v, want %v", got, want)
		}
	})

	t.Run("manila to quezon city", func(t *testing.T) {
		got := geo.Haversine(14.5995, 120.9842, 14.6760, 121.0437)
		if math.Abs(got-10.65) > 0.1 {
			t.Errorf("Haversine = %v km, want about 10.65 km", got)
		}
	})

	t.Run("small latitude offsets land on the policy boundaries", func(t *testing.T) {
		// 0.001 degrees of latitude is about 111.2 meters.
		d := geo.Haversine(14.5995, 120.9842, 14.5995+0.001, 120.9842)
		if d < 0.110 || d > 0.113 {
			t.Errorf("0.001 degree latitude offset = %v km, want about 0.111 km", d)
		}
	})
}
