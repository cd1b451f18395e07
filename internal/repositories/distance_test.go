package repositories

import (
	"math"
	"testing"
)

func TestHaversineDistanceKm(t *testing.T) {
	// Almaty centre to a point ~5.1 km east.
	d := haversineDistanceKm(43.2389, 76.8897, 43.2389, 76.9527)
	if math.Abs(d-5.1) > 0.2 {
		t.Fatalf("expected ~5.1 km, got %.3f", d)
	}

	if d := haversineDistanceKm(43.25, 76.95, 43.25, 76.95); d != 0 {
		t.Fatalf("distance to self must be 0, got %f", d)
	}
}
