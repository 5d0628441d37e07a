package geo

import (
	"math"
	"testing"

	"dispatch-nav-service/internal/domain"
)

func TestHaversineMeters(t *testing.T) {
	// Victory Monument to Siam Square, roughly 2.8 km.
	a := domain.Coordinate{Lat: 13.7649, Lon: 100.5383}
	b := domain.Coordinate{Lat: 13.7455, Lon: 100.5331}

	d := HaversineMeters(a, b)
	if d < 2000 || d > 3500 {
		t.Fatalf("distance = %.0f m, want roughly 2800 m", d)
	}

	if z := HaversineMeters(a, a); z != 0 {
		t.Fatalf("distance to self = %f, want 0", z)
	}
}

func TestPathDistanceMeters(t *testing.T) {
	// Three points spaced ~111 m apart along a meridian.
	path := []domain.Coordinate{
		{Lat: 13.7500, Lon: 100.5000},
		{Lat: 13.7510, Lon: 100.5000},
		{Lat: 13.7520, Lon: 100.5000},
	}

	full := PathDistanceMeters(path, 0, 2)
	half := PathDistanceMeters(path, 1, 2)

	if math.Abs(full-2*half) > 1 {
		t.Fatalf("full = %.1f, half = %.1f, expected full = 2*half", full, half)
	}
	if got := PathDistanceMeters(path, 2, 2); got != 0 {
		t.Fatalf("zero-length window = %f, want 0", got)
	}
	// Out-of-range indices are clamped, not a panic.
	if got := PathDistanceMeters(path, -5, 99); math.Abs(got-full) > 0.001 {
		t.Fatalf("clamped = %f, want %f", got, full)
	}
}

func TestNearestAheadIndex(t *testing.T) {
	path := []domain.Coordinate{
		{Lat: 13.7500, Lon: 100.5000},
		{Lat: 13.7510, Lon: 100.5000},
		{Lat: 13.7520, Lon: 100.5000},
		{Lat: 13.7530, Lon: 100.5000},
	}

	pos := domain.Coordinate{Lat: 13.7521, Lon: 100.5001}
	if got := NearestAheadIndex(path, 0, 3, pos); got != 2 {
		t.Fatalf("nearest index = %d, want 2", got)
	}

	// The window lower bound wins even when an earlier point is closer.
	pos = domain.Coordinate{Lat: 13.7500, Lon: 100.5000}
	if got := NearestAheadIndex(path, 2, 3, pos); got != 2 {
		t.Fatalf("bounded nearest index = %d, want 2", got)
	}
}

func TestDistanceToPathMeters(t *testing.T) {
	path := []domain.Coordinate{
		{Lat: 13.7500, Lon: 100.5000},
		{Lat: 13.7500, Lon: 100.5100},
	}

	// On the segment.
	on := domain.Coordinate{Lat: 13.7500, Lon: 100.5050}
	if d := DistanceToPathMeters(path, 0, 1, on); d > 1 {
		t.Fatalf("on-path deviation = %.1f m, want ~0", d)
	}

	// ~111 m north of the segment midpoint.
	off := domain.Coordinate{Lat: 13.7510, Lon: 100.5050}
	d := DistanceToPathMeters(path, 0, 1, off)
	if d < 100 || d > 125 {
		t.Fatalf("off-path deviation = %.1f m, want ~111 m", d)
	}
}
