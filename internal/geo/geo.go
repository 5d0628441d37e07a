// Package geo provides pure geospatial helpers for route tracking.
//
// Distances use the Haversine formula on WGS-84 coordinates, which is
// accurate to well under the thresholds the tracker works with (tens of
// meters over city-scale legs).
package geo

import (
	"math"

	"dispatch-nav-service/internal/domain"
)

const earthRadiusMeters = 6371000.0

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b domain.Coordinate) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// PathDistanceMeters sums segment lengths of path[from..to] inclusive.
// Indices are clamped to the path bounds.
func PathDistanceMeters(path []domain.Coordinate, from, to int) float64 {
	if len(path) < 2 {
		return 0
	}
	if from < 0 {
		from = 0
	}
	if to > len(path)-1 {
		to = len(path) - 1
	}

	total := 0.0
	for i := from; i < to; i++ {
		total += HaversineMeters(path[i], path[i+1])
	}
	return total
}

// NearestAheadIndex returns the index of the point closest to pos within
// path[from..to], never less than from. The window bound keeps the search
// inside the current leg so a self-intersecting route cannot snap progress
// onto a later leg.
func NearestAheadIndex(path []domain.Coordinate, from, to int, pos domain.Coordinate) int {
	if len(path) == 0 {
		return from
	}
	if from < 0 {
		from = 0
	}
	if to > len(path)-1 {
		to = len(path) - 1
	}
	if from > to {
		return from
	}

	best := from
	bestDist := HaversineMeters(path[from], pos)
	for i := from + 1; i <= to; i++ {
		if d := HaversineMeters(path[i], pos); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// DistanceToPathMeters returns the minimum perpendicular distance from pos
// to the polyline path[from..to]. Used for off-route detection.
func DistanceToPathMeters(path []domain.Coordinate, from, to int, pos domain.Coordinate) float64 {
	if len(path) == 0 {
		return 0
	}
	if from < 0 {
		from = 0
	}
	if to > len(path)-1 {
		to = len(path) - 1
	}
	if from >= to {
		return HaversineMeters(path[from], pos)
	}

	best := math.MaxFloat64
	for i := from; i < to; i++ {
		if d := pointToSegmentMeters(pos, path[i], path[i+1]); d < best {
			best = d
		}
	}
	return best
}

// pointToSegmentMeters projects p onto the segment a-b using a local
// equirectangular approximation. The error is negligible at the segment
// lengths road geometries produce.
func pointToSegmentMeters(p, a, b domain.Coordinate) float64 {
	latRef := degToRad(a.Lat)
	ax, ay := 0.0, 0.0
	bx := degToRad(b.Lon-a.Lon) * math.Cos(latRef) * earthRadiusMeters
	by := degToRad(b.Lat-a.Lat) * earthRadiusMeters
	px := degToRad(p.Lon-a.Lon) * math.Cos(latRef) * earthRadiusMeters
	py := degToRad(p.Lat-a.Lat) * earthRadiusMeters

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	cx := ax + t*dx
	cy := ay + t*dy
	return math.Hypot(px-cx, py-cy)
}
