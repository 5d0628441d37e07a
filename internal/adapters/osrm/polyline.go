package osrm

import (
	"errors"

	"dispatch-nav-service/internal/domain"
)

const polylinePrecision = 1e-5

// DecodePolyline converts a polyline5-encoded geometry string into
// coordinates (Google encoded polyline format, the OSRM default).
func DecodePolyline(encoded string) ([]domain.Coordinate, error) {
	var points []domain.Coordinate
	index, lat, lon := 0, 0, 0

	readVarint := func() (int, error) {
		shift, result := 0, 0
		for {
			if index >= len(encoded) {
				return 0, errors.New("decode polyline: truncated input")
			}
			b := int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		if result&1 != 0 {
			return -(result >> 1) - 1, nil
		}
		return result >> 1, nil
	}

	for index < len(encoded) {
		dLat, err := readVarint()
		if err != nil {
			return nil, err
		}
		dLon, err := readVarint()
		if err != nil {
			return nil, err
		}

		lat += dLat
		lon += dLon
		points = append(points, domain.Coordinate{
			Lat: float64(lat) * polylinePrecision,
			Lon: float64(lon) * polylinePrecision,
		})
	}

	return points, nil
}

// EncodePolyline is the inverse of DecodePolyline. Tests use it to produce
// provider-shaped fixtures.
func EncodePolyline(points []domain.Coordinate) string {
	var out []byte
	prevLat, prevLon := 0, 0

	writeVarint := func(v int) {
		v <<= 1
		if v < 0 {
			v = ^v
		}
		for v >= 0x20 {
			out = append(out, byte((0x20|(v&0x1f))+63))
			v >>= 5
		}
		out = append(out, byte(v+63))
	}

	for _, p := range points {
		lat := int(roundHalfAway(p.Lat / polylinePrecision))
		lon := int(roundHalfAway(p.Lon / polylinePrecision))
		writeVarint(lat - prevLat)
		writeVarint(lon - prevLon)
		prevLat, prevLon = lat, lon
	}

	return string(out)
}

func roundHalfAway(v float64) float64 {
	if v < 0 {
		return float64(int(v - 0.5))
	}
	return float64(int(v + 0.5))
}
