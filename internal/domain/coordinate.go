package domain

import "fmt"

// Immutable geographic coordinate (latitude, longitude) in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Key renders the coordinate at fixed precision for cache signatures.
// Six decimal places is ~0.1m, well below any movement threshold.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}

// A live position sample from the device stream. Heading, Speed and
// Accuracy are optional; nil means the device did not report them.
type Position struct {
	Point    Coordinate
	Heading  *float64
	Speed    *float64 // meters per second
	Accuracy *float64 // meters
}
