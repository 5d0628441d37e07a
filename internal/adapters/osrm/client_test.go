package osrm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/ports"
)

// tripFixture builds a minimal valid trip response for n input coordinates
// visited in input order.
func tripFixture(coords []domain.Coordinate) string {
	var legs []string
	for i := 0; i < len(coords)-1; i++ {
		geometry := EncodePolyline([]domain.Coordinate{coords[i], coords[i+1]})
		legs = append(legs, fmt.Sprintf(`{
			"distance": 1000, "duration": 120,
			"steps": [
				{"distance": 1000, "duration": 120, "geometry": %q, "name": "Rama IV",
				 "maneuver": {"type": "depart", "modifier": "straight"},
				 "intersections": [{"lanes": [{"indications": ["straight"], "valid": true}]}]},
				{"distance": 0, "duration": 0, "geometry": %q, "name": "",
				 "maneuver": {"type": "arrive"}, "intersections": []}
			]}`, geometry, EncodePolyline(coords[i+1:i+2])))
	}

	var waypoints []string
	for i := range coords {
		waypoints = append(waypoints, fmt.Sprintf(
			`{"waypoint_index": %d, "trips_index": 0, "location": [%f, %f]}`,
			i, coords[i].Lon, coords[i].Lat,
		))
	}

	return fmt.Sprintf(
		`{"code": "Ok", "trips": [{"distance": %d, "duration": %d, "legs": [%s]}], "waypoints": [%s]}`,
		1000*(len(coords)-1), 120*(len(coords)-1),
		strings.Join(legs, ","), strings.Join(waypoints, ","),
	)
}

func testCoords() []domain.Coordinate {
	return []domain.Coordinate{
		{Lat: 13.7563, Lon: 100.5018},
		{Lat: 13.7500, Lon: 100.5100},
		{Lat: 13.7400, Lon: 100.5200},
	}
}

func TestClientTrip(t *testing.T) {
	coords := testCoords()

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		fmt.Fprint(w, tripFixture(coords))
	}))
	defer server.Close()

	client, err := NewClient([]string{server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := client.Trip(context.Background(), ports.TripRequest{
		Coordinates:      coords,
		Mode:             domain.ModeDriving,
		FixedDestination: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(result.Legs))
	}
	if len(result.VisitOrder) != 3 {
		t.Fatalf("visit order entries = %d, want 3", len(result.VisitOrder))
	}
	if result.Legs[0].Steps[0].RoadName != "Rama IV" {
		t.Errorf("road name = %q, want Rama IV", result.Legs[0].Steps[0].RoadName)
	}
	if len(result.Legs[0].Steps[0].Lanes) != 1 || !result.Legs[0].Steps[0].Lanes[0].Valid {
		t.Errorf("lane guidance not normalized: %+v", result.Legs[0].Steps[0].Lanes)
	}

	if !strings.Contains(gotPath, "/trip/v1/driving/") {
		t.Errorf("request path %q missing trip endpoint", gotPath)
	}
	for _, param := range []string{"steps=true", "source=first", "destination=last", "roundtrip=false"} {
		if !strings.Contains(gotPath, param) {
			t.Errorf("request path %q missing %q", gotPath, param)
		}
	}
}

func TestClientTripFailover(t *testing.T) {
	coords := testCoords()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, tripFixture(coords))
	}))
	defer good.Close()

	client, err := NewClient([]string{bad.URL, good.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := client.Trip(context.Background(), ports.TripRequest{
		Coordinates: coords,
		Mode:        domain.ModeDriving,
	})
	if err != nil {
		t.Fatalf("expected failover to succeed, got %v", err)
	}
	if len(result.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(result.Legs))
	}
}

func TestClientTripAllEndpointsFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusNotFound)
	}))
	defer bad.Close()

	client, err := NewClient([]string{bad.URL, bad.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Trip(context.Background(), ports.TripRequest{
		Coordinates: testCoords(),
		Mode:        domain.ModeDriving,
	}); err == nil {
		t.Fatal("expected error when every endpoint fails")
	}
}

func TestClientTripRejectsErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": "NoTrips", "message": "no trip found", "trips": [], "waypoints": []}`)
	}))
	defer server.Close()

	client, err := NewClient([]string{server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Trip(context.Background(), ports.TripRequest{
		Coordinates: testCoords(),
		Mode:        domain.ModeDriving,
	}); err == nil || !strings.Contains(err.Error(), "NoTrips") {
		t.Fatalf("expected NoTrips error, got %v", err)
	}
}

func TestPolylineRoundTrip(t *testing.T) {
	points := []domain.Coordinate{
		{Lat: 13.75630, Lon: 100.50180},
		{Lat: 13.75010, Lon: 100.51000},
		{Lat: 13.74000, Lon: 100.52000},
		{Lat: -33.86880, Lon: 151.20930},
	}

	decoded, err := DecodePolyline(EncodePolyline(points))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != len(points) {
		t.Fatalf("decoded %d points, want %d", len(decoded), len(points))
	}
	for i := range points {
		if dLat := decoded[i].Lat - points[i].Lat; dLat > 1e-5 || dLat < -1e-5 {
			t.Errorf("point %d lat = %f, want %f", i, decoded[i].Lat, points[i].Lat)
		}
		if dLon := decoded[i].Lon - points[i].Lon; dLon > 1e-5 || dLon < -1e-5 {
			t.Errorf("point %d lon = %f, want %f", i, decoded[i].Lon, points[i].Lon)
		}
	}
}

func TestDecodePolylineTruncated(t *testing.T) {
	if _, err := DecodePolyline("_p~iF~ps"); err == nil {
		t.Fatal("expected error for truncated polyline")
	}
}
