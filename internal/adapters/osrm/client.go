package osrm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dispatch-nav-service/internal/domain"
	"dispatch-nav-service/internal/platform/obs"
	"dispatch-nav-service/internal/ports"
)

// Client implements RouteProvider against the OSRM trip endpoint.
//
// It coordinates:
//   - Trip request construction (coordinate list, optimization options)
//   - Concurrent failover across independently hosted mirrors
//   - External API calls with retry/backoff
//   - Response normalization into domain geometry
//
// The client is safe for concurrent use.
type Client struct {
	session   *http.Client
	endpoints []string
}

func NewClient(endpoints []string) (*Client, error) {
	cleaned := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		e = strings.TrimRight(strings.TrimSpace(e), "/")
		if e != "" {
			cleaned = append(cleaned, e)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("osrm: at least one endpoint is required")
	}

	return &Client{
		session:   &http.Client{Timeout: 15 * time.Second},
		endpoints: cleaned,
	}, nil
}

// profileFor maps travel modes onto OSRM routing profiles. Motorcycle trips
// use the driving profile; public OSRM instances expose no motorcycle graph.
func profileFor(mode domain.TravelMode) string {
	switch mode {
	case domain.ModeWalking:
		return "walking"
	default:
		return "driving"
	}
}

type tripOutcome struct {
	endpoint string
	result   *ports.TripResult
	err      error
}

// Trip queries every configured mirror concurrently and returns the first
// successful response. Remaining requests are cancelled once a winner
// commits; if all mirrors fail the last error is returned.
func (c *Client) Trip(ctx context.Context, req ports.TripRequest) (_ *ports.TripResult, err error) {
	defer obs.Time(ctx, "osrm.Trip")(&err)

	if len(req.Coordinates) < 2 {
		return nil, errors.New("osrm trip: at least 2 coordinates are required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan tripOutcome, len(c.endpoints))
	for _, endpoint := range c.endpoints {
		go func(endpoint string) {
			res, err := c.tripFrom(ctx, endpoint, req)
			results <- tripOutcome{endpoint: endpoint, result: res, err: err}
		}(endpoint)
	}

	var lastErr error
	for range c.endpoints {
		select {
		case <-ctx.Done():
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			return nil, fmt.Errorf("osrm trip: %w", lastErr)
		case out := <-results:
			if out.err == nil {
				return out.result, nil
			}
			lastErr = fmt.Errorf("endpoint %s: %w", out.endpoint, out.err)
		}
	}

	return nil, fmt.Errorf("osrm trip: all endpoints failed: %w", lastErr)
}

// tripFrom issues the trip request to a single endpoint.
func (c *Client) tripFrom(ctx context.Context, endpoint string, req ports.TripRequest) (*ports.TripResult, error) {
	coords := make([]string, 0, len(req.Coordinates))
	for _, p := range req.Coordinates {
		coords = append(coords, fmt.Sprintf("%f,%f", p.Lon, p.Lat))
	}

	destination := "any"
	if req.FixedDestination {
		destination = "last"
	}

	q := url.Values{}
	q.Set("steps", "true")
	q.Set("geometries", "polyline")
	q.Set("overview", "false")
	q.Set("roundtrip", "false")
	q.Set("source", "first")
	q.Set("destination", destination)

	reqURL := fmt.Sprintf(
		"%s/trip/v1/%s/%s?%s",
		endpoint, profileFor(req.Mode), strings.Join(coords, ";"), q.Encode(),
	)

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, reqURL)
	})
	if err != nil {
		return nil, fmt.Errorf("trip request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeTripResponse(resp.Body, len(req.Coordinates))
}
