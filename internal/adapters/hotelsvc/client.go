// Package hotelsvc reads rooms from the hotel service.
package hotelsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"reservite/internal/adapters/upstream"
	"reservite/internal/domain"
)

type Client struct{ up *upstream.Client }

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("hotel service base URL is required")
	}
	return &Client{up: upstream.New("hotel", base, key, rps, 20*time.Second)}, nil
}

// GetRooms returns the raw room payloads of a hotel. The gateway route is tried
// first, then the service's own prefix-less route.
func (c *Client) GetRooms(ctx context.Context, hotelID int64) ([]map[string]any, error) {
	candidates := []string{
		fmt.Sprintf("/api/hotels/%d/rooms", hotelID),
		fmt.Sprintf("/hotels/%d/rooms", hotelID),
	}
	var out []map[string]any
	var last error
	for _, p := range candidates {
		err := c.up.Do(ctx, upstream.Request{Method: http.MethodGet, Endpoint: "/hotels/{id}/rooms", Path: p}, &out)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, upstream.ErrNotFound) {
			return nil, mapErr(hotelID, err)
		}
		last = err
	}
	return nil, mapErr(hotelID, last)
}

func mapErr(hotelID int64, err error) error {
	switch {
	case errors.Is(err, upstream.ErrNotFound):
		return fmt.Errorf("%w: hotel %d", domain.ErrNotFound, hotelID)
	case errors.Is(err, upstream.ErrUnauthorized), errors.Is(err, upstream.ErrForbidden):
		return fmt.Errorf("%w: hotel %d: %v", domain.ErrAccessDenied, hotelID, err)
	}
	return err
}
