package app

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMapRoom_FlexibleKeys(t *testing.T) {
	r, err := mapRoom(1, map[string]any{
		"roomId":        float64(12),
		"hotelId":       "1",
		"roomNumber":    "305",
		"roomType":      "DOUBLE",
		"maxGuests":     float64(2),
		"pricePerNight": "129,50",
		"isAvailable":   "true",
		"description":   "sea view",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != 12 || r.HotelID != 1 || r.RoomNumber != "305" || r.Type != "double" || r.Capacity != 2 {
		t.Fatalf("unexpected room: %+v", r)
	}
	if !r.Price.Equal(decimal.RequireFromString("129.5")) {
		t.Fatalf("price: %s", r.Price)
	}
	if !r.Available || r.Description == nil || *r.Description != "sea view" {
		t.Fatalf("unexpected flags: %+v", r)
	}
}

func TestMapRoom_NeverUsesRoomNumberAsID(t *testing.T) {
	if _, err := mapRoom(1, map[string]any{"roomNumber": "101", "price": float64(100)}); err == nil {
		t.Fatalf("expected error for payload without id")
	}
}

func TestMapRoom_Rejects(t *testing.T) {
	cases := map[string]map[string]any{
		"zero price":    {"id": float64(1), "price": float64(0)},
		"no price":      {"id": float64(1)},
		"other hotel":   {"id": float64(1), "hotelId": float64(2), "price": float64(10)},
		"zero capacity": {"id": float64(1), "price": float64(10), "capacity": float64(0)},
	}
	for name, p := range cases {
		if _, err := mapRoom(1, p); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestMapRoom_Defaults(t *testing.T) {
	r, err := mapRoom(3, map[string]any{"id": float64(7), "price": float64(80)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Available {
		t.Fatalf("missing flag must map to unavailable")
	}
	if r.Capacity != 1 || r.RoomNumber != "7" {
		t.Fatalf("unexpected defaults: %+v", r)
	}
}

func TestMapRooms_SplitsValidAndRejected(t *testing.T) {
	rooms, rejected := mapRooms(1, []map[string]any{
		{"id": float64(1), "price": float64(100), "available": true},
		{"roomNumber": "x"},
	})
	if len(rooms) != 1 || len(rejected) != 1 {
		t.Fatalf("got %d rooms, %d rejected", len(rooms), len(rejected))
	}
}
