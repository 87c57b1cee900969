package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"reservite/internal/domain"
)

func desc(s string) *string { return &s }

// DemoRooms is the catalog served in STORE=memory mode before any sync ran.
func DemoRooms() []domain.Room {
	return []domain.Room{
		{ID: 1, HotelID: 1, RoomNumber: "101", Type: "single", Capacity: 1, Price: decimal.NewFromInt(150), Available: true, Description: desc("Quiet single room facing the garden")},
		{ID: 2, HotelID: 1, RoomNumber: "102", Type: "double", Capacity: 2, Price: decimal.NewFromInt(250), Available: true},
		{ID: 3, HotelID: 1, RoomNumber: "103", Type: "suite", Capacity: 4, Price: decimal.NewFromInt(500), Available: true, Description: desc("Top floor suite with terrace")},
		{ID: 4, HotelID: 2, RoomNumber: "201", Type: "double", Capacity: 2, Price: decimal.NewFromInt(200), Available: true},
		{ID: 5, HotelID: 2, RoomNumber: "202", Type: "family", Capacity: 5, Price: decimal.NewFromInt(400), Available: false, Description: desc("Closed for renovation")},
	}
}

// Seed loads DemoRooms into s.
func Seed(ctx context.Context, s *Store) error {
	return s.UpsertRooms(ctx, DemoRooms())
}
