package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"reservite/internal/domain"
)

/********** alias registry (single source of truth) **********/

// roomNumber is deliberately absent from "id": the display number is never a
// persistent id.
var roomAliases = map[string][]string{
	"id":          {"id", "roomId", "room_id"},
	"hotel":       {"hotelId", "hotel_id", "hotel.id"},
	"number":      {"roomNumber", "room_number", "number", "name"},
	"type":        {"type", "roomType", "room_type", "category"},
	"capacity":    {"capacity", "maxGuests", "max_guests", "occupancy"},
	"price":       {"price", "pricePerNight", "price_per_night", "rate", "price.amount"},
	"available":   {"available", "isAvailable", "is_available", "bookable"},
	"description": {"description", "details", "summary"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func firstString(m map[string]any, paths ...string) string {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// firstDecimalFlexible: money from several paths (number or string like "150,00").
func firstDecimalFlexible(m map[string]any, paths ...string) *decimal.Decimal {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			d := decimal.NewFromFloat(v)
			return &d
		case int:
			d := decimal.NewFromInt(int64(v))
			return &d
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if d, err := decimal.NewFromString(s); err == nil {
				return &d
			}
		}
	}
	return nil
}

func firstBoolFlexible(m map[string]any, paths ...string) *bool {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case bool:
			return &v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return &b
			}
		case float64:
			b := v != 0
			return &b
		}
	}
	return nil
}

/********** room mapper **********/

// mapRoom turns one hotel service payload into a Room of hotelID. A payload
// without an id or a positive price, or one claiming another hotel, is rejected.
// A missing availability flag maps to unavailable.
func mapRoom(hotelID int64, p map[string]any) (domain.Room, error) {
	id := firstInt64Flexible(p, roomAliases["id"]...)
	if id == nil || *id <= 0 {
		return domain.Room{}, fmt.Errorf("room payload has no id")
	}
	if h := firstInt64Flexible(p, roomAliases["hotel"]...); h != nil && *h != hotelID {
		return domain.Room{}, fmt.Errorf("room %d belongs to hotel %d", *id, *h)
	}
	price := firstDecimalFlexible(p, roomAliases["price"]...)
	if price == nil || !price.IsPositive() {
		return domain.Room{}, fmt.Errorf("room %d has no positive price", *id)
	}

	r := domain.Room{
		ID:         *id,
		HotelID:    hotelID,
		RoomNumber: firstString(p, roomAliases["number"]...),
		Type:       strings.ToLower(firstString(p, roomAliases["type"]...)),
		Capacity:   1,
		Price:      *price,
	}
	if r.RoomNumber == "" {
		r.RoomNumber = strconv.FormatInt(r.ID, 10)
	}
	if c := firstInt64Flexible(p, roomAliases["capacity"]...); c != nil {
		if *c <= 0 {
			return domain.Room{}, fmt.Errorf("room %d has capacity %d", r.ID, *c)
		}
		r.Capacity = int(*c)
	}
	if a := firstBoolFlexible(p, roomAliases["available"]...); a != nil {
		r.Available = *a
	}
	if d := firstString(p, roomAliases["description"]...); d != "" {
		r.Description = &d
	}
	return r, nil
}

// mapRooms maps every valid payload and returns the reasons for the rest.
func mapRooms(hotelID int64, in []map[string]any) ([]domain.Room, []string) {
	out := make([]domain.Room, 0, len(in))
	var rejected []string
	for _, p := range in {
		r, err := mapRoom(hotelID, p)
		if err != nil {
			log.Warn().Err(err).Int64("hotel", hotelID).Str("context", "mapRooms").Msg("skipping room payload")
			rejected = append(rejected, err.Error())
			continue
		}
		out = append(out, r)
	}
	return out, rejected
}
