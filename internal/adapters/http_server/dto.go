package httpserver

import (
	"time"

	"github.com/shopspring/decimal"

	"reservite/internal/domain"
)

type createReservationRequest struct {
	HotelID         int64   `json:"hotelId" validate:"required,gt=0"`
	RoomID          int64   `json:"roomId" validate:"required,gt=0"`
	CheckIn         string  `json:"checkIn" validate:"required"`
	CheckOut        string  `json:"checkOut" validate:"required"`
	FirstName       string  `json:"firstName" validate:"required,max=100"`
	LastName        string  `json:"lastName" validate:"required,max=100"`
	Email           string  `json:"email" validate:"required,max=255"`
	Phone           string  `json:"phone" validate:"required,max=50"`
	SpecialRequests *string `json:"specialRequests" validate:"omitempty,max=2000"`
}

type paymentRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

type confirmPaymentRequest struct {
	Amount    *decimal.Decimal `json:"amount" validate:"required"`
	PaymentID string           `json:"paymentId" validate:"required,max=128"`
}

type roomResponse struct {
	ID          int64           `json:"id"`
	HotelID     int64           `json:"hotelId"`
	RoomNumber  string          `json:"roomNumber"`
	Type        string          `json:"type"`
	Capacity    int             `json:"capacity"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	Description *string         `json:"description,omitempty"`
}

// availabilityResponse reports a room for an optional stay. Without a stay only
// the room's static flag is reflected in Available.
type availabilityResponse struct {
	Room      roomResponse     `json:"room"`
	Available bool             `json:"available"`
	CheckIn   string           `json:"checkIn,omitempty"`
	CheckOut  string           `json:"checkOut,omitempty"`
	Nights    int              `json:"nights,omitempty"`
	Total     *decimal.Decimal `json:"total,omitempty"`
}

type roomListResponse struct {
	HotelID int64                  `json:"hotelId"`
	Items   []availabilityResponse `json:"items"`
}

type reservationResponse struct {
	ID              string          `json:"id"`
	HotelID         int64           `json:"hotelId"`
	RoomID          int64           `json:"roomId"`
	UserID          int64           `json:"userId"`
	CheckIn         string          `json:"checkIn"`
	CheckOut        string          `json:"checkOut"`
	Nights          int             `json:"nights"`
	Status          string          `json:"status"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	SpecialRequests *string         `json:"specialRequests,omitempty"`
	PaymentID       *string         `json:"paymentId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type reservationListResponse struct {
	UserID int64                 `json:"userId,omitempty"`
	Items  []reservationResponse `json:"items"`
}

type paymentResponse struct {
	Reservation reservationResponse `json:"reservation"`
	PaymentID   string              `json:"paymentId,omitempty"`
	ApprovalURL string              `json:"approvalUrl,omitempty"`
}

func toRoom(r domain.Room) roomResponse {
	return roomResponse{
		ID:          r.ID,
		HotelID:     r.HotelID,
		RoomNumber:  r.RoomNumber,
		Type:        r.Type,
		Capacity:    r.Capacity,
		Price:       r.Price,
		Available:   r.Available,
		Description: r.Description,
	}
}

func toAvailability(ra domain.RoomAvailability, stay *domain.DateRange) availabilityResponse {
	out := availabilityResponse{Room: toRoom(ra.Room), Available: ra.Available}
	if stay != nil {
		total := ra.Total
		out.CheckIn = stay.Start.Format(domain.DateLayout)
		out.CheckOut = stay.End.Format(domain.DateLayout)
		out.Nights = ra.Nights
		out.Total = &total
	}
	return out
}

func toReservation(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:              r.ID.String(),
		HotelID:         r.HotelID,
		RoomID:          r.RoomID,
		UserID:          r.UserID,
		CheckIn:         r.CheckIn.Format(domain.DateLayout),
		CheckOut:        r.CheckOut.Format(domain.DateLayout),
		Nights:          r.Nights(),
		Status:          string(r.Status),
		TotalPrice:      r.TotalPrice,
		FirstName:       r.Guest.FirstName,
		LastName:        r.Guest.LastName,
		Email:           r.Guest.Email,
		Phone:           r.Guest.Phone,
		SpecialRequests: r.Guest.SpecialRequests,
		PaymentID:       r.PaymentID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toReservations(rs []domain.Reservation) []reservationResponse {
	items := make([]reservationResponse, 0, len(rs))
	for _, r := range rs {
		items = append(items, toReservation(r))
	}
	return items
}
