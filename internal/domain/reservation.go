package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// allowedTargets is the status graph. CANCELLED and COMPLETED are terminal.
var allowedTargets = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

func (s Status) IsValid() bool {
	_, ok := allowedTargets[s]
	return ok
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range allowedTargets[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool { return len(allowedTargets[s]) == 0 }

// Blocks reports whether a reservation in this status holds its room.
func (s Status) Blocks() bool { return s == StatusPending || s == StatusConfirmed }

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
	return st, nil
}

type Guest struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	SpecialRequests *string
}

type Reservation struct {
	ID         uuid.UUID
	HotelID    int64
	RoomID     int64
	UserID     int64
	CheckIn    time.Time
	CheckOut   time.Time
	Status     Status
	TotalPrice decimal.Decimal
	Guest      Guest
	PaymentID  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r Reservation) Range() DateRange { return DateRange{Start: r.CheckIn, End: r.CheckOut} }

func (r Reservation) Nights() int { return ComputeNights(r.CheckIn, r.CheckOut) }

// Actor is the caller on whose behalf a lifecycle operation runs. It is passed
// explicitly into every operation; nothing reads a "current user" from globals.
type Actor struct {
	UserID int64
	Email  string
}

func (a Actor) Known() bool { return a.UserID > 0 }
