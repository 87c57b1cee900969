package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wneessen/go-mail"

	"reservite/internal/domain"
)

func confirmed() (domain.Reservation, domain.Room) {
	req := "late arrival"
	r := domain.Reservation{
		ID:         uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		HotelID:    1,
		RoomID:     1,
		CheckIn:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		Status:     domain.StatusConfirmed,
		TotalPrice: decimal.NewFromInt(300),
		Guest: domain.Guest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "123",
			SpecialRequests: &req,
		},
	}
	return r, domain.Room{ID: 1, HotelID: 1, RoomNumber: "101", Type: "double", Price: decimal.NewFromInt(100)}
}

func TestNew_NoHostIsNoop(t *testing.T) {
	if _, ok := New(Config{}).(Noop); !ok {
		t.Fatalf("expected Noop notifier")
	}
}

func TestReservationConfirmed_BuildsMessage(t *testing.T) {
	var sent *mail.Msg
	m := &Mailer{cfg: Config{Host: "smtp.test", Port: 25, FromName: "Reservite", FromEmail: "no-reply@reservite.test"}}
	m.send = func(_ context.Context, msg *mail.Msg) error { sent = msg; return nil }

	r, room := confirmed()
	if err := m.ReservationConfirmed(context.Background(), r, room); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent == nil {
		t.Fatalf("message not sent")
	}

	var buf bytes.Buffer
	if _, err := sent.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"ada@example.com", "room 101", "2024-06-01", "300.00", "late arrival"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestReservationConfirmed_SendErrorWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	m := &Mailer{cfg: Config{Host: "smtp.test", Port: 25, FromEmail: "no-reply@reservite.test"}}
	m.send = func(context.Context, *mail.Msg) error { return boom }

	r, room := confirmed()
	if err := m.ReservationConfirmed(context.Background(), r, room); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestReservationConfirmed_BadRecipient(t *testing.T) {
	m := &Mailer{cfg: Config{Host: "smtp.test", FromEmail: "no-reply@reservite.test"}}
	m.send = func(context.Context, *mail.Msg) error { t.Fatal("should not send"); return nil }

	r, room := confirmed()
	r.Guest.Email = "not an address"
	if err := m.ReservationConfirmed(context.Background(), r, room); err == nil {
		t.Fatalf("expected address error")
	}
}
