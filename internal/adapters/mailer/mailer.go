// Package mailer sends reservation confirmation emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"text/template"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"reservite/internal/domain"
)

type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromName  string
	FromEmail string
}

type Mailer struct {
	cfg  Config
	send func(ctx context.Context, m *mail.Msg) error
}

// New returns a Noop notifier when no SMTP host is configured.
func New(cfg Config) domain.Notifier {
	if cfg.Host == "" {
		return Noop{}
	}
	m := &Mailer{cfg: cfg}
	m.send = m.dialAndSend
	return m
}

func (m *Mailer) ReservationConfirmed(ctx context.Context, r domain.Reservation, room domain.Room) error {
	msg, err := m.buildConfirmation(r, room)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation %s (host=%s port=%d): %w", r.ID, m.cfg.Host, m.cfg.Port, err)
	}
	log.Info().Str("reservation", r.ID.String()).Str("to", r.Guest.Email).Msg("confirmation sent")
	return nil
}

func (m *Mailer) buildConfirmation(r domain.Reservation, room domain.Room) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromEmail)); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(r.Guest.Email); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(fmt.Sprintf("Reservation confirmed: room %s, %s to %s",
		room.RoomNumber, r.CheckIn.Format(domain.DateLayout), r.CheckOut.Format(domain.DateLayout)))

	body, err := renderConfirmation(r, room)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTLSConfig(&tls.Config{ServerName: m.cfg.Host}),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}
	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(ctx, msg)
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`Hello {{.FirstName}} {{.LastName}},

your reservation {{.ID}} is confirmed.

  Room:      {{.RoomNumber}} ({{.RoomType}})
  Check-in:  {{.CheckIn}}
  Check-out: {{.CheckOut}}
  Nights:    {{.Nights}}
  Total:     {{.Total}}
{{if .SpecialRequests}}  Requests:  {{.SpecialRequests}}
{{end}}
See you soon.
`))

func renderConfirmation(r domain.Reservation, room domain.Room) (string, error) {
	data := struct {
		ID, FirstName, LastName, RoomNumber, RoomType string
		CheckIn, CheckOut, Total, SpecialRequests     string
		Nights                                        int
	}{
		ID:         r.ID.String(),
		FirstName:  r.Guest.FirstName,
		LastName:   r.Guest.LastName,
		RoomNumber: room.RoomNumber,
		RoomType:   room.Type,
		CheckIn:    r.CheckIn.Format(domain.DateLayout),
		CheckOut:   r.CheckOut.Format(domain.DateLayout),
		Total:      r.TotalPrice.StringFixed(2),
		Nights:     r.Nights(),
	}
	if r.Guest.SpecialRequests != nil {
		data.SpecialRequests = *r.Guest.SpecialRequests
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}

// Noop drops notifications.
type Noop struct{}

func (Noop) ReservationConfirmed(context.Context, domain.Reservation, domain.Room) error { return nil }
