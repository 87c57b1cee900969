// Package payments talks to the payment service.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"reservite/internal/adapters/upstream"
	"reservite/internal/domain"
)

// keySpace namespaces idempotency keys so the same reservation and amount
// always map to the same key, including across separate Charge calls.
var keySpace = uuid.MustParse("6f1c2f0e-3b7a-4c55-9f0a-2d1f7a0c9e11")

type Client struct{ up *upstream.Client }

func New(base, key string, rps int, timeout time.Duration) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("payment service base URL is required")
	}
	return &Client{up: upstream.New("payment", base, key, rps, timeout)}, nil
}

type chargeBody struct {
	ReservationID string      `json:"reservationId"`
	Amount        json.Number `json:"amount"`
}

type chargeResponse struct {
	ID          string `json:"id"`
	PaymentID   any    `json:"paymentId"`
	Status      string `json:"status"`
	ApprovalURL string `json:"approvalUrl"`
}

func IdempotencyKey(req domain.PaymentRequest) string {
	return uuid.NewSHA1(keySpace, []byte(req.ReservationID.String()+"|"+req.Amount.StringFixed(2))).String()
}

func (c *Client) Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	h := http.Header{}
	h.Set("Idempotency-Key", IdempotencyKey(req))

	var resp chargeResponse
	err := c.up.Do(ctx, upstream.Request{
		Method:   http.MethodPost,
		Endpoint: "/api/payments",
		Path:     "/api/payments",
		Body:     chargeBody{ReservationID: req.ReservationID.String(), Amount: json.Number(req.Amount.StringFixed(2))},
		Header:   h,
	}, &resp)
	if err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) && (se.Code == http.StatusPaymentRequired || se.Code == http.StatusBadRequest) {
			return domain.PaymentResult{}, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, se.Body)
		}
		return domain.PaymentResult{}, err
	}

	out := domain.PaymentResult{
		ID:          resp.ID,
		Status:      strings.ToUpper(strings.TrimSpace(resp.Status)),
		ApprovalURL: resp.ApprovalURL,
	}
	if out.ID == "" && resp.PaymentID != nil {
		out.ID = fmt.Sprint(resp.PaymentID)
	}
	if out.Status == "" && out.ApprovalURL == "" {
		out.Status = domain.PaymentCompleted
	}
	return out, nil
}
