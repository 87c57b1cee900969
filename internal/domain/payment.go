package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment statuses reported by the payment service.
const (
	PaymentCompleted = "COMPLETED"
	PaymentPending   = "PENDING"
	PaymentFailed    = "FAILED"
)

type PaymentRequest struct {
	ReservationID uuid.UUID
	Amount        decimal.Decimal
}

// PaymentResult mirrors the payment service response. A non-empty ApprovalURL
// means the guest must approve the payment on the provider's site and the
// confirmation arrives later through the confirm-payment callback.
type PaymentResult struct {
	ID          string
	Status      string
	ApprovalURL string
}

func (p PaymentResult) NeedsApproval() bool { return p.ApprovalURL != "" }

func (p PaymentResult) Succeeded() bool { return p.Status == PaymentCompleted && !p.NeedsApproval() }
