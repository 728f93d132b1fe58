package models

import "time"

// AttemptStatus — состояние платёжной попытки.
type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
)

// PaymentAttempt — попытка push-платежа по заказу. На заказ допускается
// не более одной попытки в статусе pending.
type PaymentAttempt struct {
	ID                string        `json:"id"`
	OrderID           string        `json:"order_id"`
	Phone             string        `json:"phone"`
	Amount            int64         `json:"amount"`
	ProviderReference string        `json:"provider_reference,omitempty"`
	Status            AttemptStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// PaymentResult — итог сверки одной попытки: новый статус попытки и
// целевой статус заказа.
type PaymentResult struct {
	AttemptID     string
	AttemptStatus AttemptStatus
	OrderID       string
	OrderStatus   OrderStatus
}
