package paymentprovider

import (
	"strings"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// PushRequest — тело запроса push-платежа.
type PushRequest struct {
	OrderID string `json:"order_id"`
	Phone   string `json:"phone"`
	Amount  int64  `json:"amount"`
}

// PushResponse — подтверждение шлюза.
type PushResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// Event — уведомление провайдера о результате платежа.
type Event struct {
	Reference string `json:"reference" validate:"required"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status" validate:"required"`
	Message   string `json:"message,omitempty"`
}

// Outcome — результат, в который переводится статус провайдера.
type Outcome struct {
	Attempt models.AttemptStatus
	Order   models.OrderStatus
}

// ParseStatus сопоставляет статус провайдера статусам попытки и заказа.
// Неизвестный статус возвращает false.
func ParseStatus(status string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "accepted":
		return Outcome{Attempt: models.AttemptPending, Order: models.OrderProcessing}, true
	case "succeeded", "paid":
		return Outcome{Attempt: models.AttemptSucceeded, Order: models.OrderCompleted}, true
	case "failed", "declined", "cancelled", "timeout":
		return Outcome{Attempt: models.AttemptFailed, Order: models.OrderFailed}, true
	}
	return Outcome{}, false
}
