package models

import (
	"fmt"
	"time"
)

// OrderStatus — состояние заказа.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderCompleted  OrderStatus = "completed"
	OrderFailed     OrderStatus = "failed"
	OrderCancelled  OrderStatus = "cancelled"
)

// transitions — допустимые переходы. В pending не ведёт ни один переход,
// из failed и cancelled выхода нет.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCompleted, OrderFailed, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderFailed, OrderShipped},
	OrderCompleted:  {OrderShipped},
	OrderShipped:    {OrderCompleted},
}

// PaidStatuses — статусы, при которых продажа учитывается в отчётах.
var PaidStatuses = []OrderStatus{OrderProcessing, OrderShipped, OrderCompleted}

// Valid сообщает, известен ли статус.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderFailed, OrderCancelled:
		return true
	}
	return false
}

// IsTerminal истинно для статусов, после которых опрос платежа можно прекращать.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderFailed || s == OrderCancelled || s == OrderShipped
}

// CanTransition проверяет переход s -> to по таблице переходов.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor возвращает статусы, из которых разрешён переход в to.
// Используется как предикат в UPDATE, чтобы гонка не откатила статус назад.
func SourcesFor(to OrderStatus) []OrderStatus {
	var res []OrderStatus
	for from, nexts := range transitions {
		for _, n := range nexts {
			if n == to {
				res = append(res, from)
			}
		}
	}
	return res
}

// Shipping — данные доставки, сохраняемые снимком в заказе.
type Shipping struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
}

// Order — оформленный заказ.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Status      OrderStatus `json:"status"`
	Shipping    Shipping    `json:"shipping"`
	TotalAmount int64       `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
	Lines       []OrderLine `json:"lines,omitempty"`
}

// LinesTotal пересчитывает сумму по строкам заказа. Переполнение и
// количество вне [1, MaxLineQuantity] дают ErrInvalidInput.
func (o *Order) LinesTotal() (int64, error) {
	var total int64
	for _, l := range o.Lines {
		if l.Quantity < 1 || l.Quantity > MaxLineQuantity {
			return 0, fmt.Errorf("%w: quantity of %s out of range", ErrInvalidInput, l.ProductID)
		}
		amount, ok := LineAmount(l.PriceAtPurchase, l.Quantity)
		if !ok {
			return 0, fmt.Errorf("%w: line total of %s overflows", ErrInvalidInput, l.ProductID)
		}
		if total, ok = AddAmount(total, amount); !ok {
			return 0, fmt.Errorf("%w: order total overflows", ErrInvalidInput)
		}
	}
	return total, nil
}

// ProductSnapshot фиксирует состояние каталога на момент покупки.
type ProductSnapshot struct {
	Title     string `json:"title"`
	Category  string `json:"category,omitempty"`
	ImageRef  string `json:"image_ref,omitempty"`
	AuthorID  string `json:"author_id,omitempty"`
	PartnerID string `json:"partner_id,omitempty"`
}

// OrderLine — неизменяемая строка заказа.
type OrderLine struct {
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase int64           `json:"price_at_purchase"`
	Snapshot        ProductSnapshot `json:"product_snapshot"`
}

// OrderStatusEvent публикуется в очередь при смене статуса заказа.
type OrderStatusEvent struct {
	OrderID     string      `json:"order_id"`
	UserID      string      `json:"user_id"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	Status      OrderStatus `json:"status"`
	TotalAmount int64       `json:"total_amount"`
}

// StatusEvent собирает событие о переходе заказа в status.
func (o *Order) StatusEvent(status OrderStatus) OrderStatusEvent {
	return OrderStatusEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Email:       o.Shipping.Email,
		FullName:    o.Shipping.FullName,
		Status:      status,
		TotalAmount: o.TotalAmount,
	}
}
