// Package metrics объявляет Prometheus-метрики магазина. Метрики
// регистрируются в реестре по умолчанию и отдаются через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated — число успешно оформленных заказов.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookstore",
		Name:      "orders_created_total",
		Help:      "Number of orders placed.",
	})

	// PaymentAttempts — попытки оплаты по результату (reserved, conflict, upstream_error, accepted).
	PaymentAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookstore",
		Name:      "payment_attempts_total",
		Help:      "Payment initiations by result.",
	}, []string{"result"})

	// OrderTransitions — применённые переходы статуса заказа по целевому статусу.
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookstore",
		Name:      "order_transitions_total",
		Help:      "Applied order status transitions by target status.",
	}, []string{"status"})

	// ProviderEvents — события платёжного провайдера по исходу обработки.
	ProviderEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookstore",
		Name:      "provider_events_total",
		Help:      "Payment provider events by outcome.",
	}, []string{"outcome"})
)
