// Package rabbitmq содержит подключение к RabbitMQ, публикацию и
// потребление событий о статусе заказов.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// StatusPublisher публикует события смены статуса заказа в обменник orders.
// amqp.Channel не безопасен для конкурентной публикации, поэтому вызовы сериализуются.
type StatusPublisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

// NewStatusPublisher создаёт издателя поверх настроенного канала.
func NewStatusPublisher(ch *amqp.Channel) *StatusPublisher {
	return &StatusPublisher{ch: ch}
}

// PublishStatus отправляет событие с ключом маршрутизации status.
func (p *StatusPublisher) PublishStatus(_ context.Context, event models.OrderStatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishMessage(p.ch, OrdersExchange, StatusRoutingKey, event)
}
