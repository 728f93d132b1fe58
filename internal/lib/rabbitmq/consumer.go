package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
)

// maxInFlight ограничивает число одновременно обрабатываемых сообщений.
const maxInFlight = 10

// retryHeader хранит число уже сделанных попыток обработки сообщения.
const retryHeader = "x-retry-count"

// RetryPolicy задаёт повторную обработку упавших сообщений: пауза растёт
// вдвое с каждой попыткой, после MaxAttempts сообщение уходит в dead-letter.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
}

// backoff возвращает паузу перед попыткой attempt+1.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.Delay
	for i := 1; i < attempt && (p.MaxDelay <= 0 || d < p.MaxDelay); i++ {
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// exhausted сообщает, что attempt попыток исчерпали политику.
func (p RetryPolicy) exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}

// attemptsMade читает счётчик попыток из заголовков сообщения.
func attemptsMade(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// ConsumerMessage запускает потребителя очереди queueName. Успех handler
// подтверждает сообщение. При ошибке сообщение после паузы публикуется
// в ту же очередь с увеличенным счётчиком попыток, а исчерпав политику,
// отклоняется без возврата и попадает в dead-letter очередь.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	policy RetryPolicy, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(delivery.Body); err != nil {
						retry(ctx, log, ch, queueName, policy, delivery, err)
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func retry(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	policy RetryPolicy, d amqp.Delivery, cause error) {
	attempt := attemptsMade(d.Headers) + 1
	log = log.With(slog.String("queue", queueName), slog.Int("attempt", attempt), sl.Err(cause))

	if policy.exhausted(attempt) {
		log.Error("handler failed, dead-lettering message")
		if err := d.Nack(false, false); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}

	pause := policy.backoff(attempt)
	log.Warn("handler failed, retrying later", slog.Duration("delay", pause))

	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		if err := d.Nack(false, true); err != nil {
			log.Error("failed to requeue message", sl.Err(err))
		}
		return
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(attempt)

	err := ch.Publish("", queueName, false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: d.DeliveryMode,
		Body:         d.Body,
	})
	if err != nil {
		log.Error("failed to republish message, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack retried message", sl.Err(err))
	}
}
