package rabbitmq

// Имена обменника и очереди событий о статусе заказа.
const (
	OrdersExchange     = "orders"
	StatusRoutingKey   = "status"
	StatusQueue        = "orders.status"
	exchangeKindDirect = "direct"

	// DeadLetterExchange принимает сообщения, исчерпавшие повторы.
	DeadLetterExchange = "orders.dlx"
	deadLetterSuffix   = ".dead"
)

// DeadLetterQueue возвращает имя dead-letter очереди для queueName.
func DeadLetterQueue(queueName string) string {
	return queueName + deadLetterSuffix
}

// QueueConfig описывает очередь и ключ её привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetOrderQueues возвращает очереди, которые слушают воркеры магазина.
func GetOrderQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: StatusQueue, RoutingKey: StatusRoutingKey},
	}
}
