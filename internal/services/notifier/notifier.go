// Package notifier отправляет покупателям письма о смене статуса заказа.
package notifier

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/lib/smtp"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Service превращает события статуса заказа в письма.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// HandleStatusEvent обрабатывает тело сообщения из очереди orders.status.
// Битое сообщение и статус без письма подтверждаются без отправки: повтор
// их не исправит. Ошибка SMTP возвращается, и сообщение уходит на повтор.
func (s *Service) HandleStatusEvent(body []byte) error {
	const op = "notifier.HandleStatusEvent"
	log := s.log.With(slog.String("op", op))

	var event models.OrderStatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("dropping malformed status event", sl.Err(err))
		return nil
	}
	log = log.With(slog.String("order_id", event.OrderID), slog.String("status", string(event.Status)))

	if event.Email == "" {
		log.Warn("status event without recipient")
		return nil
	}
	subject, text, ok := compose(event)
	if !ok {
		log.Debug("no notification for status")
		return nil
	}

	if err := s.sendEmail([]string{event.Email}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("status notification sent")
	return nil
}

func compose(e models.OrderStatusEvent) (string, string, bool) {
	name := e.FullName
	if name == "" {
		name = "покупатель"
	}
	amount := formatAmount(e.TotalAmount)

	switch e.Status {
	case models.OrderCompleted:
		return "Заказ " + e.OrderID + " оплачен",
			fmt.Sprintf("Здравствуйте, %s!\n\nОплата заказа %s на сумму %s получена. Мы сообщим, когда заказ будет отправлен.",
				name, e.OrderID, amount), true
	case models.OrderFailed:
		return "Оплата заказа " + e.OrderID + " не прошла",
			fmt.Sprintf("Здравствуйте, %s!\n\nОплата заказа %s на сумму %s не прошла. Вы можете повторить оплату из истории заказов.",
				name, e.OrderID, amount), true
	case models.OrderShipped:
		return "Заказ " + e.OrderID + " отправлен",
			fmt.Sprintf("Здравствуйте, %s!\n\nЗаказ %s передан в доставку.", name, e.OrderID), true
	case models.OrderCancelled:
		return "Заказ " + e.OrderID + " отменён",
			fmt.Sprintf("Здравствуйте, %s!\n\nЗаказ %s отменён. Деньги не списывались.", name, e.OrderID), true
	}
	return "", "", false
}

// formatAmount печатает сумму в минимальных единицах как целое и дробную части.
func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		// после Quit соединение уже закрыто, ошибка здесь ожидаема
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		return err
	}
	if err = wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}
