package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

const attemptColumns = `id, order_id, phone, amount, COALESCE(provider_reference, ''), status, created_at, updated_at`

func scanAttempt(row interface{ Scan(...any) error }) (*models.PaymentAttempt, error) {
	var a models.PaymentAttempt
	if err := row.Scan(&a.ID, &a.OrderID, &a.Phone, &a.Amount, &a.ProviderReference,
		&a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAttempt резервирует попытку в статусе pending. Вторая pending-попытка
// по тому же заказу нарушает частичный уникальный индекс и возвращается как ErrConflict.
func (s *Storage) CreateAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	const op = "storage.CreateAttempt"

	query := `INSERT INTO payment_attempts (order_id, phone, amount, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query, attempt.OrderID, attempt.Phone, attempt.Amount, models.AttemptPending).
		Scan(&attempt.ID, &attempt.CreatedAt, &attempt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	attempt.Status = models.AttemptPending
	return nil
}

// SetAttemptReference сохраняет ссылку провайдера для pending-попытки.
func (s *Storage) SetAttemptReference(ctx context.Context, attemptID, reference string) error {
	const op = "storage.SetAttemptReference"

	query := `UPDATE payment_attempts
			  SET provider_reference = $1, updated_at = NOW()
			  WHERE id = $2 AND status = 'pending'`
	res, err := s.DB.ExecContext(ctx, query, reference, attemptID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return requireAffected(op, res)
}

// FailAttempt переводит pending-попытку в failed, не трогая заказ.
func (s *Storage) FailAttempt(ctx context.Context, attemptID string) error {
	const op = "storage.FailAttempt"

	query := `UPDATE payment_attempts
			  SET status = 'failed', updated_at = NOW()
			  WHERE id = $1 AND status = 'pending'`
	if _, err := s.DB.ExecContext(ctx, query, attemptID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LatestAttempt возвращает последнюю попытку по заказу.
func (s *Storage) LatestAttempt(ctx context.Context, orderID string) (*models.PaymentAttempt, error) {
	const op = "storage.LatestAttempt"

	query := `SELECT ` + attemptColumns + `
			  FROM payment_attempts
			  WHERE order_id = $1
			  ORDER BY created_at DESC
			  LIMIT 1`
	a, err := scanAttempt(s.DB.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// AttemptByReference находит попытку по ссылке провайдера.
func (s *Storage) AttemptByReference(ctx context.Context, reference string) (*models.PaymentAttempt, error) {
	const op = "storage.AttemptByReference"

	query := `SELECT ` + attemptColumns + `
			  FROM payment_attempts
			  WHERE provider_reference = $1`
	a, err := scanAttempt(s.DB.QueryRowContext(ctx, query, reference))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// ListStaleAttempts возвращает pending-попытки, созданные раньше before.
func (s *Storage) ListStaleAttempts(ctx context.Context, before time.Time, limit int) ([]*models.PaymentAttempt, error) {
	const op = "storage.ListStaleAttempts"

	query := `SELECT ` + attemptColumns + `
			  FROM payment_attempts
			  WHERE status = 'pending' AND created_at < $1
			  ORDER BY created_at
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PaymentAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ApplyPaymentResult в одной транзакции обновляет попытку и заказ.
// Попытка меняется только из pending, заказ — только по таблице переходов,
// поэтому повторное или запоздалое событие ничего не откатывает.
// Возвращает предыдущий статус заказа и признак его изменения.
func (s *Storage) ApplyPaymentResult(ctx context.Context, r models.PaymentResult) (models.OrderStatus, bool, error) {
	const op = "storage.ApplyPaymentResult"

	var (
		from    models.OrderStatus
		changed bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if r.AttemptStatus != models.AttemptPending {
			query := `UPDATE payment_attempts
					  SET status = $1, updated_at = NOW()
					  WHERE id = $2 AND status = 'pending'`
			if _, err := tx.ExecContext(ctx, query, r.AttemptStatus, r.AttemptID); err != nil {
				return err
			}
		}
		var err error
		from, changed, err = transitionOrderTx(ctx, tx, r.OrderID, r.OrderStatus)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return from, changed, nil
}
