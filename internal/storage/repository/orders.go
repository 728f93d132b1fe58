package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// CreateOrder сохраняет заказ и все его строки в одной транзакции.
// При ошибке любой вставки не остаётся ни заказа, ни строк.
// Заполняет order.ID, order.CreatedAt и OrderID в строках.
func (s *Storage) CreateOrder(ctx context.Context, order *models.Order) error {
	const op = "storage.CreateOrder"

	shipping, err := json.Marshal(order.Shipping)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO orders (user_id, status, shipping, total_amount)
				  VALUES ($1, $2, $3, $4)
				  RETURNING id, created_at`
		if err := tx.QueryRowContext(ctx, query, order.UserID, order.Status, string(shipping), order.TotalAmount).
			Scan(&order.ID, &order.CreatedAt); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO order_lines
				  (order_id, line_no, product_id, quantity, price_at_purchase, product_snapshot)
				  VALUES ($1, $2, $3, $4, $5, $6)`)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for i := range order.Lines {
			line := &order.Lines[i]
			line.OrderID = order.ID
			snapshot, err := json.Marshal(line.Snapshot)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, line.OrderID, i, line.ProductID, line.Quantity,
				line.PriceAtPurchase, string(snapshot)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		order.ID = ""
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// GetOrder возвращает заказ вместе со строками.
func (s *Storage) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	const op = "storage.GetOrder"

	query := `SELECT id, user_id, status, shipping, total_amount, created_at
			  FROM orders
			  WHERE id = $1`
	order, err := scanOrder(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	order.Lines, err = s.orderLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// ListOrdersByUser возвращает заказы пользователя, новые первыми, без строк.
func (s *Storage) ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Order, error) {
	const op = "storage.ListOrdersByUser"

	query := `SELECT id, user_id, status, shipping, total_amount, created_at
			  FROM orders
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// TransitionOrder переводит заказ в статус to, только если текущий статус
// допускает этот переход. Возвращает предыдущий статус и признак изменения.
// Несуществующий заказ — ErrNotFound.
func (s *Storage) TransitionOrder(ctx context.Context, id string, to models.OrderStatus) (models.OrderStatus, bool, error) {
	const op = "storage.TransitionOrder"

	var (
		from    models.OrderStatus
		changed bool
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		from, changed, err = transitionOrderTx(ctx, tx, id, to)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return from, changed, nil
}

// transitionOrderTx блокирует строку заказа и применяет переход под
// предикатом допустимых исходных статусов.
func transitionOrderTx(ctx context.Context, tx *sql.Tx, id string, to models.OrderStatus) (models.OrderStatus, bool, error) {
	var from models.OrderStatus
	if err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).
		Scan(&from); err != nil {
		return "", false, err
	}
	if !from.CanTransition(to) {
		return from, false, nil
	}

	query := `UPDATE orders
			  SET status = $1, updated_at = NOW()
			  WHERE id = $2 AND status = ANY($3)`
	res, err := tx.ExecContext(ctx, query, to, id, statusStrings(models.SourcesFor(to)))
	if err != nil {
		return from, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return from, false, err
	}
	return from, n == 1, nil
}

func (s *Storage) orderLines(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	query := `SELECT order_id, product_id, quantity, price_at_purchase, product_snapshot
			  FROM order_lines
			  WHERE order_id = $1
			  ORDER BY line_no, product_id`
	rows, err := s.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var lines []models.OrderLine
	for rows.Next() {
		var (
			l        models.OrderLine
			snapshot []byte
		)
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.PriceAtPurchase, &snapshot); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &l.Snapshot); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	var (
		o        models.Order
		shipping []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &shipping, &o.TotalAmount, &o.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
		return nil, errors.Join(errors.New("decode shipping"), err)
	}
	return &o, nil
}
