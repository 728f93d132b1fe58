package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// ownerColumn выбирает владельца из снимка строки: продажа остаётся за тем,
// кому товар принадлежал в момент покупки.
func ownerColumn(o models.SalesOwner) (string, error) {
	switch o {
	case models.OwnerAuthor:
		return "ol.product_snapshot->>'author_id'", nil
	case models.OwnerPartner:
		return "ol.product_snapshot->>'partner_id'", nil
	}
	return "", fmt.Errorf("unknown owner kind %d", o)
}

// SalesByOwner считает продажи товаров, принадлежащих userID, в заказах с
// указанными статусами. Фильтр владельца выполняется в самом запросе.
func (s *Storage) SalesByOwner(ctx context.Context, owner models.SalesOwner, userID string, statuses []models.OrderStatus) (*models.SalesTotals, error) {
	const op = "storage.SalesByOwner"

	column, err := ownerColumn(owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ol.product_id, MIN(ol.product_snapshot->>'title'),
			      COUNT(*), SUM(ol.quantity), SUM(ol.quantity * ol.price_at_purchase)
			  FROM order_lines ol
			  JOIN orders o ON o.id = ol.order_id
			  WHERE ` + column + ` = $1 AND o.status = ANY($2)
			  GROUP BY ol.product_id
			  ORDER BY ol.product_id`
	rows, err := s.DB.QueryContext(ctx, query, userID, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	totals := &models.SalesTotals{Products: []models.ProductSales{}}
	for rows.Next() {
		var (
			ps    models.ProductSales
			lines int64
		)
		if err := rows.Scan(&ps.ProductID, &ps.Title, &lines, &ps.Units, &ps.GrossRevenue); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		totals.Lines += lines
		totals.Units += ps.Units
		totals.GrossRevenue += ps.GrossRevenue
		totals.Products = append(totals.Products, ps)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return totals, nil
}

// StatusTotals возвращает число заказов и выручку по каждому статусу.
func (s *Storage) StatusTotals(ctx context.Context) ([]models.StatusTotals, error) {
	const op = "storage.StatusTotals"

	query := `SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
			  FROM orders
			  GROUP BY status
			  ORDER BY status`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.StatusTotals
	for rows.Next() {
		var st models.StatusTotals
		if err := rows.Scan(&st.Status, &st.Orders, &st.Gross); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, st)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'orders'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table orders missing or query error: %w", err)
	}
	if !exists {
		return fmt.Errorf("required table orders missing")
	}
	return nil
}
