package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

const productColumns = `id, title, price, image_ref, category,
			      COALESCE(author_id, ''), COALESCE(partner_id, ''), content_url`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Title, &p.Price, &p.ImageRef, &p.Category,
		&p.AuthorID, &p.PartnerID, &p.ContentURL); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProduct возвращает товар каталога по ID.
func (s *Storage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	const op = "storage.GetProduct"

	query := `SELECT ` + productColumns + `
			  FROM products
			  WHERE id = $1`
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// GetProducts возвращает товары по списку ID. Отсутствующие ID в результат не попадают.
func (s *Storage) GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	const op = "storage.GetProducts"

	query := `SELECT ` + productColumns + `
			  FROM products
			  WHERE id::text = ANY($1)`
	rows, err := s.DB.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[p.ID] = *p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
