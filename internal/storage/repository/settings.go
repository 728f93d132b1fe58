package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// GetSettings читает единственную строку настроек членства.
func (s *Storage) GetSettings(ctx context.Context) (*models.Settings, error) {
	const op = "storage.GetSettings"

	query := `SELECT membership_wall_active, membership_price, membership_duration_days,
			      membership_title, membership_description
			  FROM settings
			  LIMIT 1`
	var st models.Settings
	err := s.DB.QueryRowContext(ctx, query).Scan(&st.MembershipWallActive, &st.MembershipPrice,
		&st.MembershipDurationDays, &st.MembershipTitle, &st.MembershipDescription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &st, nil
}
