package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// GetProfile возвращает профиль по идентификатору.
func (s *Storage) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	const op = "storage.GetProfile"

	query := `SELECT id, full_name, avatar_url, role, is_member, created_at
			  FROM profiles
			  WHERE id = $1`
	var p models.Profile
	err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.Role, &p.IsMember, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// EnsureProfile создаёт профиль с ролью customer, если его ещё нет.
// Существующую строку не трогает, поэтому внешне назначенная роль сохраняется.
func (s *Storage) EnsureProfile(ctx context.Context, id, fullName string) error {
	const op = "storage.EnsureProfile"

	query := `INSERT INTO profiles (id, full_name, role)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, id, fullName, models.RoleCustomer); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateProfileSelf меняет имя и аватар: единственные поля, доступные владельцу.
func (s *Storage) UpdateProfileSelf(ctx context.Context, id, fullName, avatarURL string) error {
	const op = "storage.UpdateProfileSelf"

	query := `UPDATE profiles
			  SET full_name = $1, avatar_url = $2
			  WHERE id = $3`
	res, err := s.DB.ExecContext(ctx, query, fullName, avatarURL, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(op, res)
}

// UpdateProfileAccess меняет роль и/или признак членства. nil-поля не меняются.
func (s *Storage) UpdateProfileAccess(ctx context.Context, id string, role *models.Role, isMember *bool) error {
	const op = "storage.UpdateProfileAccess"

	query := `UPDATE profiles
			  SET role = COALESCE($1, role),
			      is_member = COALESCE($2, is_member)
			  WHERE id = $3`
	var roleArg, memberArg any
	if role != nil {
		roleArg = string(*role)
	}
	if isMember != nil {
		memberArg = *isMember
	}
	res, err := s.DB.ExecContext(ctx, query, roleArg, memberArg, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(op, res)
}
