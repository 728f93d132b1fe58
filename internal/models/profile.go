// Package models содержит доменные структуры магазина: профили и роли,
// каталог, заказы и их строки, платёжные попытки, настройки членства и отчёты.
// Структуры используются в бизнес‑логике, хранилище и HTTP-слое.
package models

import "time"

// Identity — данные аутентифицированного пользователя из токена провайдера.
// Ядро только читает их.
type Identity struct {
	UserID string // Идентификатор во внешнем провайдере
	Email  string // Электронная почта
	Name   string // Отображаемое имя (может быть пустым)
}

// Profile — профиль пользователя магазина. ID совпадает с Identity.UserID.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	IsMember  bool      `json:"is_member"`
	CreatedAt time.Time `json:"created_at"`
}

// HasRole истинно, если профиль существует и его роль входит в required.
// Иерархии нет: founder не проходит проверку, принимающую только author.
func (p *Profile) HasRole(required ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range required {
		if p.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin истинно для ролей admin и founder.
func (p *Profile) IsAdmin() bool {
	return p.HasRole(RoleAdmin, RoleFounder)
}

// Can проверяет право по таблице возможностей роли.
func (p *Profile) Can(c Capability) bool {
	if p == nil {
		return false
	}
	return p.Role.Capabilities().Has(c)
}

// Viewer — вызывающий пользователь: идентичность из токена и, если удалось
// разрешить, его профиль. Нулевое значение — аноним.
type Viewer struct {
	Identity *Identity
	Profile  *Profile
}

// Authenticated истинно при наличии идентичности.
func (v Viewer) Authenticated() bool {
	return v.Identity != nil && v.Identity.UserID != ""
}

// UserID возвращает идентификатор пользователя или пустую строку.
func (v Viewer) UserID() string {
	if v.Identity == nil {
		return ""
	}
	return v.Identity.UserID
}

// Can проверяет право по роли профиля.
func (v Viewer) Can(c Capability) bool {
	return v.Profile.Can(c)
}
