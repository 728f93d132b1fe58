package models

import "fmt"

// Role — прикладная роль профиля.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAuthor   Role = "author"
	RolePartner  Role = "partner"
	RoleAdmin    Role = "admin"
	RoleFounder  Role = "founder"
)

// Capability — отдельное право, которое даёт роль.
type Capability uint16

const (
	CapBrowse Capability = 1 << iota
	CapOrder
	CapAuthorDashboard
	CapPartnerDashboard
	CapAdminDashboard
	CapBypassPaywall
	CapManageOrders
	CapManageProfiles
)

const capCustomer = CapBrowse | CapOrder

const capAdmin = capCustomer | CapAdminDashboard | CapBypassPaywall | CapManageOrders | CapManageProfiles

// capabilities — единственное место, где роли сопоставляются с правами.
// Новая роль добавляется сюда, а не в отдельные проверки.
var capabilities = map[Role]Capability{
	RoleCustomer: capCustomer,
	RoleAuthor:   capCustomer | CapAuthorDashboard,
	RolePartner:  capCustomer | CapPartnerDashboard,
	RoleAdmin:    capAdmin,
	RoleFounder:  capAdmin,
}

// ParseRole проверяет строку и возвращает роль.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := capabilities[r]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// Valid сообщает, известна ли роль.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Capabilities возвращает набор прав роли; для неизвестной роли — пустой набор.
func (r Role) Capabilities() Capability {
	return capabilities[r]
}

// Has сообщает, входит ли право c в набор.
func (c Capability) Has(other Capability) bool {
	return other != 0 && c&other == other
}

func (c Capability) String() string {
	switch c {
	case CapBrowse:
		return "browse"
	case CapOrder:
		return "order"
	case CapAuthorDashboard:
		return "author_dashboard"
	case CapPartnerDashboard:
		return "partner_dashboard"
	case CapAdminDashboard:
		return "admin_dashboard"
	case CapBypassPaywall:
		return "bypass_paywall"
	case CapManageOrders:
		return "manage_orders"
	case CapManageProfiles:
		return "manage_profiles"
	default:
		return fmt.Sprintf("capability(%d)", uint16(c))
	}
}

// Names раскладывает набор на имена отдельных прав в порядке объявления.
func (c Capability) Names() []string {
	names := make([]string, 0, 8)
	for bit := CapBrowse; bit <= CapManageProfiles; bit <<= 1 {
		if c.Has(bit) {
			names = append(names, bit.String())
		}
	}
	return names
}
