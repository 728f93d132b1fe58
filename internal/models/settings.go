package models

// Settings — глобальные настройки стены членства (одна строка, только чтение).
type Settings struct {
	MembershipWallActive   bool   `json:"membership_wall_active"`
	MembershipPrice        int64  `json:"membership_price"`
	MembershipDurationDays int    `json:"membership_duration_days"`
	MembershipTitle        string `json:"membership_title"`
	MembershipDescription  string `json:"membership_description"`
}
