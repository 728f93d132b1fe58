package models

// Product — запись каталога. Цена в минимальных единицах валюты.
type Product struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Price      int64  `json:"price"`
	ImageRef   string `json:"image_ref,omitempty"`
	Category   string `json:"category,omitempty"`
	AuthorID   string `json:"author_id,omitempty"`  // Владелец для отчёта о роялти
	PartnerID  string `json:"partner_id,omitempty"` // Партнёр для отчёта о выплатах
	ContentURL string `json:"-"`                    // Закрытый контент за стеной членства
}
