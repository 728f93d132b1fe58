package models

// SalesOwner задаёт, по какому полю товара определяется принадлежность продаж.
type SalesOwner int

const (
	// OwnerAuthor — продажи товаров автора.
	OwnerAuthor SalesOwner = iota
	// OwnerPartner — продажи товаров партнёра.
	OwnerPartner
)

// ProductSales — продажи одного товара в отчёте.
type ProductSales struct {
	ProductID    string `json:"product_id"`
	Title        string `json:"title"`
	Units        int64  `json:"units"`
	GrossRevenue int64  `json:"gross_revenue"`
}

// SalesTotals — агрегат, который хранилище считает уже с фильтром владельца.
type SalesTotals struct {
	Units        int64
	Lines        int64
	GrossRevenue int64
	Products     []ProductSales
}

// EarningsReport — отчёт о роялти автора или выплатах партнёра.
type EarningsReport struct {
	Role         Role           `json:"role"`
	UserID       string         `json:"user_id"`
	SalesCount   int64          `json:"sales_count"`
	LineCount    int64          `json:"line_count"`
	GrossRevenue int64          `json:"gross_revenue"`
	RateBP       int            `json:"rate_bp"`
	Earned       int64          `json:"earned"`
	Products     []ProductSales `json:"products"`
}

// StatusTotals — число заказов и выручка по статусу для панели администратора.
type StatusTotals struct {
	Status OrderStatus `json:"status"`
	Orders int64       `json:"orders"`
	Gross  int64       `json:"gross"`
}
