// Package report считает роялти авторов, выплаты партнёров и сводку
// для администратора.
package report

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Repository — агрегаты продаж. Фильтр владельца выполняется в запросе.
type Repository interface {
	SalesByOwner(ctx context.Context, owner models.SalesOwner, userID string, statuses []models.OrderStatus) (*models.SalesTotals, error)
	StatusTotals(ctx context.Context) ([]models.StatusTotals, error)
}

// Rates — доли в базисных пунктах.
type Rates struct {
	RoyaltyBP int
	PayoutBP  int
}

// Service строит отчёты по ролям.
type Service struct {
	repo  Repository
	rates Rates
}

// New создает новый экземпляр Service.
func New(repo Repository, rates Rates) *Service {
	return &Service{
		repo:  repo,
		rates: rates,
	}
}

// Earned возвращает долю gross по ставке rateBP с округлением вниз.
func Earned(gross int64, rateBP int) int64 {
	return gross * int64(rateBP) / 10000
}

// Royalties — отчёт автора по продажам его товаров.
func (s *Service) Royalties(ctx context.Context, author *models.Profile) (*models.EarningsReport, error) {
	const op = "report.Royalties"
	if !author.Can(models.CapAuthorDashboard) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	r, err := s.earnings(ctx, author, models.OwnerAuthor, s.rates.RoyaltyBP)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// Payouts — отчёт партнёра по продажам закреплённых за ним товаров.
func (s *Service) Payouts(ctx context.Context, partner *models.Profile) (*models.EarningsReport, error) {
	const op = "report.Payouts"
	if !partner.Can(models.CapPartnerDashboard) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	r, err := s.earnings(ctx, partner, models.OwnerPartner, s.rates.PayoutBP)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s *Service) earnings(ctx context.Context, p *models.Profile, owner models.SalesOwner, rateBP int) (*models.EarningsReport, error) {
	totals, err := s.repo.SalesByOwner(ctx, owner, p.ID, models.PaidStatuses)
	if err != nil {
		return nil, err
	}
	products := totals.Products
	if products == nil {
		products = []models.ProductSales{}
	}
	return &models.EarningsReport{
		Role:         p.Role,
		UserID:       p.ID,
		SalesCount:   totals.Units,
		LineCount:    totals.Lines,
		GrossRevenue: totals.GrossRevenue,
		RateBP:       rateBP,
		Earned:       Earned(totals.GrossRevenue, rateBP),
		Products:     products,
	}, nil
}

// Overview — число заказов и выручка по статусам.
func (s *Service) Overview(ctx context.Context, admin *models.Profile) ([]models.StatusTotals, error) {
	const op = "report.Overview"
	if !admin.Can(models.CapAdminDashboard) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	totals, err := s.repo.StatusTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return totals, nil
}
