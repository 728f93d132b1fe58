package storefront

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// memStore — хранилище в памяти с теми же правилами, что и PostgreSQL:
// одна pending-попытка на заказ и переходы статуса только по таблице.
type memStore struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	products map[string]models.Product
	orders   map[string]*models.Order
	attempts []*models.PaymentAttempt
	settings *models.Settings
}

func newMemStore() *memStore {
	return &memStore{
		profiles: make(map[string]models.Profile),
		products: make(map[string]models.Product),
		orders:   make(map[string]*models.Order),
		settings: &models.Settings{},
	}
}

func (s *memStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) EnsureProfile(_ context.Context, id, fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		s.profiles[id] = models.Profile{ID: id, FullName: fullName, Role: models.RoleCustomer, CreatedAt: time.Now()}
	}
	return nil
}

func (s *memStore) UpdateProfileSelf(_ context.Context, id, fullName, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return models.ErrNotFound
	}
	p.FullName, p.AvatarURL = fullName, avatarURL
	s.profiles[id] = p
	return nil
}

func (s *memStore) UpdateProfileAccess(_ context.Context, id string, role *models.Role, isMember *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return models.ErrNotFound
	}
	if role != nil {
		p.Role = *role
	}
	if isMember != nil {
		p.IsMember = *isMember
	}
	s.profiles[id] = p
	return nil
}

func (s *memStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) GetProducts(_ context.Context, ids []string) (map[string]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make(map[string]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			res[id] = p
		}
	}
	return res, nil
}

func (s *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = uuid.NewString()
	order.CreatedAt = time.Now()
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
	}
	stored := *order
	stored.Lines = slices.Clone(order.Lines)
	s.orders[order.ID] = &stored
	return nil
}

func (s *memStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	cp.Lines = slices.Clone(o.Lines)
	return &cp, nil
}

func (s *memStore) ListOrdersByUser(_ context.Context, userID string, limit, offset int) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			cp := *o
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if offset >= len(res) {
		return []*models.Order{}, nil
	}
	res = res[offset:]
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *memStore) TransitionOrder(_ context.Context, id string, to models.OrderStatus) (models.OrderStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(id, to)
}

func (s *memStore) transitionLocked(id string, to models.OrderStatus) (models.OrderStatus, bool, error) {
	o, ok := s.orders[id]
	if !ok {
		return "", false, models.ErrNotFound
	}
	from := o.Status
	if !from.CanTransition(to) {
		return from, false, nil
	}
	o.Status = to
	return from, true, nil
}

func (s *memStore) CreateAttempt(_ context.Context, attempt *models.PaymentAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.OrderID == attempt.OrderID && a.Status == models.AttemptPending {
			return fmt.Errorf("%w: payment_attempts_one_pending", models.ErrConflict)
		}
	}
	attempt.ID = uuid.NewString()
	attempt.Status = models.AttemptPending
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = attempt.CreatedAt
	cp := *attempt
	s.attempts = append(s.attempts, &cp)
	return nil
}

func (s *memStore) attemptLocked(id string) (*models.PaymentAttempt, error) {
	for _, a := range s.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *memStore) SetAttemptReference(_ context.Context, attemptID, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.attemptLocked(attemptID)
	if err != nil {
		return err
	}
	a.ProviderReference = reference
	return nil
}

func (s *memStore) FailAttempt(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.attemptLocked(attemptID)
	if err != nil {
		return err
	}
	if a.Status == models.AttemptPending {
		a.Status = models.AttemptFailed
	}
	return nil
}

func (s *memStore) LatestAttempt(_ context.Context, orderID string) (*models.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.attempts) - 1; i >= 0; i-- {
		if s.attempts[i].OrderID == orderID {
			cp := *s.attempts[i]
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *memStore) AttemptByReference(_ context.Context, reference string) (*models.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.ProviderReference == reference {
			cp := *a
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *memStore) ApplyPaymentResult(_ context.Context, r models.PaymentResult) (models.OrderStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.AttemptStatus != models.AttemptPending {
		if a, err := s.attemptLocked(r.AttemptID); err == nil && a.Status == models.AttemptPending {
			a.Status = r.AttemptStatus
		}
	}
	return s.transitionLocked(r.OrderID, r.OrderStatus)
}

func (s *memStore) ListStaleAttempts(_ context.Context, before time.Time, limit int) ([]*models.PaymentAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*models.PaymentAttempt
	for _, a := range s.attempts {
		if a.Status == models.AttemptPending && a.CreatedAt.Before(before) && len(res) < limit {
			cp := *a
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (s *memStore) GetSettings(_ context.Context) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.settings
	return &cp, nil
}

func (s *memStore) SalesByOwner(_ context.Context, owner models.SalesOwner, userID string, statuses []models.OrderStatus) (*models.SalesTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byProduct := make(map[string]*models.ProductSales)
	totals := &models.SalesTotals{Products: []models.ProductSales{}}
	for _, o := range s.orders {
		if !slices.Contains(statuses, o.Status) {
			continue
		}
		for _, l := range o.Lines {
			ownerID := l.Snapshot.AuthorID
			if owner == models.OwnerPartner {
				ownerID = l.Snapshot.PartnerID
			}
			if ownerID != userID {
				continue
			}
			ps, ok := byProduct[l.ProductID]
			if !ok {
				ps = &models.ProductSales{ProductID: l.ProductID, Title: l.Snapshot.Title}
				byProduct[l.ProductID] = ps
			}
			ps.Units += int64(l.Quantity)
			ps.GrossRevenue += int64(l.Quantity) * l.PriceAtPurchase
			totals.Lines++
			totals.Units += int64(l.Quantity)
			totals.GrossRevenue += int64(l.Quantity) * l.PriceAtPurchase
		}
	}
	for _, ps := range byProduct {
		totals.Products = append(totals.Products, *ps)
	}
	sort.Slice(totals.Products, func(i, j int) bool { return totals.Products[i].ProductID < totals.Products[j].ProductID })
	return totals, nil
}

func (s *memStore) StatusTotals(_ context.Context) ([]models.StatusTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg := make(map[models.OrderStatus]*models.StatusTotals)
	for _, o := range s.orders {
		t, ok := agg[o.Status]
		if !ok {
			t = &models.StatusTotals{Status: o.Status}
			agg[o.Status] = t
		}
		t.Orders++
		t.Gross += o.TotalAmount
	}
	res := make([]models.StatusTotals, 0, len(agg))
	for _, t := range agg {
		res = append(res, *t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Status < res[j].Status })
	return res, nil
}
