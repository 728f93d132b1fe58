package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

func TestStorage(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	f := NewTestDataFactory(storage)
	ctx := context.Background()

	f.CreateProfile(t, "author-1", models.RoleAuthor)
	f.CreateProfile(t, "author-2", models.RoleAuthor)
	f.CreateProfile(t, "partner-1", models.RolePartner)
	f.CreateProfile(t, "buyer", models.RoleCustomer)

	bookA := f.CreateProduct(t, "Book A", 1000, "author-1", "partner-1")
	bookB := f.CreateProduct(t, "Book B", 500, "author-2", "")

	t.Run("profiles", func(t *testing.T) {
		require.NoError(t, storage.EnsureProfile(ctx, "newcomer", "New Comer"))
		require.NoError(t, storage.EnsureProfile(ctx, "newcomer", "Ignored"))

		p, err := storage.GetProfile(ctx, "newcomer")
		require.NoError(t, err)
		assert.Equal(t, "New Comer", p.FullName)
		assert.Equal(t, models.RoleCustomer, p.Role)
		assert.False(t, p.IsMember)

		role := models.RolePartner
		member := true
		require.NoError(t, storage.UpdateProfileAccess(ctx, "newcomer", &role, &member))
		require.NoError(t, storage.UpdateProfileSelf(ctx, "newcomer", "Renamed", "https://img/a.png"))

		p, err = storage.GetProfile(ctx, "newcomer")
		require.NoError(t, err)
		assert.Equal(t, models.RolePartner, p.Role)
		assert.True(t, p.IsMember)
		assert.Equal(t, "Renamed", p.FullName)

		_, err = storage.GetProfile(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("products", func(t *testing.T) {
		got, err := storage.GetProducts(ctx, []string{bookA, bookB, "not-a-uuid"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, int64(1000), got[bookA].Price)
		assert.Equal(t, "partner-1", got[bookA].PartnerID)

		_, err = storage.GetProduct(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("create order rolls back on bad line", func(t *testing.T) {
		order := &models.Order{
			UserID:   "buyer",
			Status:   models.OrderPending,
			Shipping: models.Shipping{FullName: "B", Email: "b@example.com", Phone: "1", Address: "a", City: "c"},
			Lines: []models.OrderLine{
				line(bookA, 1, 1000),
				line("00000000-0000-0000-0000-000000000000", 1, 10),
			},
			TotalAmount: 1010,
		}
		err := storage.CreateOrder(ctx, order)
		require.Error(t, err)
		assert.Empty(t, order.ID)

		var count int
		require.NoError(t, storage.DB.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count))
		assert.Equal(t, 0, count)
	})

	t.Run("order lines are immutable", func(t *testing.T) {
		order := f.CreateOrder(t, "buyer", models.OrderPending, line(bookA, 2, 1000))
		_, err := storage.DB.Exec(`UPDATE order_lines SET quantity = 5 WHERE order_id = $1`, order.ID)
		assert.Error(t, err)

		got, err := storage.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, 2, got.Lines[0].Quantity)
		assert.Equal(t, int64(2000), got.TotalAmount)
		assert.Equal(t, "Test User", got.Shipping.FullName)
	})

	t.Run("transitions are monotonic", func(t *testing.T) {
		order := f.CreateOrder(t, "buyer", models.OrderPending, line(bookB, 1, 500))

		from, changed, err := storage.TransitionOrder(ctx, order.ID, models.OrderCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.OrderPending, from)
		assert.True(t, changed)

		from, changed, err = storage.TransitionOrder(ctx, order.ID, models.OrderFailed)
		require.NoError(t, err)
		assert.Equal(t, models.OrderCompleted, from)
		assert.False(t, changed)

		_, _, err = storage.TransitionOrder(ctx, "00000000-0000-0000-0000-000000000000", models.OrderFailed)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("one pending attempt per order", func(t *testing.T) {
		order := f.CreateOrder(t, "buyer", models.OrderPending, line(bookA, 1, 1000))

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := storage.CreateAttempt(ctx, &models.PaymentAttempt{OrderID: order.ID, Phone: "255700000000", Amount: 1000})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
				} else if assert.ErrorIs(t, err, models.ErrConflict) {
					conflicts++
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 4, conflicts)

		latest, err := storage.LatestAttempt(ctx, order.ID)
		require.NoError(t, err)
		require.NoError(t, storage.SetAttemptReference(ctx, latest.ID, "ref-1"))

		byRef, err := storage.AttemptByReference(ctx, "ref-1")
		require.NoError(t, err)
		assert.Equal(t, latest.ID, byRef.ID)

		require.NoError(t, storage.FailAttempt(ctx, latest.ID))
		second := &models.PaymentAttempt{OrderID: order.ID, Phone: "255700000000", Amount: 1000}
		require.NoError(t, storage.CreateAttempt(ctx, second))
		assert.Equal(t, models.AttemptPending, second.Status)
	})

	t.Run("apply payment result", func(t *testing.T) {
		order := f.CreateOrder(t, "buyer", models.OrderPending, line(bookB, 1, 500))
		attempt := &models.PaymentAttempt{OrderID: order.ID, Phone: "255700000001", Amount: 500}
		require.NoError(t, storage.CreateAttempt(ctx, attempt))

		from, changed, err := storage.ApplyPaymentResult(ctx, models.PaymentResult{
			AttemptID: attempt.ID, AttemptStatus: models.AttemptSucceeded,
			OrderID: order.ID, OrderStatus: models.OrderCompleted,
		})
		require.NoError(t, err)
		assert.Equal(t, models.OrderPending, from)
		assert.True(t, changed)

		// запоздалый отказ не откатывает оплаченный заказ
		_, changed, err = storage.ApplyPaymentResult(ctx, models.PaymentResult{
			AttemptID: attempt.ID, AttemptStatus: models.AttemptFailed,
			OrderID: order.ID, OrderStatus: models.OrderFailed,
		})
		require.NoError(t, err)
		assert.False(t, changed)

		a, err := storage.LatestAttempt(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AttemptSucceeded, a.Status)
	})

	t.Run("stale attempts", func(t *testing.T) {
		stale, err := storage.ListStaleAttempts(ctx, time.Now().Add(time.Hour), 100)
		require.NoError(t, err)
		for _, a := range stale {
			assert.Equal(t, models.AttemptPending, a.Status)
		}
		none, err := storage.ListStaleAttempts(ctx, time.Now().Add(-time.Hour), 100)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("sales are filtered by owner", func(t *testing.T) {
		paid := f.CreateOrder(t, "buyer", models.OrderPending, line(bookA, 3, 1000), line(bookB, 2, 500))
		f.SetOrderStatus(t, paid.ID, models.OrderShipped)
		unpaid := f.CreateOrder(t, "buyer", models.OrderPending, line(bookA, 10, 1000))
		f.SetOrderStatus(t, unpaid.ID, models.OrderFailed)

		totals, err := storage.SalesByOwner(ctx, models.OwnerAuthor, "author-2", models.PaidStatuses)
		require.NoError(t, err)
		// author-2 владеет только Book B: три оплаченных заказа, 1+1+2 штуки
		assert.Equal(t, int64(4), totals.Units)
		assert.Equal(t, int64(2000), totals.GrossRevenue)
		require.Len(t, totals.Products, 1)
		assert.Equal(t, bookB, totals.Products[0].ProductID)

		partner, err := storage.SalesByOwner(ctx, models.OwnerPartner, "partner-1", models.PaidStatuses)
		require.NoError(t, err)
		assert.Equal(t, int64(3), partner.Units)
		assert.Equal(t, int64(3000), partner.GrossRevenue)

		nobody, err := storage.SalesByOwner(ctx, models.OwnerAuthor, "buyer", models.PaidStatuses)
		require.NoError(t, err)
		assert.Zero(t, nobody.GrossRevenue)
		assert.Empty(t, nobody.Products)
	})

	t.Run("catalog reassignment keeps historical sales", func(t *testing.T) {
		bookC := f.CreateProduct(t, "Book C", 700, "author-1", "")
		order := f.CreateOrder(t, "buyer", models.OrderPending, line(bookC, 2, 700))
		f.SetOrderStatus(t, order.ID, models.OrderCompleted)

		before1, err := storage.SalesByOwner(ctx, models.OwnerAuthor, "author-1", models.PaidStatuses)
		require.NoError(t, err)
		before2, err := storage.SalesByOwner(ctx, models.OwnerAuthor, "author-2", models.PaidStatuses)
		require.NoError(t, err)

		_, err = storage.DB.Exec(`UPDATE products SET author_id = 'author-2' WHERE id = $1`, bookC)
		require.NoError(t, err)

		after1, err := storage.SalesByOwner(ctx, models.OwnerAuthor, "author-1", models.PaidStatuses)
		require.NoError(t, err)
		after2, err := storage.SalesByOwner(ctx, models.OwnerAuthor, "author-2", models.PaidStatuses)
		require.NoError(t, err)

		assert.Equal(t, before1, after1)
		assert.Equal(t, before2, after2)
		assert.Contains(t, after1.Products, models.ProductSales{ProductID: bookC, Title: "Book " + bookC[:4], Units: 2, GrossRevenue: 1400})
	})

	t.Run("lines keep checkout order", func(t *testing.T) {
		for _, ids := range [][]string{{bookA, bookB}, {bookB, bookA}} {
			order := f.CreateOrder(t, "buyer", models.OrderPending, line(ids[0], 1, 1000), line(ids[1], 1, 500))

			got, err := storage.GetOrder(ctx, order.ID)
			require.NoError(t, err)
			require.Len(t, got.Lines, 2)
			assert.Equal(t, ids[0], got.Lines[0].ProductID)
			assert.Equal(t, ids[1], got.Lines[1].ProductID)
		}
	})

	t.Run("settings and totals", func(t *testing.T) {
		st, err := storage.GetSettings(ctx)
		require.NoError(t, err)
		assert.False(t, st.MembershipWallActive)
		assert.Equal(t, 30, st.MembershipDurationDays)

		totals, err := storage.StatusTotals(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, totals)
		require.NoError(t, CheckDatabaseReady(ctx, storage))
	})
}
