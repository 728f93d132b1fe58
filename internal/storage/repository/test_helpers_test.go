package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/bookstore/internal/migrations"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateProfile создает профиль с заданной ролью
func (f *TestDataFactory) CreateProfile(t *testing.T, id string, role models.Role) {
	_, err := f.storage.DB.Exec(`INSERT INTO profiles (id, full_name, role) VALUES ($1, $2, $3)`,
		id, "User "+id, role)
	require.NoError(t, err)
}

// CreateProduct создает товар и возвращает его ID
func (f *TestDataFactory) CreateProduct(t *testing.T, title string, price int64, authorID, partnerID string) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO products (title, price, category, author_id, partner_id, content_url)
		VALUES ($1, $2, 'books', NULLIF($3, ''), NULLIF($4, ''), 'https://cdn.example.com/'||$1)
		RETURNING id`,
		title, price, authorID, partnerID).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateOrder создает заказ с одной строкой на каждый товар. Владельцы в
// снимке строки берутся из каталога, как при оформлении заказа.
func (f *TestDataFactory) CreateOrder(t *testing.T, userID string, status models.OrderStatus, lines ...models.OrderLine) *models.Order {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	catalog, err := f.storage.GetProducts(context.Background(), ids)
	require.NoError(t, err)
	for i := range lines {
		p, ok := catalog[lines[i].ProductID]
		if !ok {
			continue
		}
		lines[i].Snapshot.AuthorID = p.AuthorID
		lines[i].Snapshot.PartnerID = p.PartnerID
	}

	order := &models.Order{
		UserID: userID,
		Status: status,
		Shipping: models.Shipping{
			FullName: "Test User", Email: "test@example.com", Phone: "+255700000000",
			Address: "1 Main St", City: "Dar es Salaam",
		},
		Lines: lines,
	}
	total, err := order.LinesTotal()
	require.NoError(t, err)
	order.TotalAmount = total
	require.NoError(t, f.storage.CreateOrder(context.Background(), order))
	return order
}

// SetOrderStatus выставляет статус в обход таблицы переходов
func (f *TestDataFactory) SetOrderStatus(t *testing.T, orderID string, status models.OrderStatus) {
	_, err := f.storage.DB.Exec(`UPDATE orders SET status = $1 WHERE id = $2`, status, orderID)
	require.NoError(t, err)
}

func line(productID string, qty int, price int64) models.OrderLine {
	return models.OrderLine{
		ProductID:       productID,
		Quantity:        qty,
		PriceAtPurchase: price,
		Snapshot:        models.ProductSnapshot{Title: "Book " + productID[:4]},
	}
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgPort := nat.Port("5432/tcp")
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{string(pgPort)},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(pgPort),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err)
	port, err := postgresContainer.MappedPort(ctx, pgPort)
	require.NoError(t, err, "Failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "Failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if postgresContainer != nil {
			_ = postgresContainer.Terminate(ctx)
		}
	}

	return storage, cleanup
}
