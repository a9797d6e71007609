//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "storefront",
				"POSTGRES_PASSWORD": "storefront",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = ctr.Terminate(context.Background()) }()

	host, err := ctr.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	// Migrations are idempotent.
	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("second migration run: %v", err)
	}

	return m.Run()
}

func testCatalog() ([]product.Product, []product.Category) {
	products := []product.Product{
		{
			ID: 5, Title: "Red Nail Polish", Description: "Glossy red", Category: "beauty", Brand: "Nail Couture",
			Price: decimal.RequireFromString("8.99"), DiscountPercentage: 2.46, Rating: 4.32, Stock: 79,
			Tags:      []string{"beauty", "nail polish"},
			Thumbnail: "/5/thumbnail.png",
			Images:    []string{"/5/1.png"},
			Details: product.Details{
				Weight: "8", Dimensions: "9.11 x 12.8 x 11.89", Warranty: "1 month warranty",
				Shipping: "Ships in 1 week", ReturnPolicy: "No return policy",
			},
		},
		{
			ID: 16, Title: "Apple", Category: "groceries",
			Price: decimal.RequireFromString("1.99"), Rating: 2.96,
		},
	}
	categories := []product.Category{
		{Slug: "beauty", Name: "Beauty", URL: "https://dummyjson.com/products/category/beauty"},
		{Slug: "groceries", Name: "Groceries"},
	}
	return products, categories
}

func TestCatalogRepository_ReplaceAndRead(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testPool)
	products, categories := testCatalog()

	require.NoError(t, repo.ReplaceCatalog(ctx, products, categories))

	gotCategories, err := repo.FetchCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, categories, gotCategories)

	gotProducts, err := repo.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, gotProducts, 2)

	polish := gotProducts[0]
	assert.Equal(t, 5, polish.ID)
	assert.Equal(t, "Nail Couture", polish.Brand)
	assert.True(t, polish.Price.Equal(decimal.RequireFromString("8.99")))
	assert.Equal(t, []string{"beauty", "nail polish"}, polish.Tags)
	assert.Equal(t, products[0].Details, polish.Details)

	apple := gotProducts[1]
	assert.False(t, apple.HasBrand())
	assert.Empty(t, apple.Tags)
	assert.Empty(t, apple.Images)
}

func TestCatalogRepository_ReplaceIsTotal(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testPool)
	products, categories := testCatalog()
	require.NoError(t, repo.ReplaceCatalog(ctx, products, categories))

	require.NoError(t, repo.ReplaceCatalog(ctx, products[1:], categories[1:]))

	got, err := repo.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 16, got[0].ID)
}

func TestCatalogRepository_FetchProduct(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testPool)
	products, categories := testCatalog()
	require.NoError(t, repo.ReplaceCatalog(ctx, products, categories))

	p, err := repo.FetchProduct(ctx, 16)
	require.NoError(t, err)
	assert.Equal(t, "Apple", p.Title)

	_, err = repo.FetchProduct(ctx, 999)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestCatalogStore_FromMirror(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testPool)
	products, categories := testCatalog()
	require.NoError(t, repo.ReplaceCatalog(ctx, products, categories))

	store, err := catalog.NewStore(repo, catalog.Options{})
	require.NoError(t, err)
	require.NoError(t, store.Fetch(ctx))

	state := store.Snapshot()
	assert.Equal(t, catalog.StatusSucceeded, state.Status)
	assert.Len(t, state.Products, 2)
	assert.Len(t, catalog.GroupByCategory(state.Categories, state.Products), 2)
}
