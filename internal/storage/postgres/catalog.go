package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	productColumns = `id, title, description, category, brand, price, discount_percentage, rating, stock,
		tags, thumbnail, images, weight, dimensions, warranty, shipping, return_policy`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY position`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	listCategoriesSQL = `SELECT slug, name, url FROM categories ORDER BY position`
)

var _ product.Source = (*CatalogRepository)(nil)

// CatalogRepository serves the mirrored catalog as a product.Source and
// replaces it on behalf of the mirror tool.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// FetchProducts returns all products in the order they were mirrored.
func (r *CatalogRepository) FetchProducts(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, &product.NetworkError{Op: "list products", Err: err}
	}
	ps, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, &product.DecodeError{Op: "list products", Err: err}
	}
	return ps, nil
}

// FetchCategories returns all categories in the order they were mirrored.
func (r *CatalogRepository) FetchCategories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, &product.NetworkError{Op: "list categories", Err: err}
	}
	cs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.Slug, &c.Name, &c.URL)
		return c, err
	})
	if err != nil {
		return nil, &product.DecodeError{Op: "list categories", Err: err}
	}
	return cs, nil
}

// Ping reports whether the database is reachable.
func (r *CatalogRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// FetchProduct returns a single product by its identifier.
func (r *CatalogRepository) FetchProduct(ctx context.Context, id int) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, &product.NetworkError{Op: "get product", Err: err}
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, &product.DecodeError{Op: "get product", Err: err}
	}
	return &p, nil
}

// ReplaceCatalog swaps the mirrored catalog for the given one in a single
// transaction.
func (r *CatalogRepository) ReplaceCatalog(ctx context.Context, products []product.Product, categories []product.Category) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE products, categories`); err != nil {
			return errors.Wrap(err, "truncate catalog")
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"categories"},
			[]string{"slug", "name", "url", "position"},
			pgx.CopyFromSlice(len(categories), func(i int) ([]any, error) {
				c := categories[i]
				return []any{c.Slug, c.Name, c.URL, i}, nil
			}),
		)
		if err != nil {
			return errors.Wrap(err, "copy categories")
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"products"},
			[]string{
				"id", "title", "description", "category", "brand", "price", "discount_percentage",
				"rating", "stock", "tags", "thumbnail", "images", "weight", "dimensions",
				"warranty", "shipping", "return_policy", "position",
			},
			pgx.CopyFromSlice(len(products), func(i int) ([]any, error) {
				p := products[i]
				var brand *string
				if p.HasBrand() {
					brand = &p.Brand
				}
				return []any{
					p.ID, p.Title, p.Description, p.Category, brand, p.Price, p.DiscountPercentage,
					p.Rating, p.Stock, nonNil(p.Tags), p.Thumbnail, nonNil(p.Images), p.Details.Weight,
					p.Details.Dimensions, p.Details.Warranty, p.Details.Shipping, p.Details.ReturnPolicy, i,
				}, nil
			}),
		)
		if err != nil {
			return errors.Wrap(err, "copy products")
		}
		return nil
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		brand *string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Category, &brand, &p.Price, &p.DiscountPercentage,
		&p.Rating, &p.Stock, &p.Tags, &p.Thumbnail, &p.Images, &p.Details.Weight,
		&p.Details.Dimensions, &p.Details.Warranty, &p.Details.Shipping, &p.Details.ReturnPolicy,
	)
	if brand != nil {
		p.Brand = *brand
	}
	return p, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
