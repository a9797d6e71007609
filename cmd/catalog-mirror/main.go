// Command catalog-mirror copies the product catalog into PostgreSQL so the
// storefront can serve it with the postgres catalog source.
//
// The catalog is read from the upstream API, or from a snapshot directory
// holding products.json.gz and categories.json.gz.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/upstream"
)

const (
	productsFile   = "products.json.gz"
	categoriesFile = "categories.json.gz"
)

func main() {
	var (
		databaseURL string
		upstreamURL string
		snapshotDir string
		timeout     time.Duration
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&upstreamURL, "upstream-url", "https://dummyjson.com", "catalog API base URL")
	flag.StringVar(&snapshotDir, "snapshot-dir", "", "read "+productsFile+" and "+categoriesFile+" from this directory instead of the API")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "catalog request timeout")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var src product.Source
	if snapshotDir != "" {
		src = snapshotSource{dir: snapshotDir}
	} else {
		c, err := upstream.New(upstream.Config{BaseURL: upstreamURL, Timeout: timeout})
		if err != nil {
			slog.Error("create upstream client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		src = c
	}

	if err := run(ctx, src, databaseURL); err != nil {
		slog.Error("catalog mirror failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog mirror completed successfully")
}

func run(ctx context.Context, src product.Source, databaseURL string) error {
	products, categories, err := loadCatalog(ctx, src)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := postgres.NewCatalogRepository(pool).ReplaceCatalog(ctx, products, categories); err != nil {
		return errors.Wrap(err, "replace catalog")
	}
	return nil
}

// loadCatalog fetches products and categories from src concurrently.
func loadCatalog(ctx context.Context, src product.Source) ([]product.Product, []product.Category, error) {
	slog.Info("loading catalog")

	var (
		products   []product.Product
		categories []product.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = src.FetchProducts(gctx)
		if err != nil {
			return errors.Wrap(err, "products")
		}
		return nil
	})
	g.Go(func() (err error) {
		categories, err = src.FetchCategories(gctx)
		if err != nil {
			return errors.Wrap(err, "categories")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	slog.Info("catalog loaded",
		slog.Int("products", len(products)),
		slog.Int("categories", len(categories)),
	)
	return products, categories, nil
}

// snapshotSource reads a catalog from gzip-compressed JSON files in the same
// shape the upstream API serves.
type snapshotSource struct {
	dir string
}

func (s snapshotSource) FetchProducts(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	err := readGzJSON(ctx, filepath.Join(s.dir, productsFile), func(d *jx.Decoder) (err error) {
		out, err = upstream.DecodeProductList(d)
		return err
	})
	return out, err
}

func (s snapshotSource) FetchCategories(ctx context.Context) ([]product.Category, error) {
	var out []product.Category
	err := readGzJSON(ctx, filepath.Join(s.dir, categoriesFile), func(d *jx.Decoder) (err error) {
		out, err = upstream.DecodeCategories(d)
		return err
	})
	return out, err
}

func (s snapshotSource) FetchProduct(ctx context.Context, id int) (*product.Product, error) {
	products, err := s.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

// readGzJSON opens a gzip-compressed JSON file and hands a decoder over its
// contents to fn.
func readGzJSON(ctx context.Context, path string, fn func(d *jx.Decoder) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	slog.Info("reading snapshot", slog.String("path", path))
	if err := fn(jx.Decode(gz, 64*1024)); err != nil {
		return &product.DecodeError{Op: filepath.Base(path), Err: err}
	}
	return nil
}
