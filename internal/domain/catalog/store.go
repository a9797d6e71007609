// Package catalog holds the most recently fetched product catalog and the
// status of fetching it.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/product"
)

// Status is the fetch state of a Store.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// State is a point-in-time view of a Store. The slices are shared with the
// store and must not be modified.
type State struct {
	Status     Status
	Err        string
	Products   []product.Product
	Categories []product.Category
	FetchedAt  time.Time
}

// Options configures optional Store dependencies. Nil providers fall back to
// the otel globals.
type Options struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Now            func() time.Time
}

// Store owns the fetched catalog.
//
// Fetches are not cancelled by later fetches: when two overlap, whichever
// resolves last overwrites the state.
type Store struct {
	src product.Source
	now func() time.Time

	tracer  trace.Tracer
	fetches metric.Int64Counter

	mu    sync.RWMutex
	state State
}

// NewStore creates an idle Store backed by src.
func NewStore(src product.Source, opts Options) (*Store, error) {
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	fetches, err := opts.MeterProvider.Meter("storefront/catalog").Int64Counter("catalog.fetches",
		metric.WithDescription("Catalog fetches by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create fetch counter")
	}

	return &Store{
		src:     src,
		now:     opts.Now,
		tracer:  opts.TracerProvider.Tracer("storefront/catalog"),
		fetches: fetches,
		state:   State{Status: StatusIdle},
	}, nil
}

// Fetch moves the store to loading, clearing any previous error, and reloads
// products and categories. On failure the store becomes failed and keeps the
// previously loaded catalog.
// The returned error is the same failure recorded in the state.
func (s *Store) Fetch(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "catalog.Fetch")
	defer span.End()

	s.mu.Lock()
	s.state.Status = StatusLoading
	s.state.Err = ""
	s.mu.Unlock()

	var (
		products   []product.Product
		categories []product.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.src.FetchProducts(gctx)
		if err != nil {
			return errors.Wrap(err, "fetch products")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.src.FetchCategories(gctx)
		if err != nil {
			return errors.Wrap(err, "fetch categories")
		}
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state.Status = StatusFailed
		s.state.Err = err.Error()

		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(StatusFailed))))
		return err
	}

	s.state = State{
		Status:     StatusSucceeded,
		Products:   products,
		Categories: categories,
		FetchedAt:  s.now(),
	}
	span.SetAttributes(
		attribute.Int("catalog.products", len(products)),
		attribute.Int("catalog.categories", len(categories)),
	)
	s.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(StatusSucceeded))))
	return nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loaded reports whether at least one fetch has succeeded, so products are
// available even if a later refresh failed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.state.FetchedAt.IsZero()
}

// Product looks id up in the loaded catalog, asking the source directly when
// it is not there.
func (s *Store) Product(ctx context.Context, id int) (*product.Product, error) {
	for _, p := range s.Snapshot().Products {
		if p.ID == id {
			return &p, nil
		}
	}
	p, err := s.src.FetchProduct(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch product %d", id)
	}
	return p, nil
}
