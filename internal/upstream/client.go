// Package upstream is a client for the public product catalog API.
package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/domain/product"
)

var _ product.Source = (*Client)(nil)

// DefaultMaxResponseSize bounds a catalog response body. The full DummyJSON
// catalog is well under 1 MiB.
const DefaultMaxResponseSize = 16 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the catalog API root, e.g. https://dummyjson.com.
	BaseURL string
	Timeout time.Duration
	// MaxResponseSize caps response bodies. Zero means DefaultMaxResponseSize.
	MaxResponseSize int64

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client fetches products and categories over HTTP.
type Client struct {
	base    string
	maxBody int64
	http    *http.Client
}

// New creates a Client. The transport is instrumented with otelhttp.
func New(cfg Config) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}

	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}

	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = DefaultMaxResponseSize
	}

	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		maxBody: cfg.MaxResponseSize,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport, opts...),
		},
	}, nil
}

// FetchProducts returns the whole catalog. limit=0 asks the API for every
// product in one page.
func (c *Client) FetchProducts(ctx context.Context) ([]product.Product, error) {
	const op = "fetch products"

	var out []product.Product
	err := c.get(ctx, op, "/products?limit=0", func(d *jx.Decoder) error {
		var err error
		out, err = DecodeProductList(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchCategories returns every category.
func (c *Client) FetchCategories(ctx context.Context) ([]product.Category, error) {
	const op = "fetch categories"

	var out []product.Category
	err := c.get(ctx, op, "/products/categories", func(d *jx.Decoder) error {
		var err error
		out, err = DecodeCategories(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchProduct returns a single product. It returns product.ErrNotFound when
// the API answers 404.
func (c *Client) FetchProduct(ctx context.Context, id int) (*product.Product, error) {
	const op = "fetch product"

	var p product.Product
	err := c.get(ctx, op, "/products/"+strconv.Itoa(id), func(d *jx.Decoder) error {
		var err error
		p, err = DecodeProduct(d)
		return err
	})
	if err != nil {
		var netErr *product.NetworkError
		if errors.As(err, &netErr) && netErr.Status == http.StatusNotFound {
			return nil, product.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, op, path string, decode func(d *jx.Decoder) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return &product.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &product.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &product.NetworkError{Op: op, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return &product.NetworkError{Op: op, Err: err}
	}
	if int64(len(body)) > c.maxBody {
		return &product.NetworkError{Op: op, Err: errors.Errorf("response exceeds %d bytes", c.maxBody)}
	}
	if err := decode(jx.DecodeBytes(body)); err != nil {
		return &product.DecodeError{Op: op, Err: err}
	}
	return nil
}
