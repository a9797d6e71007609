package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

const productsPayload = `{
  "products": [
    {
      "id": 1,
      "title": "Essence Mascara Lash Princess",
      "description": "Popular mascara",
      "category": "beauty",
      "price": 9.99,
      "discountPercentage": 7.17,
      "rating": 4.94,
      "stock": 5,
      "tags": ["beauty", "mascara"],
      "brand": "Essence",
      "sku": "RCH45Q1A",
      "weight": 2,
      "dimensions": {"width": 23.17, "height": 14.43, "depth": 28.01},
      "warrantyInformation": "1 month warranty",
      "shippingInformation": "Ships in 1 month",
      "availabilityStatus": "Low Stock",
      "reviews": [{"rating": 2, "comment": "Very unhappy"}],
      "returnPolicy": "30 days return policy",
      "images": ["https://cdn.example.com/1/1.png"],
      "thumbnail": "https://cdn.example.com/1/thumbnail.png"
    },
    {
      "id": 16,
      "title": "Apple",
      "description": "Fresh apple",
      "category": "groceries",
      "price": "1.99",
      "discountPercentage": 12.62,
      "rating": 2.96,
      "stock": 0,
      "tags": ["fruits"],
      "images": [],
      "thumbnail": null
    }
  ],
  "total": 194,
  "skip": 0,
  "limit": 0
}`

const categoriesPayload = `[
  {"slug": "beauty", "name": "Beauty", "url": "https://dummyjson.com/products/category/beauty"},
  {"slug": "groceries", "name": "Groceries", "url": "https://dummyjson.com/products/category/groceries"}
]`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(productsPayload))
	})
	mux.HandleFunc("GET /products/categories", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(categoriesPayload))
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "16":
			_, _ = w.Write([]byte(`{"id":16,"title":"Apple","category":"groceries","price":1.99,"stock":0}`))
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
		case "777":
			_, _ = w.Write([]byte(`{"id":`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Product not found"}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestClient_FetchProducts(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	products, err := c.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	p := products[0]
	assert.Equal(t, 1, p.ID)
	assert.Equal(t, "Essence Mascara Lash Princess", p.Title)
	assert.Equal(t, "beauty", p.Category)
	assert.Equal(t, "Essence", p.Brand)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("9.99")))
	assert.InDelta(t, 7.17, p.DiscountPercentage, 1e-9)
	assert.InDelta(t, 4.94, p.Rating, 1e-9)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, []string{"beauty", "mascara"}, p.Tags)
	assert.Equal(t, "https://cdn.example.com/1/thumbnail.png", p.Thumbnail)
	assert.Equal(t, product.Details{
		Weight:       "2",
		Dimensions:   "23.17 x 14.43 x 28.01",
		Warranty:     "1 month warranty",
		Shipping:     "Ships in 1 month",
		ReturnPolicy: "30 days return policy",
	}, p.Details)

	apple := products[1]
	assert.False(t, apple.HasBrand())
	assert.False(t, apple.InStock())
	assert.Empty(t, apple.Thumbnail)
	assert.True(t, apple.Price.Equal(decimal.RequireFromString("1.99")))
}

func TestClient_FetchCategories(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	categories, err := c.FetchCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []product.Category{
		{Slug: "beauty", Name: "Beauty", URL: "https://dummyjson.com/products/category/beauty"},
		{Slug: "groceries", Name: "Groceries", URL: "https://dummyjson.com/products/category/groceries"},
	}, categories)
}

func TestClient_FetchProduct(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	p, err := c.FetchProduct(context.Background(), 16)
	require.NoError(t, err)
	assert.Equal(t, "Apple", p.Title)

	_, err = c.FetchProduct(context.Background(), 404)
	require.ErrorIs(t, err, product.ErrNotFound)

	_, err = c.FetchProduct(context.Background(), 500)
	var netErr *product.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusInternalServerError, netErr.Status)

	_, err = c.FetchProduct(context.Background(), 777)
	var decErr *product.DecodeError
	require.ErrorAs(t, err, &decErr)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.FetchProducts(context.Background())

	var netErr *product.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Zero(t, netErr.Status)
	assert.NotEmpty(t, err.Error())
}

func TestClient_ResponseTooLarge(t *testing.T) {
	srv := newTestServer(t)
	c, err := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, MaxResponseSize: 128})
	require.NoError(t, err)

	_, err = c.FetchProducts(context.Background())
	var netErr *product.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Contains(t, err.Error(), "exceeds 128 bytes")

	// Small bodies still fit.
	p, err := c.FetchProduct(context.Background(), 16)
	require.NoError(t, err)
	assert.Equal(t, "Apple", p.Title)
}

func TestDecodeProduct_AllFields(t *testing.T) {
	p, err := DecodeProduct(jx.DecodeStr(`{"id":7,"title":"Lamp","category":"home-decoration",
		"brand":null,"price":"12.50","stock":3,"tags":["lighting"],"weight":2}`))
	require.NoError(t, err)
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "Lamp", p.Title)
	assert.False(t, p.HasBrand())
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, []string{"lighting"}, p.Tags)
}

func TestDecodeProductList_BareArray(t *testing.T) {
	products, err := DecodeProductList(jx.DecodeStr(`[{"id":3,"title":"Chair","price":5}]`))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 3, products[0].ID)
}

func TestDecodeProductList_Invalid(t *testing.T) {
	_, err := DecodeProductList(jx.DecodeStr(`"nope"`))
	require.Error(t, err)
}

func TestDecodeProduct_NegativePrice(t *testing.T) {
	_, err := DecodeProduct(jx.DecodeStr(`{"id":3,"price":-1}`))
	require.Error(t, err)
}

func TestDecodeCategories_Slugs(t *testing.T) {
	categories, err := DecodeCategories(jx.DecodeStr(`["beauty","home-decoration"]`))
	require.NoError(t, err)
	assert.Equal(t, []product.Category{
		{Slug: "beauty", Name: "beauty"},
		{Slug: "home-decoration", Name: "home-decoration"},
	}, categories)
}
