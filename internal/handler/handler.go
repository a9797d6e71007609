// Package handler exposes the storefront over a JSON HTTP API.
package handler

import (
	"net/http"
	"time"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/session"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to image paths in product responses.
	ImageBaseURL string
	// SessionCookie is the name of the cookie carrying the session id.
	SessionCookie string
	// SessionTTL is the cookie lifetime.
	SessionTTL time.Duration
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

// Handler serves catalog, filter, cart and checkout endpoints.
type Handler struct {
	catalog  *catalog.Store
	sessions *session.Registry
	checkout *checkout.Service

	imageBaseURL string
	cookie       string
	cookieTTL    time.Duration
	secure       bool
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	store *catalog.Store,
	sessions *session.Registry,
	checkoutSvc *checkout.Service,
) *Handler {
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "storefront_session"
	}
	return &Handler{
		catalog:      store,
		sessions:     sessions,
		checkout:     checkoutSvc,
		imageBaseURL: cfg.ImageBaseURL,
		cookie:       cfg.SessionCookie,
		cookieTTL:    cfg.SessionTTL,
		secure:       cfg.SecureCookie,
	}
}

// CookieName returns the session cookie name, for keying rate limits.
func (h *Handler) CookieName() string {
	return h.cookie
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog", h.CatalogStatus)
	mux.HandleFunc("POST /api/catalog/refresh", h.RefreshCatalog)
	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("GET /api/home", h.Home)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/facets", h.ProductFacets)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)

	mux.HandleFunc("GET /api/filters", h.GetFilters)
	mux.HandleFunc("PATCH /api/filters", h.PatchFilters)
	mux.HandleFunc("DELETE /api/filters", h.ResetFilters)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.SetCartItemQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.RemoveCartItem)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
}

// existingSession returns the caller's live session, if any. Read-only
// endpoints use it so cookie-less clients do not accumulate sessions.
func (h *Handler) existingSession(r *http.Request) (*session.Session, bool) {
	c, err := r.Cookie(h.cookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	return h.sessions.Lookup(c.Value)
}

// session returns the caller's session, issuing a cookie when a new one is
// created.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(h.cookie); err == nil {
		id = c.Value
	}
	s := h.sessions.Get(id)
	if s.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie,
			Value:    s.ID,
			Path:     "/",
			MaxAge:   int(h.cookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s
}
