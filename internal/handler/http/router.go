package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/vasiliy-maslov/bookstore/internal/cart"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/favorites"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
	"github.com/vasiliy-maslov/bookstore/internal/order"
	"github.com/vasiliy-maslov/bookstore/internal/user"
)

type RouterDeps struct {
	Logger      zerolog.Logger
	Resolver    IdentityResolver
	Catalog     catalog.Service
	Cart        cart.Service
	Favorites   favorites.Service
	Orders      order.Service
	Users       user.Service
	AuthLimiter *RateLimiter
}

func NewRouter(deps RouterDeps) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(hlog.NewHandler(deps.Logger))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("req_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "ok"})
	})

	router.Group(func(r chi.Router) {
		r.Use(ResolveIdentity(deps.Resolver))

		NewStoreHandler(deps.Catalog, deps.Cart, deps.Favorites).RegisterRoutes(r)
		NewCartHandler(deps.Cart).RegisterRoutes(r)
		NewFavoritesHandler(deps.Favorites).RegisterRoutes(r)
		NewOrderHandler(deps.Orders).RegisterRoutes(r)

		// Anonymous deployments have no accounts to log into.
		if deps.Resolver.Mode() == identity.ModeUser && deps.Users != nil {
			NewAuthHandler(deps.Users, deps.Resolver, deps.AuthLimiter).RegisterRoutes(r)
		}
	})

	return router
}
