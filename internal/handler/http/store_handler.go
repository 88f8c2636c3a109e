package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/vasiliy-maslov/bookstore/internal/cart"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/favorites"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
)

type IndexResponse struct {
	Categories     []catalog.Category `json:"categories"`
	Navigation     []catalog.NavEntry `json:"navigation"`
	BookCount      int                `json:"book_count"`
	CartCount      int                `json:"cart_count"`
	FavoritesCount int                `json:"favorites_count"`
	FavoriteIDs    []int64            `json:"favorite_ids"`
}

type StoreHandler struct {
	catalog   catalog.Service
	cart      cart.Service
	favorites favorites.Service
}

func NewStoreHandler(catalogService catalog.Service, cartService cart.Service, favoritesService favorites.Service) *StoreHandler {
	return &StoreHandler{
		catalog:   catalogService,
		cart:      cartService,
		favorites: favoritesService,
	}
}

func (h *StoreHandler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.handleIndex)
	router.Get("/books/{id}", h.handleGetBook)
}

func (h *StoreHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListByCategory(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to load catalog")
		return
	}

	resp := IndexResponse{
		Categories:  categories,
		Navigation:  catalog.Navigation(categories),
		BookCount:   catalog.CountBooks(categories),
		FavoriteIDs: []int64{},
	}

	// Visitors without an identity still get the catalog, with empty badges.
	if id, ok := identity.FromContext(r.Context()); ok {
		if resp.CartCount, err = h.cart.Count(r.Context(), id); err != nil {
			respondWithServiceError(w, err, "Failed to load cart")
			return
		}
		ids, err := h.favorites.IDs(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, err, "Failed to load favorites")
			return
		}
		resp.FavoriteIDs = ids
		resp.FavoritesCount = len(ids)
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *StoreHandler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	book, err := h.catalog.GetBook(r.Context(), bookID)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Int64("book_id", bookID).Msg("Failed to get book")
		respondWithServiceError(w, err, "Failed to get book")
		return
	}

	respondWithJSON(w, http.StatusOK, book)
}
