package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/bookstore/internal/cart"
)

type BookRequest struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}

type AddToCartResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Item    *cart.Entry `json:"item"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Route("/cart", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/items", h.handleAdd)
		r.Delete("/items/{bookID}", h.handleRemove)
		r.Delete("/entries/{entryID}", h.handleRemoveEntry)
		r.Post("/clear", h.handleClear)
	})
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req BookRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	entry, err := h.service.Add(r.Context(), id, req.BookID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add book to cart")
		return
	}

	respondWithJSON(w, http.StatusOK, AddToCartResponse{
		Success: true,
		Message: "Book added to cart",
		Item:    entry,
	})
}

func (h *CartHandler) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	summary, err := h.service.ListWithTotal(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load cart")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	bookID, ok := parseIDParam(w, r, "bookID")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), id, bookID); err != nil {
		respondWithServiceError(w, err, "Failed to remove book from cart")
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Book removed from cart"})
}

func (h *CartHandler) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	entryID, ok := parseIDParam(w, r, "entryID")
	if !ok {
		return
	}

	if err := h.service.RemoveEntry(r.Context(), id, entryID); err != nil {
		respondWithServiceError(w, err, "Failed to remove cart item")
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Book removed from cart"})
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Cart cleared"})
}
