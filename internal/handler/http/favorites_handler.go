package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/bookstore/internal/favorites"
)

type FavoritesHandler struct {
	service  favorites.Service
	validate *validator.Validate
}

func NewFavoritesHandler(service favorites.Service) *FavoritesHandler {
	return &FavoritesHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *FavoritesHandler) RegisterRoutes(router chi.Router) {
	router.Route("/favorites", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/items", h.handleAdd)
		r.Delete("/items/{bookID}", h.handleRemove)
		r.Delete("/entries/{entryID}", h.handleRemoveEntry)
	})
}

func (h *FavoritesHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req BookRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	_, err := h.service.Add(r.Context(), id, req.BookID)
	if err != nil {
		if errors.Is(err, favorites.ErrAlreadyFavorite) {
			respondWithJSON(w, http.StatusConflict, StatusResponse{Success: false, Message: "Already in favorites"})
			return
		}
		respondWithServiceError(w, err, "Failed to add book to favorites")
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Book added to favorites"})
}

func (h *FavoritesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	favs, err := h.service.List(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load favorites")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": favs})
}

func (h *FavoritesHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	bookID, ok := parseIDParam(w, r, "bookID")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), id, bookID); err != nil {
		respondWithServiceError(w, err, "Failed to remove favorite")
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Book removed from favorites"})
}

func (h *FavoritesHandler) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	entryID, ok := parseIDParam(w, r, "entryID")
	if !ok {
		return
	}

	if err := h.service.RemoveEntry(r.Context(), id, entryID); err != nil {
		respondWithServiceError(w, err, "Failed to remove favorite")
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Book removed from favorites"})
}
