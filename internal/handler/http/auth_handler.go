package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/bookstore/internal/user"
)

type SignUpRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2"`
	LastName  string `json:"last_name" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type AuthHandler struct {
	service  user.Service
	sessions IdentityResolver
	limiter  *RateLimiter
	validate *validator.Validate
}

// NewAuthHandler wires signup, login, logout and the current-user lookup.
// limiter guards signup and login and may be nil.
func NewAuthHandler(service user.Service, sessions IdentityResolver, limiter *RateLimiter) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		limiter:  limiter,
		validate: newValidator(),
	}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.limiter != nil {
				r.Use(h.limiter.Middleware)
			}
			r.Post("/signup", h.handleSignUp)
			r.Post("/login", h.handleLogin)
		})
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
	})
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.SignUp(r.Context(), user.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create user")
		return
	}

	if err := h.sessions.StartSession(w, r, created.ID); err != nil {
		log.Error().Err(err).Stringer("user_id", created.ID).Msg("Failed to start session after sign up")
		respondWithError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	respondWithJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created",
		User:    newUserResponse(created),
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Failed to log in")
		return
	}

	if err := h.sessions.StartSession(w, r, u.ID); err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("Failed to start session")
		respondWithError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	respondWithJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Logged in",
		User:    newUserResponse(u),
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.EndSession(w, r); err != nil {
		log.Error().Err(err).Msg("Failed to end session")
		respondWithError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	respondWithJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Logged out"})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetUserByID(r.Context(), id.ID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load user")
		return
	}

	respondWithJSON(w, http.StatusOK, newUserResponse(u))
}
