package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/bookstore/internal/cart"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/favorites"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
	"github.com/vasiliy-maslov/bookstore/internal/money"
	"github.com/vasiliy-maslov/bookstore/internal/order"
	"github.com/vasiliy-maslov/bookstore/internal/user"
)

// StatusResponse is the body of every mutating endpoint and of every error.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, StatusResponse{Success: false, Message: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated),
		errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, cart.ErrForbidden),
		errors.Is(err, favorites.ErrForbidden),
		errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrBookNotFound),
		errors.Is(err, cart.ErrEntryNotFound),
		errors.Is(err, favorites.ErrEntryNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, favorites.ErrAlreadyFavorite),
		errors.Is(err, user.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, money.ErrMalformedPrice):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown to clients. Unexpected errors get fallback.
func errorMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		return "Please log in"
	case errors.Is(err, user.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, cart.ErrForbidden), errors.Is(err, favorites.ErrForbidden), errors.Is(err, order.ErrForbidden):
		return "Access denied"
	case errors.Is(err, catalog.ErrBookNotFound):
		return "Book not found"
	case errors.Is(err, cart.ErrEntryNotFound):
		return "Cart item not found"
	case errors.Is(err, favorites.ErrEntryNotFound):
		return "Favorite not found"
	case errors.Is(err, order.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, user.ErrNotFound):
		return "User not found"
	case errors.Is(err, favorites.ErrAlreadyFavorite):
		return "Already in favorites"
	case errors.Is(err, user.ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, order.ErrEmptyCart):
		return "Your cart is empty"
	default:
		return fallback
	}
}

func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
	}
	respondWithError(w, code, errorMessage(err, fallback))
}

// decodeAndValidate writes the error response itself and reports whether the
// handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload: %v", err))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Success: false,
				Message: "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := jsonFieldName(fe)
		switch fe.Tag() {
		case "required":
			details[field] = fmt.Sprintf("Field '%s' is required", field)
		case "email":
			details[field] = fmt.Sprintf("Field '%s' must be a valid email", field)
		case "min":
			details[field] = fmt.Sprintf("Field '%s' must be at least %s characters long", field, fe.Param())
		case "gt":
			details[field] = fmt.Sprintf("Field '%s' must be greater than %s", field, fe.Param())
		default:
			details[field] = fmt.Sprintf("Field '%s' failed on the '%s' rule", field, fe.Tag())
		}
	}
	return details
}

func jsonFieldName(fe validator.FieldError) string {
	if name := fe.Field(); name != "" {
		return name
	}
	return strings.ToLower(fe.StructField())
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str(name, raw).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name))
		return 0, false
	}
	return id, true
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}
