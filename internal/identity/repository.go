package identity

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/bookstore/internal/db"
)

// Repository keeps the identities table that cart, favorites and orders hang off.
type Repository interface {
	Ensure(ctx context.Context, q db.Querier, id Identity) error
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

// Ensure creates the identity row on first write; repeated calls are no-ops.
func (r *postgresRepository) Ensure(ctx context.Context, q db.Querier, id Identity) error {
	var userID *uuid.UUID
	if id.Kind == KindUser {
		userID = &id.ID
	}

	query := `
		INSERT INTO identities (id, kind, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := q.Exec(ctx, query, id.ID, string(id.Kind), userID); err != nil {
		return fmt.Errorf("repository: failed to ensure identity %s: %w", id.ID, err)
	}

	return nil
}
