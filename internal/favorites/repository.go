package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/db"
	"github.com/vasiliy-maslov/bookstore/internal/money"
)

var (
	ErrAlreadyFavorite = errors.New("book is already in favorites")
	ErrEntryNotFound   = errors.New("favorite entry not found")
	ErrForbidden       = errors.New("favorite entry belongs to another identity")
)

type Repository interface {
	Insert(ctx context.Context, q db.Querier, identityID uuid.UUID, bookID int64) (*Entry, error)
	RemoveBook(ctx context.Context, q db.Querier, identityID uuid.UUID, bookID int64) error
	DeleteEntry(ctx context.Context, q db.Querier, identityID uuid.UUID, entryID int64) error
	List(ctx context.Context, q db.Querier, identityID uuid.UUID) ([]Favorite, error)
	BookIDs(ctx context.Context, q db.Querier, identityID uuid.UUID) ([]int64, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

// Insert relies on the unique (identity_id, book_id) constraint. When the pair already
// exists nothing is returned and ErrAlreadyFavorite is reported.
func (r *postgresRepository) Insert(ctx context.Context, q db.Querier, identityID uuid.UUID, bookID int64) (*Entry, error) {
	query := `
		INSERT INTO favorites (identity_id, book_id)
		VALUES ($1, $2)
		ON CONFLICT (identity_id, book_id) DO NOTHING
		RETURNING id, identity_id, book_id, created_at
	`

	var e Entry
	err := q.QueryRow(ctx, query, identityID, bookID).Scan(&e.ID, &e.IdentityID, &e.BookID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyFavorite
		}
		if db.IsForeignKeyViolation(err) && db.ConstraintName(err) == "favorites_book_id_fkey" {
			return nil, catalog.ErrBookNotFound
		}
		return nil, fmt.Errorf("repository: failed to add book %d to favorites: %w", bookID, err)
	}

	return &e, nil
}

func (r *postgresRepository) RemoveBook(ctx context.Context, q db.Querier, identityID uuid.UUID, bookID int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM favorites WHERE identity_id = $1 AND book_id = $2`, identityID, bookID); err != nil {
		return fmt.Errorf("repository: failed to remove book %d from favorites: %w", bookID, err)
	}
	return nil
}

func (r *postgresRepository) DeleteEntry(ctx context.Context, q db.Querier, identityID uuid.UUID, entryID int64) error {
	cmdTag, err := q.Exec(ctx, `DELETE FROM favorites WHERE id = $1 AND identity_id = $2`, entryID, identityID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete favorite %d: %w", entryID, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var owner uuid.UUID
	err = q.QueryRow(ctx, `SELECT identity_id FROM favorites WHERE id = $1`, entryID).Scan(&owner)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrEntryNotFound
	case err != nil:
		return fmt.Errorf("repository: failed to look up favorite %d: %w", entryID, err)
	}

	return ErrForbidden
}

func (r *postgresRepository) List(ctx context.Context, q db.Querier, identityID uuid.UUID) ([]Favorite, error) {
	query := `
		SELECT f.id, b.id, b.title, b.image, b.price_cents, b.category
		FROM favorites f
		JOIN books b ON b.id = f.book_id
		WHERE f.identity_id = $1
		ORDER BY f.id
	`

	rows, err := q.Query(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query favorites: %w", err)
	}
	defer rows.Close()

	favs := make([]Favorite, 0)
	for rows.Next() {
		var (
			f          Favorite
			priceCents int64
		)
		if err := rows.Scan(&f.EntryID, &f.Book.ID, &f.Book.Title, &f.Book.Image, &priceCents, &f.Book.Category); err != nil {
			return nil, fmt.Errorf("repository: failed to scan favorite: %w", err)
		}
		f.Book.Price = money.Amount(priceCents)
		favs = append(favs, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating favorites: %w", err)
	}

	return favs, nil
}

func (r *postgresRepository) BookIDs(ctx context.Context, q db.Querier, identityID uuid.UUID) ([]int64, error) {
	rows, err := q.Query(ctx, `SELECT book_id FROM favorites WHERE identity_id = $1 ORDER BY book_id`, identityID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query favorite ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("repository: failed to collect favorite ids: %w", err)
	}

	return ids, nil
}
