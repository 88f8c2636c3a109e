package cart

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
	ErrEntryNotFound = errors.New("cart entry not found")
	ErrForbidden     = errors.New("cart entry belongs to another identity")
)

type Repository interface {
	Increment(ctx context.Context, q db.Querier, identityID uuid.UUID, bookID int64) (*Entry, error)
	RemoveBook(ctx context.Context, q db.Querier, identityID uuid.UUID, bookID int64) error
	DeleteEntry(ctx context.Context, q db.Querier, identityID uuid.UUID, entryID int64) error
	Clear(ctx context.Context, q db.Querier, identityID uuid.UUID) (int64, error)
	DeleteEntries(ctx context.Context, q db.Querier, identityID uuid.UUID, entryIDs []int64) (int64, error)
	Lines(ctx context.Context, q db.Querier, identityID uuid.UUID, forUpdate bool) ([]Line, error)
	Count(ctx context.Context, q db.Querier, identityID uuid.UUID) (int, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

// Increment inserts the entry with quantity 1 or bumps an existing one in a single
// statement, so concurrent adds never lose an update.
func (r *postgresRepository) Increment(ctx context.Context, q db.Querier, identityID uuid.UUID, bookID int64) (*Entry, error) {
	query := `
		INSERT INTO cart_items (identity_id, book_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (identity_id, book_id)
		DO UPDATE SET quantity = cart_items.quantity + 1
		RETURNING id, identity_id, book_id, quantity
	`

	var e Entry
	err := q.QueryRow(ctx, query, identityID, bookID).Scan(&e.ID, &e.IdentityID, &e.BookID, &e.Quantity)
	if err != nil {
		if db.IsForeignKeyViolation(err) && db.ConstraintName(err) == "cart_items_book_id_fkey" {
			return nil, catalog.ErrBookNotFound
		}
		return nil, fmt.Errorf("repository: failed to add book %d to cart: %w", bookID, err)
	}

	return &e, nil
}

func (r *postgresRepository) RemoveBook(ctx context.Context, q db.Querier, identityID uuid.UUID, bookID int64) error {
	query := `DELETE FROM cart_items WHERE identity_id = $1 AND book_id = $2`
	if _, err := q.Exec(ctx, query, identityID, bookID); err != nil {
		return fmt.Errorf("repository: failed to remove book %d from cart: %w", bookID, err)
	}
	return nil
}

func (r *postgresRepository) DeleteEntry(ctx context.Context, q db.Querier, identityID uuid.UUID, entryID int64) error {
	cmdTag, err := q.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND identity_id = $2`, entryID, identityID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart entry %d: %w", entryID, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var owner uuid.UUID
	err = q.QueryRow(ctx, `SELECT identity_id FROM cart_items WHERE id = $1`, entryID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEntryNotFound
	}
	if err != nil {
		return fmt.Errorf("repository: failed to look up cart entry %d: %w", entryID, err)
	}

	return ErrForbidden
}

func (r *postgresRepository) Clear(ctx context.Context, q db.Querier, identityID uuid.UUID) (int64, error) {
	cmdTag, err := q.Exec(ctx, `DELETE FROM cart_items WHERE identity_id = $1`, identityID)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to clear cart: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// DeleteEntries removes exactly the given entries of the identity's cart. Rows added
// after those entries were read are left alone.
func (r *postgresRepository) DeleteEntries(ctx context.Context, q db.Querier, identityID uuid.UUID, entryIDs []int64) (int64, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}

	cmdTag, err := q.Exec(ctx, `DELETE FROM cart_items WHERE identity_id = $1 AND id = ANY($2)`, identityID, entryIDs)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to delete cart entries: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// Lines lists the cart in insertion order. forUpdate locks the cart rows until the
// surrounding transaction ends.
func (r *postgresRepository) Lines(ctx context.Context, q db.Querier, identityID uuid.UUID, forUpdate bool) ([]Line, error) {
	query := `
		SELECT c.id, c.quantity, b.id, b.title, b.image, b.price_cents, b.category
		FROM cart_items c
		JOIN books b ON b.id = c.book_id
		WHERE c.identity_id = $1
		ORDER BY c.id
	`
	if forUpdate {
		query += " FOR UPDATE OF c"
	}

	rows, err := q.Query(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart: %w", err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var (
			l          Line
			priceCents int64
		)
		err := rows.Scan(&l.EntryID, &l.Quantity, &l.Book.ID, &l.Book.Title, &l.Book.Image, &priceCents, &l.Book.Category)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line: %w", err)
		}
		l.Book.Price = money.Amount(priceCents)
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart lines: %w", err)
	}

	return lines, nil
}

func (r *postgresRepository) Count(ctx context.Context, q db.Querier, identityID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE identity_id = $1`, identityID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count cart items: %w", err)
	}
	return n, nil
}
