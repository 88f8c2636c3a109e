package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/bookstore/internal/db"
	"github.com/vasiliy-maslov/bookstore/internal/money"
)

var ErrBookNotFound = errors.New("book not found")

type Repository interface {
	ListByCategory(ctx context.Context, q db.Querier) ([]Category, error)
	GetByID(ctx context.Context, q db.Querier, id int64) (*Book, error)
	Count(ctx context.Context, q db.Querier) (int64, error)
	Insert(ctx context.Context, q db.Querier, books []Book) error
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

func (r *postgresRepository) ListByCategory(ctx context.Context, q db.Querier) ([]Category, error) {
	// Categories appear in the order their first book was inserted.
	query := `
		SELECT b.id, b.title, b.image, b.price_cents, b.category
		FROM books b
		JOIN (
			SELECT category, MIN(id) AS first_id
			FROM books
			GROUP BY category
		) c ON c.category = b.category
		ORDER BY c.first_id, b.id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query books: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan book: %w", err)
		}

		if n := len(categories); n == 0 || categories[n-1].Name != b.Category {
			categories = append(categories, Category{Name: b.Category})
		}
		last := &categories[len(categories)-1]
		last.Books = append(last.Books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating books: %w", err)
	}

	return categories, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, q db.Querier, id int64) (*Book, error) {
	query := `SELECT id, title, image, price_cents, category FROM books WHERE id = $1`

	b, err := scanBook(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("repository: failed to select book %d: %w", id, err)
	}

	return &b, nil
}

func (r *postgresRepository) Count(ctx context.Context, q db.Querier) (int64, error) {
	var n int64
	if err := q.QueryRow(ctx, `SELECT COUNT(1) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repository: failed to count books: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) Insert(ctx context.Context, q db.Querier, books []Book) error {
	query := `
		INSERT INTO books (title, image, price_cents, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for i := range books {
		b := &books[i]
		if err := q.QueryRow(ctx, query, b.Title, b.Image, int64(b.Price), b.Category).Scan(&b.ID); err != nil {
			return fmt.Errorf("repository: failed to insert book %q: %w", b.Title, err)
		}
	}

	return nil
}

func scanBook(row pgx.Row) (Book, error) {
	var (
		b          Book
		priceCents int64
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Image, &priceCents, &b.Category); err != nil {
		return Book{}, err
	}
	b.Price = money.Amount(priceCents)
	return b, nil
}
