package catalog

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/bookstore/internal/db"
)

const categoriesKey = "categories"

type Service interface {
	ListByCategory(ctx context.Context) ([]Category, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	Seed(ctx context.Context, books []Book) (bool, error)
}

type service struct {
	db         db.Transactor
	repo       Repository
	categories *lru.Cache[string, []Category]
	books      *lru.Cache[int64, Book]
}

// NewService caches reads; the catalog does not change after seeding.
func NewService(database db.Transactor, repo Repository, cacheSize int) (Service, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}

	categories, err := lru.New[string, []Category](1)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create category cache: %w", err)
	}
	books, err := lru.New[int64, Book](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("service: failed to create book cache: %w", err)
	}

	return &service{
		db:         database,
		repo:       repo,
		categories: categories,
		books:      books,
	}, nil
}

// ListByCategory returns a copy of the cached shelves; callers may modify it.
func (s *service) ListByCategory(ctx context.Context) ([]Category, error) {
	if cached, ok := s.categories.Get(categoriesKey); ok {
		return cloneCategories(cached), nil
	}

	categories, err := s.repo.ListByCategory(ctx, s.db)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list books by category")
		return nil, fmt.Errorf("service: failed to list catalog: %w", err)
	}

	s.categories.Add(categoriesKey, categories)
	return cloneCategories(categories), nil
}

func cloneCategories(categories []Category) []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{Name: c.Name, Books: append([]Book(nil), c.Books...)}
	}
	return out
}

func (s *service) GetBook(ctx context.Context, id int64) (*Book, error) {
	if cached, ok := s.books.Get(id); ok {
		return &cached, nil
	}

	book, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		log.Error().Err(err).Int64("book_id", id).Msg("service: failed to get book")
		return nil, fmt.Errorf("service: failed to get book %d: %w", id, err)
	}

	s.books.Add(id, *book)
	return book, nil
}

// Seed inserts books only into an empty catalog and reports whether it did.
func (s *service) Seed(ctx context.Context, books []Book) (bool, error) {
	seeded := false

	err := s.db.InTx(ctx, func(q db.Querier) error {
		// Serialises concurrent seeders so the emptiness check stays valid.
		if _, err := q.Exec(ctx, `LOCK TABLE books IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock books: %w", err)
		}

		n, err := s.repo.Count(ctx, q)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		if err := s.repo.Insert(ctx, q, books); err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("service: failed to seed catalog")
		return false, fmt.Errorf("service: failed to seed catalog: %w", err)
	}

	if seeded {
		s.categories.Purge()
		s.books.Purge()
		log.Info().Int("books", len(books)).Msg("service: default catalog inserted")
	}

	return seeded, nil
}
