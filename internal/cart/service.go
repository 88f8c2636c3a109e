package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/db"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
)

type Service interface {
	Add(ctx context.Context, id identity.Identity, bookID int64) (*Entry, error)
	Remove(ctx context.Context, id identity.Identity, bookID int64) error
	RemoveEntry(ctx context.Context, id identity.Identity, entryID int64) error
	Clear(ctx context.Context, id identity.Identity) error
	ListWithTotal(ctx context.Context, id identity.Identity) (*Summary, error)
	Count(ctx context.Context, id identity.Identity) (int, error)
}

type service struct {
	db         db.Transactor
	repo       Repository
	identities identity.Repository
}

func NewService(database db.Transactor, repo Repository, identities identity.Repository) Service {
	return &service{db: database, repo: repo, identities: identities}
}

func (s *service) Add(ctx context.Context, id identity.Identity, bookID int64) (*Entry, error) {
	var entry *Entry

	err := s.db.InTx(ctx, func(q db.Querier) error {
		if err := s.identities.Ensure(ctx, q, id); err != nil {
			return err
		}

		var err error
		entry, err = s.repo.Increment(ctx, q, id.ID, bookID)
		return err
	})
	if err != nil {
		if errors.Is(err, catalog.ErrBookNotFound) {
			log.Warn().Stringer("identity_id", id.ID).Int64("book_id", bookID).Msg("service: attempt to add unknown book to cart")
			return nil, catalog.ErrBookNotFound
		}
		log.Error().Err(err).Stringer("identity_id", id.ID).Int64("book_id", bookID).Msg("service: failed to add book to cart")
		return nil, fmt.Errorf("service: failed to add book to cart: %w", err)
	}

	log.Debug().Stringer("identity_id", id.ID).Int64("book_id", bookID).Int("quantity", entry.Quantity).Msg("service: cart updated")
	return entry, nil
}

// Remove deletes the book from the cart; a book that is not there is not an error.
func (s *service) Remove(ctx context.Context, id identity.Identity, bookID int64) error {
	if err := s.repo.RemoveBook(ctx, s.db, id.ID, bookID); err != nil {
		log.Error().Err(err).Stringer("identity_id", id.ID).Int64("book_id", bookID).Msg("service: failed to remove book from cart")
		return fmt.Errorf("service: failed to remove book from cart: %w", err)
	}
	return nil
}

func (s *service) RemoveEntry(ctx context.Context, id identity.Identity, entryID int64) error {
	err := s.repo.DeleteEntry(ctx, s.db, id.ID, entryID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrForbidden):
		log.Warn().Stringer("identity_id", id.ID).Int64("entry_id", entryID).Msg("service: attempt to delete another identity's cart entry")
		return ErrForbidden
	case errors.Is(err, ErrEntryNotFound):
		return ErrEntryNotFound
	default:
		log.Error().Err(err).Stringer("identity_id", id.ID).Int64("entry_id", entryID).Msg("service: failed to delete cart entry")
		return fmt.Errorf("service: failed to delete cart entry: %w", err)
	}
}

func (s *service) Clear(ctx context.Context, id identity.Identity) error {
	if _, err := s.repo.Clear(ctx, s.db, id.ID); err != nil {
		log.Error().Err(err).Stringer("identity_id", id.ID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}
	return nil
}

func (s *service) ListWithTotal(ctx context.Context, id identity.Identity) (*Summary, error) {
	lines, err := s.repo.Lines(ctx, s.db, id.ID, false)
	if err != nil {
		log.Error().Err(err).Stringer("identity_id", id.ID).Msg("service: failed to list cart")
		return nil, fmt.Errorf("service: failed to list cart: %w", err)
	}

	return &Summary{Lines: lines, Total: Total(lines)}, nil
}

func (s *service) Count(ctx context.Context, id identity.Identity) (int, error) {
	n, err := s.repo.Count(ctx, s.db, id.ID)
	if err != nil {
		log.Error().Err(err).Stringer("identity_id", id.ID).Msg("service: failed to count cart items")
		return 0, fmt.Errorf("service: failed to count cart items: %w", err)
	}
	return n, nil
}
