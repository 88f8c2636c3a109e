package favorites

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
	List(ctx context.Context, id identity.Identity) ([]Favorite, error)
	IDs(ctx context.Context, id identity.Identity) ([]int64, error)
}

type service struct {
	db         db.Transactor
	repo       Repository
	identities identity.Repository
}

func NewService(database db.Transactor, repo Repository, identities identity.Repository) Service {
	return &service{db: database, repo: repo, identities: identities}
}

// Add returns ErrAlreadyFavorite when the book is already in the set. The set is left as is.
func (s *service) Add(ctx context.Context, id identity.Identity, bookID int64) (*Entry, error) {
	var entry *Entry

	err := s.db.InTx(ctx, func(q db.Querier) error {
		if err := s.identities.Ensure(ctx, q, id); err != nil {
			return err
		}

		var err error
		entry, err = s.repo.Insert(ctx, q, id.ID, bookID)
		return err
	})
	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, ErrAlreadyFavorite):
		log.Debug().Stringer("identity_id", id.ID).Int64("book_id", bookID).Msg("service: book already in favorites")
		return nil, ErrAlreadyFavorite
	case errors.Is(err, catalog.ErrBookNotFound):
		log.Warn().Stringer("identity_id", id.ID).Int64("book_id", bookID).Msg("service: attempt to favorite unknown book")
		return nil, catalog.ErrBookNotFound
	default:
		log.Error().Err(err).Stringer("identity_id", id.ID).Int64("book_id", bookID).Msg("service: failed to add favorite")
		return nil, fmt.Errorf("service: failed to add favorite: %w", err)
	}
}

func (s *service) Remove(ctx context.Context, id identity.Identity, bookID int64) error {
	if err := s.repo.RemoveBook(ctx, s.db, id.ID, bookID); err != nil {
		log.Error().Err(err).Stringer("identity_id", id.ID).Int64("book_id", bookID).Msg("service: failed to remove favorite")
		return fmt.Errorf("service: failed to remove favorite: %w", err)
	}
	return nil
}

func (s *service) RemoveEntry(ctx context.Context, id identity.Identity, entryID int64) error {
	err := s.repo.DeleteEntry(ctx, s.db, id.ID, entryID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrForbidden):
		log.Warn().Stringer("identity_id", id.ID).Int64("entry_id", entryID).Msg("service: attempt to delete another identity's favorite")
		return ErrForbidden
	case errors.Is(err, ErrEntryNotFound):
		return ErrEntryNotFound
	default:
		log.Error().Err(err).Stringer("identity_id", id.ID).Int64("entry_id", entryID).Msg("service: failed to delete favorite")
		return fmt.Errorf("service: failed to delete favorite: %w", err)
	}
}

func (s *service) List(ctx context.Context, id identity.Identity) ([]Favorite, error) {
	favs, err := s.repo.List(ctx, s.db, id.ID)
	if err != nil {
		log.Error().Err(err).Stringer("identity_id", id.ID).Msg("service: failed to list favorites")
		return nil, fmt.Errorf("service: failed to list favorites: %w", err)
	}
	return favs, nil
}

func (s *service) IDs(ctx context.Context, id identity.Identity) ([]int64, error) {
	ids, err := s.repo.BookIDs(ctx, s.db, id.ID)
	if err != nil {
		log.Error().Err(err).Stringer("identity_id", id.ID).Msg("service: failed to list favorite ids")
		return nil, fmt.Errorf("service: failed to list favorite ids: %w", err)
	}
	return ids, nil
}
