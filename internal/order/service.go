package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/bookstore/internal/cart"
	"github.com/vasiliy-maslov/bookstore/internal/db"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrForbidden = errors.New("order belongs to another identity")
)

type Service interface {
	PlaceOrder(ctx context.Context, id identity.Identity) (*Order, error)
	GetOrderByID(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, id identity.Identity) ([]Order, error)
}

type service struct {
	db        db.Transactor
	orderRepo Repository
	cartRepo  cart.Repository
	publisher Publisher
}

func NewService(database db.Transactor, orderRepo Repository, cartRepo cart.Repository, publisher Publisher) Service {
	if publisher == nil {
		publisher = NopPublisher()
	}
	return &service{
		db:        database,
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		publisher: publisher,
	}
}

// PlaceOrder turns the cart into a Pending order. The cart rows stay locked from the
// snapshot until they are deleted, and only the ordered rows are deleted: a book added
// concurrently stays in the cart. Nothing is written when the cart is empty.
func (s *service) PlaceOrder(ctx context.Context, id identity.Identity) (*Order, error) {
	var placed *Order

	err := s.db.InTx(ctx, func(q db.Querier) error {
		lines, err := s.cartRepo.Lines(ctx, q, id.ID, true)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		o := &Order{
			IdentityID: id.ID,
			Status:     StatusPending,
			Total:      cart.Total(lines),
			Items:      make([]OrderItem, 0, len(lines)),
		}
		entryIDs := make([]int64, 0, len(lines))
		for _, l := range lines {
			entryIDs = append(entryIDs, l.EntryID)
			o.Items = append(o.Items, OrderItem{
				BookID:    l.Book.ID,
				Title:     l.Book.Title,
				Quantity:  l.Quantity,
				UnitPrice: l.Book.Price,
			})
		}

		if err := s.orderRepo.Create(ctx, q, o); err != nil {
			return err
		}

		if _, err := s.cartRepo.DeleteEntries(ctx, q, id.ID, entryIDs); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			log.Warn().Stringer("identity_id", id.ID).Msg("service: attempt to place order with empty cart")
			return nil, ErrEmptyCart
		}
		log.Error().Err(err).Stringer("identity_id", id.ID).Msg("service: failed to place order")
		return nil, fmt.Errorf("service: failed to place order: %w", err)
	}

	log.Info().Stringer("order_id", placed.ID).Stringer("identity_id", id.ID).Stringer("total", placed.Total).Msg("service: order placed successfully")

	// The order is committed at this point; a broker outage must not undo it.
	if err := s.publisher.PublishOrderPlaced(ctx, placed); err != nil {
		log.Error().Err(err).Stringer("order_id", placed.ID).Msg("service: failed to publish order.placed event")
	}

	return placed, nil
}

func (s *service) GetOrderByID(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*Order, error) {
	o, err := s.orderRepo.GetByID(ctx, s.db, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	if o.IdentityID != id.ID {
		log.Warn().Stringer("order_id", orderID).Stringer("identity_id", id.ID).Msg("service: attempt to read another identity's order")
		return nil, ErrForbidden
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, id identity.Identity) ([]Order, error) {
	orders, err := s.orderRepo.ListByIdentity(ctx, s.db, id.ID)
	if err != nil {
		log.Error().Err(err).Stringer("identity_id", id.ID).Msg("service: failed to fetch identity orders")
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}
	return orders, nil
}
