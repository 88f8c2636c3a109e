package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/bookstore/internal/db"
	"github.com/vasiliy-maslov/bookstore/internal/money"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, q db.Querier, order *Order) error
	GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*Order, error)
	ListByIdentity(ctx context.Context, q db.Querier, identityID uuid.UUID) ([]Order, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

// Create inserts the order and its items. It must run inside the caller's transaction;
// it fills in the generated ids and timestamps on order.
func (r *postgresRepository) Create(ctx context.Context, q db.Querier, order *Order) error {
	if order.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		order.ID = id
	}
	order.CreatedAt = time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (id, identity_id, total_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.Exec(ctx, queryOrder,
		order.ID,
		order.IdentityID,
		int64(order.Total),
		string(order.Status),
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (order_id, book_id, title, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		err := q.QueryRow(ctx, queryItem,
			item.OrderID,
			item.BookID,
			item.Title,
			item.Quantity,
			int64(item.UnitPrice),
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", order.ID, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, q db.Querier, orderID uuid.UUID) (*Order, error) {
	queryOrder := `
		SELECT id, identity_id, status, total_cents, created_at
		FROM orders
		WHERE id = $1
	`

	order, err := scanOrder(q.QueryRow(ctx, queryOrder, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	byOrder, err := r.itemsFor(ctx, q, []uuid.UUID{orderID})
	if err != nil {
		return nil, err
	}
	order.Items = byOrder[orderID]
	if order.Items == nil {
		order.Items = make([]OrderItem, 0)
	}

	return &order, nil
}

// ListByIdentity returns newest orders first. Items are loaded with one extra query.
func (r *postgresRepository) ListByIdentity(ctx context.Context, q db.Querier, identityID uuid.UUID) ([]Order, error) {
	query := `
		SELECT id, identity_id, status, total_cents, created_at
		FROM orders
		WHERE identity_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := q.Query(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for identity %s: %w", identityID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var orderIDs []uuid.UUID
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for identity %s: %w", identityID, err)
		}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders for identity %s: %w", identityID, err)
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	byOrder, err := r.itemsFor(ctx, q, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = make([]OrderItem, 0)
		}
	}

	return orders, nil
}

func (r *postgresRepository) itemsFor(ctx context.Context, q db.Querier, orderIDs []uuid.UUID) (map[uuid.UUID][]OrderItem, error) {
	query := `
		SELECT id, order_id, book_id, title, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[uuid.UUID][]OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item       OrderItem
			priceCents int64
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.BookID, &item.Title, &item.Quantity, &priceCents); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		item.UnitPrice = money.Amount(priceCents)
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return byOrder, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o          Order
		status     string
		totalCents int64
	)
	if err := row.Scan(&o.ID, &o.IdentityID, &status, &totalCents, &o.CreatedAt); err != nil {
		return Order{}, err
	}
	o.Status = OrderStatus(status)
	o.Total = money.Amount(totalCents)
	return o, nil
}
