package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/bookstore/internal/money"
)

type OrderStatus string

// Pending is the only status an order ever reaches; nothing moves it further yet.
const StatusPending OrderStatus = "Pending"

func (os OrderStatus) String() string {
	return string(os)
}

type OrderItem struct {
	ID        int64        `json:"id" db:"id"`
	OrderID   uuid.UUID    `json:"order_id" db:"order_id"`
	BookID    int64        `json:"book_id" db:"book_id"`
	Title     string       `json:"title" db:"title"`
	Quantity  int          `json:"quantity" db:"quantity"`
	UnitPrice money.Amount `json:"unit_price" db:"unit_price_cents"`
}

func (i OrderItem) Subtotal() money.Amount {
	return i.UnitPrice.Mul(i.Quantity)
}

type Order struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	IdentityID uuid.UUID    `json:"-" db:"identity_id"`
	Status     OrderStatus  `json:"status" db:"status"`
	Items      []OrderItem  `json:"items" db:"-"`
	Total      money.Amount `json:"total" db:"total_cents"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}
