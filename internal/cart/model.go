package cart

import (
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/money"
)

// Entry is one (identity, book) row of the cart. Quantity is always at least 1.
type Entry struct {
	ID         int64     `json:"id" db:"id"`
	IdentityID uuid.UUID `json:"-" db:"identity_id"`
	BookID     int64     `json:"book_id" db:"book_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
}

// Line is a cart entry joined with its book.
type Line struct {
	EntryID  int64        `json:"entry_id"`
	Book     catalog.Book `json:"book"`
	Quantity int          `json:"quantity"`
}

func (l Line) Subtotal() money.Amount {
	return l.Book.Price.Mul(l.Quantity)
}

type Summary struct {
	Lines []Line       `json:"items"`
	Total money.Amount `json:"total"`
}

// Total is the sum of unit price times quantity over all lines.
func Total(lines []Line) money.Amount {
	subtotals := make([]money.Amount, 0, len(lines))
	for _, l := range lines {
		subtotals = append(subtotals, l.Subtotal())
	}
	return money.Sum(subtotals...)
}
