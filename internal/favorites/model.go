package favorites

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
)

type Entry struct {
	ID         int64     `json:"id" db:"id"`
	IdentityID uuid.UUID `json:"-" db:"identity_id"`
	BookID     int64     `json:"book_id" db:"book_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Favorite is a favorites entry joined with its book.
type Favorite struct {
	EntryID int64        `json:"entry_id"`
	Book    catalog.Book `json:"book"`
}
