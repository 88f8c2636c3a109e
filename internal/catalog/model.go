package catalog

import (
	"strings"

	"github.com/vasiliy-maslov/bookstore/internal/money"
)

type Book struct {
	ID       int64        `json:"id" db:"id"`
	Title    string       `json:"title" db:"title"`
	Image    string       `json:"image" db:"image"`
	Price    money.Amount `json:"price" db:"price_cents"`
	Category string       `json:"category" db:"category"`
}

// Category is one shelf of the storefront, books in insertion order.
type Category struct {
	Name  string `json:"name"`
	Books []Book `json:"books"`
}

// NavEntry is a category link in the storefront navigation.
type NavEntry struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
	Name  string `json:"name"`
}

func NewNavEntry(category string) NavEntry {
	label := category
	if fields := strings.Fields(category); len(fields) > 0 {
		label = fields[0]
	}
	return NavEntry{
		Slug:  strings.ReplaceAll(strings.ToLower(category), " ", "-"),
		Label: label,
		Name:  category,
	}
}

func Navigation(categories []Category) []NavEntry {
	nav := make([]NavEntry, 0, len(categories))
	for _, c := range categories {
		nav = append(nav, NewNavEntry(c.Name))
	}
	return nav
}

// CountBooks is the number of books across all categories.
func CountBooks(categories []Category) int {
	n := 0
	for _, c := range categories {
		n += len(c.Books)
	}
	return n
}
