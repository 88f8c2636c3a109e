package catalog

import (
	_ "embed"
	"fmt"

	"github.com/vasiliy-maslov/bookstore/internal/money"
	"gopkg.in/yaml.v3"
)

//go:embed seed/books.yaml
var defaultSeed []byte

type seedFile struct {
	Books []struct {
		Title    string `yaml:"title"`
		Image    string `yaml:"image"`
		Price    string `yaml:"price"`
		Category string `yaml:"category"`
	} `yaml:"books"`
}

// DefaultBooks is the catalog inserted into an empty store.
func DefaultBooks() ([]Book, error) {
	return ParseSeed(defaultSeed)
}

// ParseSeed decodes a YAML catalog. Prices use the display form, e.g. "30.00$".
func ParseSeed(raw []byte) ([]Book, error) {
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	books := make([]Book, 0, len(file.Books))
	for i, entry := range file.Books {
		if entry.Title == "" || entry.Category == "" {
			return nil, fmt.Errorf("seed entry %d: title and category are required", i)
		}

		price, err := money.Parse(entry.Price)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d (%s): %w", i, entry.Title, err)
		}

		books = append(books, Book{
			Title:    entry.Title,
			Image:    entry.Image,
			Price:    price,
			Category: entry.Category,
		})
	}

	return books, nil
}
