package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/money"
)

func TestDefaultBooks(t *testing.T) {
	books, err := catalog.DefaultBooks()
	require.NoError(t, err)
	require.Len(t, books, 12)

	assert.Equal(t, "Design Patterns", books[0].Title)
	assert.Equal(t, money.Amount(3000), books[0].Price)

	perCategory := map[string]int{}
	for _, b := range books {
		perCategory[b.Category]++
	}
	assert.Equal(t, map[string]int{
		"Programming General":       4,
		"Interaction with hardware": 4,
		"Secure Systems":            4,
	}, perCategory)
}

func TestParseSeed_MalformedPrice(t *testing.T) {
	raw := []byte(`
books:
  - title: Broken
    image: broken.jpeg
    price: "twenty$"
    category: Misc
`)

	_, err := catalog.ParseSeed(raw)
	require.ErrorIs(t, err, money.ErrMalformedPrice)
}

func TestParseSeed_MissingCategory(t *testing.T) {
	raw := []byte(`
books:
  - title: Orphan
    price: "1.00$"
`)

	_, err := catalog.ParseSeed(raw)
	require.Error(t, err)
}

func TestNavigation(t *testing.T) {
	nav := catalog.Navigation([]catalog.Category{
		{Name: "Programming General"},
		{Name: "Interaction with hardware"},
	})

	assert.Equal(t, []catalog.NavEntry{
		{Slug: "programming-general", Label: "Programming", Name: "Programming General"},
		{Slug: "interaction-with-hardware", Label: "Interaction", Name: "Interaction with hardware"},
	}, nav)
}
