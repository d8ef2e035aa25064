package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogOf(n int) []Product {
	products := make([]Product, 0, n)
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("Chair %d", i)
		if i%2 == 0 {
			name = fmt.Sprintf("Table %d", i)
		}
		products = append(products, product(fmt.Sprint(i), name, ""))
	}
	return products
}

func TestEngineQuery(t *testing.T) {
	engine := NewEngine(8)

	t.Run("ok: search then page", func(t *testing.T) {
		window, err := engine.Query(catalogOf(40), CatalogQuery{SearchTerm: "table", CurrentPage: 2})
		require.NoError(t, err)

		assert.Equal(t, 20, window.TotalItems)
		assert.Equal(t, 3, window.TotalPages)
		assert.Equal(t, 2, window.CurrentPage)
		assert.Equal(t, []string{"18", "20", "22", "24", "26", "28", "30", "32"}, ids(window.Items))
		assert.Equal(t, "1 2 3", labels(window.PageLabels))
		assert.True(t, window.HasPrev)
		assert.True(t, window.HasNext)
	})

	t.Run("ok: no match yields empty window", func(t *testing.T) {
		window, err := engine.Query(catalogOf(10), CatalogQuery{SearchTerm: "sofa", CurrentPage: 1})
		require.NoError(t, err)

		assert.Empty(t, window.Items)
		assert.Zero(t, window.TotalPages)
		assert.Empty(t, window.PageLabels)
		assert.False(t, window.HasPrev)
		assert.False(t, window.HasNext)
	})

	t.Run("error: page out of range", func(t *testing.T) {
		_, err := engine.Query(catalogOf(10), CatalogQuery{CurrentPage: 3})
		require.ErrorIs(t, err, ErrPageOutOfRange)
	})

	t.Run("ok: many pages get ellipses", func(t *testing.T) {
		window, err := engine.Query(catalogOf(80), CatalogQuery{CurrentPage: 5})
		require.NoError(t, err)

		assert.Equal(t, 10, window.TotalPages)
		assert.Equal(t, "1 ... 4 5 6 ... 10", labels(window.PageLabels))
	})
}

func TestNewEngineDefaultsPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, NewEngine(0).PageSize)
}
