package catalog

import "fmt"

// DefaultPageSize is the listing's products-per-page when unset.
const DefaultPageSize = 8

// CatalogQuery selects one page of the filtered catalog. A new SearchTerm
// should come with CurrentPage reset to 1.
type CatalogQuery struct {
	SearchTerm  string
	CurrentPage int
}

// PageWindow is what the listing renders for one page.
type PageWindow struct {
	Items       []Product   `json:"items"`
	CurrentPage int         `json:"current_page"`
	TotalPages  int         `json:"total_pages"`
	TotalItems  int         `json:"total_items"`
	PageLabels  []PageLabel `json:"page_labels"`
	HasPrev     bool        `json:"has_prev"`
	HasNext     bool        `json:"has_next"`
}

type Engine struct {
	PageSize int
}

func NewEngine(pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{PageSize: pageSize}
}

// Query searches products, pages the result and computes the labels.
func (e *Engine) Query(products []Product, q CatalogQuery) (PageWindow, error) {
	filtered := Search(products, q.SearchTerm)

	items, totalPages, err := Paginate(filtered, e.PageSize, q.CurrentPage)
	if err != nil {
		return PageWindow{}, fmt.Errorf("failed to paginate %q: %w", q.SearchTerm, err)
	}

	return PageWindow{
		Items:       items,
		CurrentPage: q.CurrentPage,
		TotalPages:  totalPages,
		TotalItems:  len(filtered),
		PageLabels:  ComputePageLabels(q.CurrentPage, totalPages),
		HasPrev:     q.CurrentPage > 1 && totalPages > 0,
		HasNext:     q.CurrentPage < totalPages,
	}, nil
}
