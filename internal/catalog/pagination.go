package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrPageOutOfRange  = errors.New("page out of range")
	ErrInvalidPageSize = errors.New("page size must be positive")
)

// PageRangeError reports a requested page outside [1, TotalPages].
type PageRangeError struct {
	Page       int
	TotalPages int
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page %d out of range [1, %d]", e.Page, e.TotalPages)
}

func (e *PageRangeError) Is(target error) bool {
	return target == ErrPageOutOfRange
}

// maxFullLabels is the largest page count rendered without ellipses.
const maxFullLabels = 7

// PageLabel is either a page number or the ellipsis marker.
type PageLabel struct {
	Page     int
	Ellipsis bool
}

// Ellipsis is the marker for skipped pages.
var Ellipsis = PageLabel{Ellipsis: true}

// Page is a numbered label.
func Page(n int) PageLabel {
	return PageLabel{Page: n}
}

func (l PageLabel) String() string {
	if l.Ellipsis {
		return "..."
	}
	return strconv.Itoa(l.Page)
}

// MarshalJSON renders numbers as numbers and the marker as "...".
func (l PageLabel) MarshalJSON() ([]byte, error) {
	if l.Ellipsis {
		return json.Marshal("...")
	}
	return json.Marshal(l.Page)
}

// TotalPages is ceil(n / pageSize), zero for an empty collection.
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns the items of currentPage and the total page count.
func Paginate[T any](items []T, pageSize, currentPage int) ([]T, int, error) {
	if pageSize <= 0 {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	totalPages := TotalPages(len(items), pageSize)
	if totalPages == 0 {
		return []T{}, 0, nil
	}
	if currentPage < 1 || currentPage > totalPages {
		return nil, totalPages, &PageRangeError{Page: currentPage, TotalPages: totalPages}
	}

	start := (currentPage - 1) * pageSize
	end := min(start+pageSize, len(items))

	// Capped so appending to a page never writes into the next one.
	return items[start:end:end], totalPages, nil
}

// ComputePageLabels picks the page-number controls to render.
//
// Up to seven pages are all shown. Beyond that the first three and last three
// are shown while currentPage is in the first three, the last five while it is
// in the last three, and otherwise the first page, the current page with its
// neighbours, and the last page.
func ComputePageLabels(currentPage, totalPages int) []PageLabel {
	if totalPages <= maxFullLabels {
		labels := make([]PageLabel, 0, totalPages)
		for i := 1; i <= totalPages; i++ {
			labels = append(labels, Page(i))
		}
		return labels
	}

	switch {
	case currentPage <= 3:
		return []PageLabel{
			Page(1), Page(2), Page(3),
			Ellipsis,
			Page(totalPages - 2), Page(totalPages - 1), Page(totalPages),
		}
	case currentPage >= totalPages-2:
		return []PageLabel{
			Page(1),
			Ellipsis,
			Page(totalPages - 4), Page(totalPages - 3), Page(totalPages - 2), Page(totalPages - 1), Page(totalPages),
		}
	default:
		return []PageLabel{
			Page(1),
			Ellipsis,
			Page(currentPage - 1), Page(currentPage), Page(currentPage + 1),
			Ellipsis,
			Page(totalPages),
		}
	}
}
