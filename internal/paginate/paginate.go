// Package paginate slices ordered collections into fixed-size pages.
package paginate

import (
	"strconv"
	"strings"
)

// PerPage is the number of posts shown on every listing.
const PerPage = 10

// Page is one slice of an ordered collection. Number is 1-based and always
// within [1, NumPages]; an empty collection has a single empty page.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	PerPage  int
	Total    int64
}

// New clamps number into range for a collection of total items and returns
// the page with no items loaded yet.
func New[T any](number int, total int64, perPage int) *Page[T] {
	if perPage < 1 {
		perPage = PerPage
	}
	numPages := NumPages(total, perPage)
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return &Page[T]{
		Number:   number,
		NumPages: numPages,
		PerPage:  perPage,
		Total:    total,
	}
}

// Slice builds the page straight from an in-memory collection.
func Slice[T any](items []T, number, perPage int) *Page[T] {
	page := New[T](number, int64(len(items)), perPage)
	start := page.Offset()
	end := start + page.PerPage
	if end > len(items) {
		end = len(items)
	}
	if start < end {
		page.Items = items[start:end]
	}
	return page
}

func NumPages(total int64, perPage int) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Number parses the page query parameter. Anything that is not an integer
// means the first page.
func Number(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

func (p *Page[T]) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p *Page[T]) Len() int {
	return len(p.Items)
}

func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p *Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p *Page[T]) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

func (p *Page[T]) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

// Range lists every page number, for rendering page links.
func (p *Page[T]) Range() []int {
	numbers := make([]int, p.NumPages)
	for i := range numbers {
		numbers[i] = i + 1
	}
	return numbers
}
