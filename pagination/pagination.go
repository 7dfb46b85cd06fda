// Package pagination splits a counted result set into numbered pages.
// Page numbers start at 1.
package pagination

import (
	"strconv"
	"strings"
)

const pageRangeWindow = 5

type Paginator struct {
	count   int
	perPage int
}

func New(count, perPage int) *Paginator {
	if perPage < 1 {
		perPage = 1
	}

	if count < 0 {
		count = 0
	}

	return &Paginator{
		count:   count,
		perPage: perPage,
	}
}

// NumPages is never less than 1, so an empty result still has one (empty) page.
func (p *Paginator) NumPages() int {
	if p.count == 0 {
		return 1
	}

	return (p.count + p.perPage - 1) / p.perPage
}

// GetPage parses raw and clamps it to a valid page: anything that is not a number
// yields the first page, numbers past the end yield the last one.
func (p *Paginator) GetPage(raw string) Page {
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || number < 1 {
		number = 1
	}

	numPages := p.NumPages()
	if number > numPages {
		number = numPages
	}

	return Page{
		Number:   number,
		PerPage:  p.perPage,
		NumPages: numPages,
		Count:    p.count,
	}
}

type Page struct {
	Number   int
	PerPage  int
	NumPages int
	Count    int
}

func (page Page) Offset() int {
	return (page.Number - 1) * page.PerPage
}

func (page Page) HasPrevious() bool {
	return page.Number > 1
}

func (page Page) HasNext() bool {
	return page.Number < page.NumPages
}

func (page Page) HasOtherPages() bool {
	return page.HasPrevious() || page.HasNext()
}

func (page Page) PreviousPageNumber() int {
	if !page.HasPrevious() {
		return page.Number
	}

	return page.Number - 1
}

func (page Page) NextPageNumber() int {
	if !page.HasNext() {
		return page.Number
	}

	return page.Number + 1
}

// PageRange lists the page numbers within five pages of the current one.
func (page Page) PageRange() []int {
	first := max(1, page.Number-pageRangeWindow)
	last := min(page.NumPages, page.Number+pageRangeWindow)

	numbers := make([]int, 0, last-first+1)
	for n := first; n <= last; n++ {
		numbers = append(numbers, n)
	}

	return numbers
}
