package domain

import (
	"encoding/json"
	"strconv"
)

// DefaultSiblingCount is the number of neighbours shown on each side of the current page.
const DefaultSiblingCount = 1

// ellipsisMarker is how a collapsed gap is rendered in JSON.
const ellipsisMarker = "ellipsis"

// PageItem is one element of the compact page-number display: a page number or an ellipsis.
type PageItem struct {
	Page     int
	Ellipsis bool
}

// Ellipsis is the collapsed-gap marker.
var Ellipsis = PageItem{Ellipsis: true}

// PageNumber builds a numeric PageItem.
func PageNumber(n int) PageItem { return PageItem{Page: n} }

func (p PageItem) String() string {
	if p.Ellipsis {
		return "…"
	}
	return strconv.Itoa(p.Page)
}

// MarshalJSON encodes a page number as a number and an ellipsis as the string "ellipsis".
func (p PageItem) MarshalJSON() ([]byte, error) {
	if p.Ellipsis {
		return json.Marshal(ellipsisMarker)
	}
	return json.Marshal(p.Page)
}

// UnmarshalJSON accepts the encoding produced by MarshalJSON.
func (p *PageItem) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PageItem{Ellipsis: s == ellipsisMarker}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = PageItem{Page: n}
	return nil
}

// TotalPages returns ceil(count / perPage), or 0 when there is nothing to show.
func TotalPages(count, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}

// ClampPage pulls page back into [1, totalPages]; with no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if totalPages <= 0 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	if page < 1 {
		return 1
	}
	return page
}

// Page is one window over a filtered result set.
type Page struct {
	Items      []Disc     `json:"items"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
	Pages      []PageItem `json:"pages"`
}

// Paginate slices discs into the window [(page-1)*perPage, page*perPage).
// The requested page is clamped first, so the returned Page.Page is always valid.
func Paginate(discs []Disc, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(discs)
	totalPages := TotalPages(total, perPage)
	page = ClampPage(page, totalPages)

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]Disc, end-start)
	copy(items, discs[start:end])

	return Page{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		Pages:      PageRange(page, totalPages, DefaultSiblingCount),
	}
}

// PageRange computes the compact page-number display.
//
// With few pages (totalPages <= 2*siblingCount+5) every page is listed. Otherwise the
// first and last pages are always shown, the current page keeps siblingCount
// neighbours on each side, and each wider gap collapses into one ellipsis.
func PageRange(current, totalPages, siblingCount int) []PageItem {
	if totalPages <= 0 {
		return []PageItem{}
	}
	if siblingCount < 0 {
		siblingCount = 0
	}
	current = ClampPage(current, totalPages)

	totalPageNumbers := siblingCount*2 + 5
	if totalPages <= totalPageNumbers {
		return pageSpan(1, totalPages)
	}

	leftSibling := max(current-siblingCount, 2)
	rightSibling := min(current+siblingCount, totalPages-1)

	showLeftEllipsis := leftSibling > 2
	showRightEllipsis := rightSibling < totalPages-1

	pages := []PageItem{PageNumber(1)}
	edgeItemCount := 3 + 2*siblingCount

	switch {
	case !showLeftEllipsis && showRightEllipsis:
		pages = append(pages, pageSpan(2, edgeItemCount)...)
		pages = append(pages, Ellipsis)
	case showLeftEllipsis && !showRightEllipsis:
		pages = append(pages, Ellipsis)
		pages = append(pages, pageSpan(totalPages-edgeItemCount+1, totalPages-1)...)
	case showLeftEllipsis && showRightEllipsis:
		pages = append(pages, Ellipsis)
		pages = append(pages, pageSpan(leftSibling, rightSibling)...)
		pages = append(pages, Ellipsis)
	default:
		pages = append(pages, pageSpan(2, totalPages-1)...)
	}

	// The last page is appended only when the loops above did not already reach it.
	if last := pages[len(pages)-1]; last.Ellipsis || last.Page != totalPages {
		pages = append(pages, PageNumber(totalPages))
	}
	return pages
}

// pageSpan lists the page numbers from..to inclusive (empty when from > to).
func pageSpan(from, to int) []PageItem {
	if from > to {
		return []PageItem{}
	}
	out := make([]PageItem, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, PageNumber(i))
	}
	return out
}
