package listing

import (
	"strings"
	"sync"
)

// View is a local search and pagination state over materialized items.
type View struct {
	mu       sync.RWMutex
	all      []Item
	pageSize int
	term     string
	page     int

	// filtered caches the items matching term.
	filtered []Item
}

// NewView creates a view on page 1 with no search term.
func NewView(items []Item, pageSize int) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	v := &View{
		all:      items,
		pageSize: pageSize,
		page:     1,
	}
	v.filtered = filterItems(items, "")

	return v
}

// SetItems replaces the underlying items, for example after a reload. The
// search term is kept and the page is clamped to the new range.
func (v *View) SetItems(items []Item) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.all = items
	v.filtered = filterItems(items, v.term)
	v.page = v.clampLocked(v.page)
}

// SetSearchTerm changes the search term. A different term resets the view to
// page 1.
func (v *View) SetSearchTerm(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if term == v.term {
		return
	}

	v.term = term
	v.filtered = filterItems(v.all, term)
	v.page = 1
}

// SearchTerm returns the current search term.
func (v *View) SearchTerm() string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.term
}

// SetPage moves to page p, clamped to the valid range.
func (v *View) SetPage(p int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.page = v.clampLocked(p)
}

// CurrentPage returns the 1-based current page number.
func (v *View) CurrentPage() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.page
}

// Page returns the items on the current page.
func (v *View) Page() []Item {
	v.mu.RLock()
	defer v.mu.RUnlock()

	start := (v.page - 1) * v.pageSize
	if start >= len(v.filtered) {
		return []Item{}
	}
	end := min(start+v.pageSize, len(v.filtered))

	out := make([]Item, end-start)
	copy(out, v.filtered[start:end])

	return out
}

// TotalPages returns the page count of the filtered items.
func (v *View) TotalPages() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.totalPagesLocked()
}

// TotalItems returns the number of items matching the search term.
func (v *View) TotalItems() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return len(v.filtered)
}

// All returns every materialized item regardless of the search term.
func (v *View) All() []Item {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Item, len(v.all))
	copy(out, v.all)

	return out
}

func (v *View) totalPagesLocked() int {
	return (len(v.filtered) + v.pageSize - 1) / v.pageSize
}

func (v *View) clampLocked(p int) int {
	last := max(v.totalPagesLocked(), 1)

	return min(max(p, 1), last)
}

// filterItems keeps items whose title, description or summary text contains
// term, ignoring case. An empty term keeps everything.
func filterItems(items []Item, term string) []Item {
	if term == "" {
		return items
	}

	needle := strings.ToLower(term)
	var out []Item
	for _, it := range items {
		switch {
		case strings.Contains(strings.ToLower(it.Title), needle):
		case strings.Contains(
			strings.ToLower(it.DescriptionOr("")), needle,
		):
		case strings.Contains(
			strings.ToLower(it.SummarizedText), needle,
		):
		default:
			continue
		}

		out = append(out, it)
	}

	return out
}
