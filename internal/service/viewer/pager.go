package viewer

import (
	"iter"
	"slices"
)

// Pager walks a document's text pages. Navigation clamps to the first and
// last page instead of failing.
type Pager struct {
	pages []string
	index int
}

// NewPager creates a pager positioned on the first page
func NewPager(pages []string) *Pager {
	return &Pager{pages: slices.Clone(pages)}
}

// Len is the number of pages
func (p *Pager) Len() int { return len(p.pages) }

// Index is the current zero-based page
func (p *Pager) Index() int { return p.index }

// Current returns the text of the current page; false when there are no pages
func (p *Pager) Current() (string, bool) {
	if len(p.pages) == 0 {
		return "", false
	}
	return p.pages[p.index], true
}

// Next advances one page unless already on the last
func (p *Pager) Next() int { return p.Seek(p.index + 1) }

// Prev goes back one page unless already on the first
func (p *Pager) Prev() int { return p.Seek(p.index - 1) }

// Seek moves to page i, clamped into range
func (p *Pager) Seek(i int) int {
	switch {
	case len(p.pages) == 0 || i < 0:
		p.index = 0
	case i >= len(p.pages):
		p.index = len(p.pages) - 1
	default:
		p.index = i
	}
	return p.index
}

// All yields every page from the first. Each call starts over.
func (p *Pager) All() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i, page := range p.pages {
			if !yield(i, page) {
				return
			}
		}
	}
}
