package tilemapping

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// MaxCategories is the largest number of categories a palette may hold.
const MaxCategories = 64

var (
	ErrEmptyPalette   = errors.New("palette must have at least one category")
	ErrTooManyLabels  = fmt.Errorf("palette exceeds %d categories", MaxCategories)
	ErrEmptyLabel     = errors.New("category label must not be empty")
	ErrDuplicateLabel = errors.New("duplicate category label")
)

var folder = cases.Fold()

// Palette maps a category index to its display label and back. All
// computation works on indices; labels only matter at the I/O boundary.
type Palette struct {
	labels []string
	// vals maps the case-folded label to its index.
	vals map[string]int
}

// NewPalette creates a palette from labels in category order.
func NewPalette(labels []string) (*Palette, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyPalette
	}
	if len(labels) > MaxCategories {
		return nil, ErrTooManyLabels
	}
	p := &Palette{
		labels: make([]string, len(labels)),
		vals:   make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, ErrEmptyLabel
		}
		key := folder.String(l)
		if _, ok := p.vals[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, l)
		}
		p.labels[i] = l
		p.vals[key] = i
	}
	return p, nil
}

// NumCategories returns the number of categories.
func (p *Palette) NumCategories() int {
	return len(p.labels)
}

// Label returns the display label for category index i.
func (p *Palette) Label(i int) string {
	return p.labels[i]
}

// Labels returns a copy of the labels in category order.
func (p *Palette) Labels() []string {
	ret := make([]string, len(p.labels))
	copy(ret, p.labels)
	return ret
}

// Index looks up a label, ignoring case and surrounding whitespace.
func (p *Palette) Index(label string) (int, bool) {
	idx, ok := p.vals[folder.String(strings.TrimSpace(label))]
	return idx, ok
}

// Equal reports whether both palettes have the same labels in the same order.
func (p *Palette) Equal(other *Palette) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil || len(p.labels) != len(other.labels) {
		return false
	}
	for i := range p.labels {
		if p.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}
