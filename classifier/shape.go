package classifier

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bagodds/bagodds/tilemapping"
)

// Shape is the order-independent signature of a draw: the drawn counts
// sorted descending, zero-padded to the number of categories. A draw of
// two Blue and two Mint has shape 2,2,0,0,0.
type Shape []int

// ShapeOf computes the shape of a draw over the given number of categories.
func ShapeOf(d tilemapping.Draw, categories int) Shape {
	s := make(Shape, categories)
	shapeInto(s, d)
	return s
}

// shapeInto writes d's shape into s, using len(s) as the category count.
func shapeInto(s Shape, d tilemapping.Draw) {
	n := 0
	for i := 0; i < len(s); i++ {
		if c := d.CountOf(i); c > 0 {
			s[n] = c
			n++
		}
	}
	for i := n; i < len(s); i++ {
		s[i] = 0
	}
	// insertion sort, descending. Shapes are tiny.
	for i := 1; i < n; i++ {
		for j := i; j > 0 && s[j-1] < s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// String returns the canonical form, e.g. "2,2,0,0,0".
func (s Shape) String() string {
	var sb strings.Builder
	for i, n := range s {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// Total returns the number of tiles the shape describes.
func (s Shape) Total() int {
	t := 0
	for _, n := range s {
		t += n
	}
	return t
}

var ErrNotCanonical = errors.New("shape is not in canonical descending form")

// ParseShape parses a canonical shape string such as "3,1,0,0,0".
func ParseShape(str string) (Shape, error) {
	fields := strings.Split(str, ",")
	s := make(Shape, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", str, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("shape %q: negative count", str)
		}
		s[i] = n
	}
	if !slices.IsSortedFunc(s, func(a, b int) int { return b - a }) {
		return nil, fmt.Errorf("%w: %q", ErrNotCanonical, str)
	}
	return s, nil
}

// Partitions returns every shape of n tiles over the given number of
// categories, i.e. the partitions of n into at most categories parts, in
// descending lexicographic order.
func Partitions(n, categories int) []Shape {
	if n < 0 || categories <= 0 {
		return nil
	}
	var out []Shape
	cur := make(Shape, categories)
	var rec func(idx, remaining, maxPart int)
	rec = func(idx, remaining, maxPart int) {
		if remaining == 0 {
			s := make(Shape, categories)
			copy(s, cur[:idx])
			out = append(out, s)
			return
		}
		if idx == categories {
			return
		}
		for part := min(remaining, maxPart); part >= 1; part-- {
			cur[idx] = part
			rec(idx+1, remaining-part, part)
		}
	}
	rec(0, n, n)
	return out
}
