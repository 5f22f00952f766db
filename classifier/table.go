package classifier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/cespare/xxhash"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/bagodds/bagodds/cache"
	"github.com/bagodds/bagodds/config"
	"github.com/bagodds/bagodds/tilemapping"
)

// azulShapes is the Azul classification. 4,0,0,0,0 and 1,1,1,1,0 are both
// Bad on purpose.
var azulShapes = map[string]OutcomeClass{
	"4,0,0,0,0": Bad,
	"3,1,0,0,0": Unfavorable,
	"2,2,0,0,0": Neutral,
	"2,1,1,0,0": Favorable,
	"1,1,1,1,0": Bad,
}

// Table maps shapes to outcome classes for one category count and draw
// size. A Table is read-only after construction.
type Table struct {
	Name       string
	categories int
	drawSize   int
	shapes     map[string]OutcomeClass
	// fingerprint identifies the entries, for cache keys.
	fingerprint uint64
}

// NewTable validates and builds a table. Every key must be a canonical
// shape with categories entries totalling drawSize, and every class must be
// one of KnownClasses.
func NewTable(name string, categories, drawSize int, entries map[string]OutcomeClass) (*Table, error) {
	if categories <= 0 || drawSize < 0 {
		return nil, fmt.Errorf("table %q: bad dimensions %d categories, draw size %d",
			name, categories, drawSize)
	}
	t := &Table{
		Name:       name,
		categories: categories,
		drawSize:   drawSize,
		shapes:     make(map[string]OutcomeClass, len(entries)),
	}
	for key, class := range entries {
		s, err := ParseShape(key)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		if len(s) != categories {
			return nil, fmt.Errorf("table %q: shape %s has %d entries, want %d",
				name, key, len(s), categories)
		}
		if s.Total() != drawSize {
			return nil, fmt.Errorf("table %q: shape %s totals %d, want %d",
				name, key, s.Total(), drawSize)
		}
		if !slices.Contains(KnownClasses, class) {
			return nil, fmt.Errorf("table %q: shape %s has unassignable class %v", name, key, class)
		}
		// normalize spacing so lookups by String() hit
		t.shapes[s.String()] = class
	}
	t.fingerprint = t.computeFingerprint()
	return t, nil
}

// DefaultTable returns the Azul table: five categories, four tiles a draw.
func DefaultTable() *Table {
	t, err := NewTable("azul", 5, 4, azulShapes)
	if err != nil {
		panic(err)
	}
	return t
}

// Categories is the number of categories the table's shapes span.
func (t *Table) Categories() int {
	return t.categories
}

// DrawSize is the number of tiles per draw the table covers.
func (t *Table) DrawSize() int {
	return t.drawSize
}

// Fingerprint is a hash of the table entries.
func (t *Table) Fingerprint() uint64 {
	return t.fingerprint
}

// Classify looks the shape up. Unmatched shapes are Unknown.
func (t *Table) Classify(s Shape) OutcomeClass {
	return t.ClassifyString(s.String())
}

// ClassifyString looks up a canonical shape string.
func (t *Table) ClassifyString(shape string) OutcomeClass {
	if c, ok := t.shapes[shape]; ok {
		return c
	}
	return Unknown
}

// Entries returns a copy of the table's shape to class mapping.
func (t *Table) Entries() map[string]OutcomeClass {
	ret := make(map[string]OutcomeClass, len(t.shapes))
	for k, v := range t.shapes {
		ret[k] = v
	}
	return ret
}

// Missing lists the shapes a draw of DrawSize tiles over Categories
// categories can take that have no entry.
func (t *Table) Missing() []Shape {
	return lo.Filter(Partitions(t.drawSize, t.categories), func(s Shape, _ int) bool {
		_, ok := t.shapes[s.String()]
		return !ok
	})
}

func (t *Table) computeFingerprint() uint64 {
	keys := lo.Keys(t.shapes)
	slices.Sort(keys)
	h := xxhash.New()
	io.WriteString(h, strconv.Itoa(t.categories)+"/"+strconv.Itoa(t.drawSize)+";")
	for _, k := range keys {
		io.WriteString(h, k+"="+t.shapes[k].String()+";")
	}
	return h.Sum64()
}

// Classifier classifies draws against a table, reusing a scratch shape. It
// is not safe for concurrent use; make one per goroutine.
type Classifier struct {
	table   *Table
	scratch Shape
}

// NewClassifier returns a classifier for draws over the given number of
// categories.
func (t *Table) NewClassifier(categories int) *Classifier {
	return &Classifier{table: t, scratch: make(Shape, categories)}
}

// Classify returns the class of d.
func (c *Classifier) Classify(d tilemapping.Draw) OutcomeClass {
	shapeInto(c.scratch, d)
	return c.table.Classify(c.scratch)
}

type yamlTable struct {
	Name       string            `yaml:"name"`
	Categories int               `yaml:"categories"`
	DrawSize   int               `yaml:"draw-size"`
	Shapes     map[string]string `yaml:"shapes"`
}

var ErrEmptyTable = errors.New("classification table has no shapes")

// ParseTable reads a YAML table:
//
//	name: azul
//	categories: 5
//	draw-size: 4
//	shapes:
//	  "4,0,0,0,0": Bad
//	  "3,1,0,0,0": Unfavorable
func ParseTable(r io.Reader) (*Table, error) {
	var yt yamlTable
	if err := yaml.NewDecoder(r).Decode(&yt); err != nil {
		return nil, fmt.Errorf("decoding classification table: %w", err)
	}
	if len(yt.Shapes) == 0 {
		return nil, ErrEmptyTable
	}
	entries := make(map[string]OutcomeClass, len(yt.Shapes))
	for shape, name := range yt.Shapes {
		c, err := ParseOutcomeClass(name)
		if err != nil {
			return nil, fmt.Errorf("shape %s: %w", shape, err)
		}
		entries[shape] = c
	}
	return NewTable(yt.Name, yt.Categories, yt.DrawSize, entries)
}

// LoadTable reads a YAML table from a file.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTable(f)
}

func tableLoadFunc(cfg *config.Config, path string) (any, error) {
	return LoadTable(path)
}

// TableFromConfig returns the classification table the config names, or the
// default table when none is set. Loaded tables are cached by path.
func TableFromConfig(cfg *config.Config) (*Table, error) {
	path := cfg.GetString(config.ConfigClassificationTable)
	if path == "" {
		return DefaultTable(), nil
	}
	obj, err := cache.Load(cfg, path, tableLoadFunc)
	if err != nil {
		return nil, err
	}
	return obj.(*Table), nil
}

// WriteYAML writes the table in the format ParseTable reads.
func (t *Table) WriteYAML(w io.Writer) error {
	yt := yamlTable{
		Name:       t.Name,
		Categories: t.categories,
		DrawSize:   t.drawSize,
		Shapes: lo.MapValues(t.shapes, func(c OutcomeClass, _ string) string {
			return c.String()
		}),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yt); err != nil {
		return err
	}
	return enc.Close()
}
