package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/samber/lo"

	"github.com/bagodds/bagodds/classifier"
	"github.com/bagodds/bagodds/session"
	"github.com/bagodds/bagodds/tilemapping"
)

func formatProb(p float64) string {
	return strconv.FormatFloat(p, 'f', 10, 64)
}

// CSVWriter writes one row per round:
//
//	Round,Bag_<label>...,Drawn_<label>...,Shape,Actual_State,Exact_Probability,Prob_<class>...
//
// Rows are flushed as they are written.
type CSVWriter struct {
	cw      *csv.Writer
	closer  io.Closer
	palette *tilemapping.Palette
}

// NewCSVWriter writes the header to w straight away.
func NewCSVWriter(w io.Writer, p *tilemapping.Palette) (*CSVWriter, error) {
	c := &CSVWriter{cw: csv.NewWriter(w), palette: p}
	if err := c.writeHeader(); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCSV creates (or truncates) the file at path.
func CreateCSV(path string, p *tilemapping.Palette) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	c, err := NewCSVWriter(f, p)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.closer = f
	return c, nil
}

func (c *CSVWriter) writeHeader() error {
	labels := c.palette.Labels()
	header := []string{"Round"}
	header = append(header, lo.Map(labels, func(l string, _ int) string { return "Bag_" + l })...)
	header = append(header, lo.Map(labels, func(l string, _ int) string { return "Drawn_" + l })...)
	header = append(header, "Shape", "Actual_State", "Exact_Probability")
	header = append(header, lo.Map(classifier.AllClasses, func(oc classifier.OutcomeClass, _ int) string {
		return "Prob_" + oc.String()
	})...)
	if err := c.cw.Write(header); err != nil {
		return err
	}
	c.cw.Flush()
	return c.cw.Error()
}

// RecordRound writes the round's row.
func (c *CSVWriter) RecordRound(r *session.RoundResult) error {
	n := c.palette.NumCategories()
	row := make([]string, 0, 1+2*n+3+len(classifier.AllClasses))
	row = append(row, strconv.Itoa(r.Round))
	for i := 0; i < n; i++ {
		row = append(row, strconv.Itoa(r.Before.Count(i)))
	}
	for i := 0; i < n; i++ {
		row = append(row, strconv.Itoa(r.Draw.CountOf(i)))
	}
	row = append(row, r.Shape.String(), r.Class.String(), formatProb(r.Probability))
	for _, oc := range classifier.AllClasses {
		row = append(row, formatProb(r.Distribution.Get(oc)))
	}
	if err := c.cw.Write(row); err != nil {
		return err
	}
	c.cw.Flush()
	return c.cw.Error()
}

// Close closes the underlying file, if CreateCSV opened one.
func (c *CSVWriter) Close() error {
	c.cw.Flush()
	if err := c.cw.Error(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
