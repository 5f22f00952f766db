// Package drawio reads and writes recorded draw logs: CSV files with a
// header row naming the categories and one row per round.
//
//	Round,Blue,Red,Yellow,Black,Mint
//	1,2,0,1,0,1
package drawio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/bagodds/bagodds/tilemapping"
)

const roundColumn = "Round"

var (
	ErrNoDraws           = errors.New("draw log must have a header row and at least one data row")
	ErrNoCategoryColumns = errors.New("draw log header names none of the categories")
)

// Record is one row of a draw log.
type Record struct {
	// Round is the value of the Round column, or the 1-based row number
	// when there is none.
	Round int
	Draw  tilemapping.Draw
}

func cleanCell(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// ReadDraws reads up to maxRounds rows (all rows if maxRounds <= 0).
// Columns are matched to categories by label, ignoring case; they may come
// in any order and unknown columns are skipped. A category with no column,
// or a cell that is not a non-negative integer, reads as zero.
func ReadDraws(r io.Reader, p *tilemapping.Palette, maxRounds int) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoDraws
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	fold := cases.Fold()
	roundIdx := -1
	columns := make([]int, p.NumCategories())
	for i := range columns {
		columns[i] = -1
	}
	found := 0
	for i, h := range header {
		h = cleanCell(h)
		if fold.String(h) == fold.String(roundColumn) {
			roundIdx = i
			continue
		}
		if c, ok := p.Index(h); ok && columns[c] == -1 {
			columns[c] = i
			found++
		}
	}
	if found == 0 {
		return nil, ErrNoCategoryColumns
	}
	for c, idx := range columns {
		if idx == -1 {
			log.Warn().Str("category", p.Label(c)).Msg("draw-log-missing-column")
		}
	}

	var records []Record
	for maxRounds <= 0 || len(records) < maxRounds {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(records)+1, err)
		}
		rec := Record{Round: len(records) + 1, Draw: make(tilemapping.Draw, p.NumCategories())}
		if roundIdx >= 0 && roundIdx < len(row) {
			if n, err := strconv.Atoi(cleanCell(row[roundIdx])); err == nil {
				rec.Round = n
			}
		}
		for c, idx := range columns {
			rec.Draw[c] = cell(row, idx, rec.Round)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrNoDraws
	}
	return records, nil
}

func cell(row []string, idx, round int) int {
	if idx < 0 || idx >= len(row) {
		return 0
	}
	s := cleanCell(row[idx])
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		log.Warn().Int("round", round).Str("value", s).Msg("draw-log-bad-value; using 0")
		return 0
	}
	return n
}

// ReadDrawsFile reads a draw log from a file.
func ReadDrawsFile(path string, p *tilemapping.Palette, maxRounds int) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDraws(f, p, maxRounds)
}

// Draws returns just the draws of records.
func Draws(records []Record) []tilemapping.Draw {
	out := make([]tilemapping.Draw, len(records))
	for i, r := range records {
		out[i] = r.Draw
	}
	return out
}

// WriteDraws writes draws in the format ReadDraws reads, numbering rounds
// from 1.
func WriteDraws(w io.Writer, p *tilemapping.Palette, draws []tilemapping.Draw) error {
	cw := csv.NewWriter(w)
	header := append([]string{roundColumn}, p.Labels()...)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i, d := range draws {
		row[0] = strconv.Itoa(i + 1)
		for c := 0; c < p.NumCategories(); c++ {
			row[c+1] = strconv.Itoa(d.CountOf(c))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
