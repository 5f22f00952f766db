// Package report presents and persists session results: a console
// printer, a CSV results table, and a SQLite results table.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/bagodds/bagodds/probability"
	"github.com/bagodds/bagodds/session"
	"github.com/bagodds/bagodds/tilemapping"
)

const (
	histogramBins  = 10
	histogramWidth = 40
)

// Console prints rounds as they are recorded. It is a session.Recorder.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Banner describes the starting bag.
func (c *Console) Banner(td *tilemapping.TileDistribution, drawSize, maxRounds int) {
	fmt.Fprintf(c.w, "=== Bag probability analysis (%s) ===\n", td.Name)
	pop := td.MakePopulation()
	fmt.Fprintf(c.w, "Bag: %d tiles (%s)\n", pop.Total(), pop)
	if maxRounds > 0 {
		fmt.Fprintf(c.w, "Drawing %d tiles at once for the first %d draws\n", drawSize, maxRounds)
	} else {
		fmt.Fprintf(c.w, "Drawing %d tiles at once\n", drawSize)
	}
}

// FormatDistribution lists the classes by descending probability as
// percentages with six decimals.
func FormatDistribution(dist probability.Distribution) string {
	var sb strings.Builder
	for _, cp := range dist.Sorted() {
		fmt.Fprintf(&sb, "  %-12s %.6f%%\n", cp.Class.String()+":", cp.Probability*100)
	}
	return sb.String()
}

// RecordRound prints the round.
func (c *Console) RecordRound(r *session.RoundResult) error {
	palette := r.Before.Palette()
	after := r.Before.Copy()
	after.Deplete(r.Draw)

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nRound %d:\n", r.Round)
	fmt.Fprintf(&sb, "Bag state BEFORE draw: %s\n", r.Before)
	sb.WriteString("Probabilities for states BEFORE draw:\n")
	sb.WriteString(FormatDistribution(r.Distribution))
	fmt.Fprintf(&sb, "Actual draw: %s\n", r.Draw.Labeled(palette))
	if r.SizeMismatch {
		fmt.Fprintf(&sb, "Warning: round %d has %d tiles\n", r.Round, r.DrawTotal)
	}
	fmt.Fprintf(&sb, "Draw pattern: %s\n", r.Shape)
	fmt.Fprintf(&sb, "Actual state: %s\n", r.Class)
	fmt.Fprintf(&sb, "Exact probability for this draw: %.10f%%\n", r.Probability*100)
	fmt.Fprintf(&sb, "Bag state AFTER draw: %s\n", after)
	_, err := io.WriteString(c.w, sb.String())
	return err
}

// Summary prints expected against observed class counts and the spread of
// surprisal over the session.
func (c *Console) Summary(s session.Summary) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n=== Summary over %d rounds ===\n", s.Rounds)
	fmt.Fprintf(&sb, "%-14s%-12s%-10s\n", "State", "Expected", "Observed")
	for _, cs := range s.Classes {
		fmt.Fprintf(&sb, "%-14s%-12.4f%-10d\n", cs.Class, cs.Expected, cs.Observed)
	}
	if s.Mismatched > 0 {
		fmt.Fprintf(&sb, "Rounds with the wrong number of tiles: %d\n", s.Mismatched)
	}
	if s.Impossible > 0 {
		fmt.Fprintf(&sb, "Rounds with an impossible draw: %d\n", s.Impossible)
	}
	if s.Surprisal.Iterations() > 0 {
		fmt.Fprintf(&sb, "Surprisal: mean %.3f bits, stdev %.3f, %d%% interval [%.3f, %.3f]\n",
			s.Surprisal.Mean(), s.Surprisal.Stdev(), session.SummaryConfidence,
			s.IntervalLo, s.IntervalHi)
	}
	if _, err := io.WriteString(c.w, sb.String()); err != nil {
		return err
	}
	finite := lo.Filter(s.Surprisals, func(v float64, _ int) bool {
		return !math.IsInf(v, 0)
	})
	if len(finite) < 2 {
		return nil
	}
	fmt.Fprintln(c.w, "Surprisal histogram (bits):")
	return histogram.Fprint(c.w, histogram.Hist(histogramBins, finite), histogram.Linear(histogramWidth))
}
