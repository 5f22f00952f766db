// Package session drives a bag through a sequence of recorded draws. Before
// each draw it computes the class distribution for the bag as it stands,
// then evaluates the draw that actually happened and removes it from the
// bag.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/classifier"
	"github.com/bagodds/bagodds/probability"
	"github.com/bagodds/bagodds/tilemapping"
)

var (
	ErrSessionComplete    = errors.New("session has already recorded every round")
	ErrRoundPending       = errors.New("a round is already evaluated and waiting to be recorded")
	ErrNoPendingRound     = errors.New("no evaluated round to record")
	ErrCategoryMismatch   = errors.New("draw has more categories than the bag")
	ErrNegativeDrawCount  = errors.New("draw counts must be non-negative")
	ErrDrawSizeOutOfRange = errors.New("draw size must be non-negative")
)

// State is where the driver is within a round.
type State int

const (
	// AwaitingRound means the next call is Evaluate.
	AwaitingRound State = iota
	// RoundComplete means a draw has been evaluated and RecordDraw must be
	// called to apply it.
	RoundComplete
)

func (s State) String() string {
	if s == RoundComplete {
		return "round-complete"
	}
	return "awaiting-round"
}

// RoundResult is everything known about one round. It is not modified
// after it is returned.
type RoundResult struct {
	// Round is 1-based.
	Round int
	// Before is the bag before the draw.
	Before       *tilemapping.Population
	Draw         tilemapping.Draw
	Distribution probability.Distribution
	// Probability is the exact probability of drawing exactly Draw.
	Probability float64
	Shape       classifier.Shape
	Class       classifier.OutcomeClass
	DrawTotal   int
	// SizeMismatch is set when DrawTotal is not the session's draw size.
	SizeMismatch bool
}

// Recorder receives every round once it is recorded.
type Recorder interface {
	RecordRound(r *RoundResult) error
}

// Driver owns the bag for the length of a session.
type Driver struct {
	start     *tilemapping.Population
	pop       *tilemapping.Population
	evaluator *probability.Evaluator
	drawSize  int
	maxRounds int

	state     State
	pending   *RoundResult
	results   []*RoundResult
	recorders []Recorder
}

// NewDriver starts a session on a copy of start. maxRounds <= 0 means no
// limit.
func NewDriver(start *tilemapping.Population, ev *probability.Evaluator, drawSize, maxRounds int) (*Driver, error) {
	if drawSize < 0 {
		return nil, ErrDrawSizeOutOfRange
	}
	d := &Driver{
		start:     start.Copy(),
		pop:       start.Copy(),
		evaluator: ev,
		drawSize:  drawSize,
		maxRounds: maxRounds,
	}
	d.checkTable()
	return d, nil
}

// checkTable warns about shapes this session can produce that the table
// does not classify.
func (d *Driver) checkTable() {
	t := d.evaluator.Table()
	if t.Categories() != d.pop.NumCategories() || t.DrawSize() != d.drawSize {
		log.Warn().Str("table", t.Name).
			Int("table-categories", t.Categories()).Int("categories", d.pop.NumCategories()).
			Int("table-draw-size", t.DrawSize()).Int("draw-size", d.drawSize).
			Msg("classification-table-does-not-fit; draws will classify as Unknown")
		return
	}
	for _, s := range t.Missing() {
		log.Warn().Str("table", t.Name).Str("shape", s.String()).Msg("shape-not-classified")
	}
}

// AddRecorder attaches r. It receives rounds recorded from now on.
func (d *Driver) AddRecorder(r Recorder) {
	d.recorders = append(d.recorders, r)
}

// Evaluator returns the evaluator the session computes with.
func (d *Driver) Evaluator() *probability.Evaluator {
	return d.evaluator
}

func (d *Driver) State() State {
	return d.state
}

func (d *Driver) DrawSize() int {
	return d.drawSize
}

func (d *Driver) MaxRounds() int {
	return d.maxRounds
}

// Round returns the 1-based index of the round being played.
func (d *Driver) Round() int {
	return len(d.results) + 1
}

// Complete reports whether the round limit has been reached.
func (d *Driver) Complete() bool {
	return d.maxRounds > 0 && len(d.results) >= d.maxRounds
}

// Population returns a copy of the bag as it stands.
func (d *Driver) Population() *tilemapping.Population {
	return d.pop.Copy()
}

// Pending returns the evaluated round waiting to be recorded, or nil.
func (d *Driver) Pending() *RoundResult {
	return d.pending
}

// Results returns the recorded rounds in order.
func (d *Driver) Results() []*RoundResult {
	ret := make([]*RoundResult, len(d.results))
	copy(ret, d.results)
	return ret
}

// Distribution returns the class distribution for the next draw without
// touching the session state.
func (d *Driver) Distribution(ctx context.Context) (probability.Distribution, error) {
	return d.evaluator.StateDistributionContext(ctx, d.pop, d.drawSize)
}

// Evaluate computes the pre-draw distribution and evaluates draw against
// the current bag. The bag is not changed until RecordDraw.
func (d *Driver) Evaluate(ctx context.Context, draw tilemapping.Draw) (*RoundResult, error) {
	if d.Complete() {
		return nil, ErrSessionComplete
	}
	if d.state == RoundComplete {
		return nil, ErrRoundPending
	}
	if len(draw) > d.pop.NumCategories() {
		return nil, fmt.Errorf("%w: %d > %d", ErrCategoryMismatch, len(draw), d.pop.NumCategories())
	}
	for _, n := range draw {
		if n < 0 {
			return nil, ErrNegativeDrawCount
		}
	}
	// pad so every result carries one count per category
	full := make(tilemapping.Draw, d.pop.NumCategories())
	copy(full, draw)

	dist, err := d.evaluator.StateDistributionContext(ctx, d.pop, d.drawSize)
	if err != nil {
		return nil, err
	}
	round := d.Round()
	total := full.Total()
	r := &RoundResult{
		Round:        round,
		Before:       d.pop.Copy(),
		Draw:         full,
		Distribution: dist,
		Probability:  d.evaluator.ExactProbability(d.pop, full, d.drawSize),
		Shape:        classifier.ShapeOf(full, d.pop.NumCategories()),
		DrawTotal:    total,
		SizeMismatch: total != d.drawSize,
	}
	r.Class = d.evaluator.Table().Classify(r.Shape)
	if r.SizeMismatch {
		log.Warn().Int("round", round).Int("tiles", total).Int("expected", d.drawSize).
			Msg("draw-size-mismatch")
	}
	log.Debug().Int("round", round).Str("shape", r.Shape.String()).
		Str("class", r.Class.String()).Float64("p", r.Probability).Msg("round-evaluated")

	d.pending = r
	d.state = RoundComplete
	return r, nil
}

// RecordDraw applies the evaluated draw to the bag, saturating at zero, and
// moves on to the next round. The round is recorded even if a recorder
// fails; the recorder's error is returned.
func (d *Driver) RecordDraw() (*RoundResult, error) {
	if d.state != RoundComplete || d.pending == nil {
		return nil, ErrNoPendingRound
	}
	r := d.pending
	d.pop.Deplete(r.Draw)
	d.results = append(d.results, r)
	d.pending = nil
	d.state = AwaitingRound

	var errs []error
	for _, rec := range d.recorders {
		if err := rec.RecordRound(r); err != nil {
			log.Err(err).Int("round", r.Round).Msg("recorder-failed")
			errs = append(errs, err)
		}
	}
	return r, errors.Join(errs...)
}

// Step evaluates and records one draw.
func (d *Driver) Step(ctx context.Context, draw tilemapping.Draw) (*RoundResult, error) {
	if _, err := d.Evaluate(ctx, draw); err != nil {
		return nil, err
	}
	return d.RecordDraw()
}

// Run steps through draws until they run out or the session is complete,
// and returns the rounds recorded by this call. Draws beyond the round
// limit are ignored.
func (d *Driver) Run(ctx context.Context, draws []tilemapping.Draw) ([]*RoundResult, error) {
	var out []*RoundResult
	for _, draw := range draws {
		if d.Complete() {
			log.Info().Int("ignored", len(draws)-len(out)).Msg("round-limit-reached")
			break
		}
		r, err := d.Step(ctx, draw)
		if r != nil {
			out = append(out, r)
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Reset restores the starting bag and forgets every round.
func (d *Driver) Reset() {
	d.pop.CopyFrom(d.start)
	d.results = nil
	d.pending = nil
	d.state = AwaitingRound
}
