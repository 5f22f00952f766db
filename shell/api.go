package shell

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/classifier"
	"github.com/bagodds/bagodds/config"
	"github.com/bagodds/bagodds/drawgen"
	"github.com/bagodds/bagodds/drawio"
	"github.com/bagodds/bagodds/report"
	"github.com/bagodds/bagodds/tilemapping"
)

const defaultListLimit = 10

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func msg(message string) *Response {
	return &Response{message: message}
}

// parseCounts reads a draw either as one integer per category in palette
// order, or as Label=n pairs in any order.
func parseCounts(args []string, p *tilemapping.Palette) (tilemapping.Draw, error) {
	if len(args) == 0 {
		return nil, errors.New("need tile counts, e.g. 2 0 1 0 1 or Blue=2 Yellow=1 Mint=1")
	}
	d := make(tilemapping.Draw, p.NumCategories())
	if strings.Contains(args[0], "=") {
		for _, a := range args {
			label, val, ok := strings.Cut(a, "=")
			if !ok {
				return nil, fmt.Errorf("expected Label=n, got %q", a)
			}
			idx, ok := p.Index(label)
			if !ok {
				return nil, fmt.Errorf("no category %q", label)
			}
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, err
			}
			d[idx] += n
		}
		return d, nil
	}
	if len(args) > p.NumCategories() {
		return nil, fmt.Errorf("got %d counts for %d categories", len(args), p.NumCategories())
	}
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		d[i] = n
	}
	return d, nil
}

func (sc *ShellController) palette() *tilemapping.Palette {
	return sc.dist.Palette()
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		usage(sc.out, sc.execPath)
		return nil, nil
	}
	usageTopic(sc.out, cmd.args[0], sc.execPath)
	return nil, nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("load <draw-log.csv>")
	}
	recs, err := drawio.ReadDrawsFile(cmd.args[0], sc.palette(), sc.driver.MaxRounds())
	if err != nil {
		return nil, err
	}
	sc.loaded = recs
	sc.nextIdx = 0
	sc.driver.Reset()
	log.Debug().Int("rounds", len(recs)).Str("file", cmd.args[0]).Msg("loaded-draw-log")
	return msg(fmt.Sprintf("Loaded %d draws; session reset.", len(recs))), nil
}

func (sc *ShellController) bag(cmd *shellcmd) (*Response, error) {
	pop := sc.driver.Population()
	s := fmt.Sprintf("Round %d, %d tiles in the bag: %s", sc.driver.Round(), pop.Total(), pop)
	if sc.driver.Complete() {
		s += "\nSession complete."
	}
	return msg(s), nil
}

func (sc *ShellController) distribution(cmd *shellcmd) (*Response, error) {
	size, err := cmd.options.IntDefault("size", sc.driver.DrawSize())
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, errors.New("size must be non-negative")
	}
	dist, err := sc.driver.Evaluator().StateDistributionContext(context.Background(),
		sc.driver.Population(), size)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("Probabilities for the next %d-tile draw:\n%s", size,
		strings.TrimRight(report.FormatDistribution(dist), "\n"))), nil
}

func (sc *ShellController) prob(cmd *shellcmd) (*Response, error) {
	d, err := parseCounts(cmd.args, sc.palette())
	if err != nil {
		return nil, err
	}
	pop := sc.driver.Population()
	ev := sc.driver.Evaluator()
	shape := classifier.ShapeOf(d, pop.NumCategories())
	p := ev.ExactProbability(pop, d, sc.driver.DrawSize())
	return msg(fmt.Sprintf("%s: pattern %s, %s, exact probability %.10f%%",
		d.Labeled(sc.palette()), shape, ev.Table().Classify(shape), p*100)), nil
}

func (sc *ShellController) list(cmd *shellcmd) (*Response, error) {
	limit, err := cmd.options.IntDefault("limit", defaultListLimit)
	if err != nil {
		return nil, err
	}
	pop := sc.driver.Population()
	size := sc.driver.DrawSize()
	draws, err := drawgen.GenerateWithBudget(pop, size,
		sc.config.GetFloat64(config.ConfigMaterializeMemoryFraction))
	if err != nil {
		return nil, err
	}
	if len(draws) == 0 {
		return msg("No possible draws."), nil
	}
	ev := sc.driver.Evaluator()
	type scored struct {
		draw tilemapping.Draw
		p    float64
	}
	all := make([]scored, len(draws))
	for i, d := range draws {
		all[i] = scored{d, ev.ExactProbability(pop, d, size)}
	}
	slices.SortStableFunc(all, func(a, b scored) int {
		return cmp.Compare(b.p, a.p)
	})
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d possible draws; most likely:\n", len(draws))
	for _, s := range all {
		shape := classifier.ShapeOf(s.draw, pop.NumCategories())
		fmt.Fprintf(&sb, "  %-36s %-10s %-12s %.6f%%\n", s.draw.Labeled(sc.palette()),
			shape, ev.Table().Classify(shape), s.p*100)
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) next(cmd *shellcmd) (*Response, error) {
	if sc.nextIdx >= len(sc.loaded) {
		return nil, errors.New("no more loaded draws; use load or draw")
	}
	r, err := sc.driver.Step(context.Background(), sc.loaded[sc.nextIdx].Draw)
	// a recorder error still leaves the round played
	if r != nil {
		sc.nextIdx++
	}
	return nil, err
}

func (sc *ShellController) run(cmd *shellcmd) (*Response, error) {
	if sc.nextIdx >= len(sc.loaded) {
		return nil, errors.New("no more loaded draws; use load or draw")
	}
	out, err := sc.driver.Run(context.Background(), drawio.Draws(sc.loaded[sc.nextIdx:]))
	sc.nextIdx += len(out)
	if err != nil {
		return nil, err
	}
	return nil, sc.console.Summary(sc.driver.Summary())
}

func (sc *ShellController) draw(cmd *shellcmd) (*Response, error) {
	d, err := parseCounts(cmd.args, sc.palette())
	if err != nil {
		return nil, err
	}
	_, err = sc.driver.Step(context.Background(), d)
	return nil, err
}

func (sc *ShellController) summary(cmd *shellcmd) (*Response, error) {
	if len(sc.driver.Results()) == 0 {
		return msg("No rounds recorded yet."), nil
	}
	return nil, sc.console.Summary(sc.driver.Summary())
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("save <file> [-format csv|sqlite]")
	}
	format := cmd.options.String("format")
	if format == "" {
		format = sc.config.GetString(config.ConfigOutputFormat)
	}
	w, err := report.OpenRoundWriter(format, cmd.args[0], sc.palette())
	if err != nil {
		return nil, err
	}
	results := sc.driver.Results()
	for _, r := range results {
		if err := w.RecordRound(r); err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("Saved %d rounds to %s", len(results), cmd.args[0])), nil
}

func (sc *ShellController) reset(cmd *shellcmd) (*Response, error) {
	sc.driver.Reset()
	sc.nextIdx = 0
	return msg("Session reset."), nil
}
