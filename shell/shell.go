package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/config"
	"github.com/bagodds/bagodds/drawio"
	"github.com/bagodds/bagodds/report"
	"github.com/bagodds/bagodds/session"
	"github.com/bagodds/bagodds/tilemapping"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
)

type ShellController struct {
	l        *readline.Instance
	out      io.Writer
	config   *config.Config
	execPath string

	driver  *session.Driver
	dist    *tilemapping.TileDistribution
	console *report.Console

	// draws loaded from a draw log, and the index of the next one to play
	loaded  []drawio.Record
	nextIdx int
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// NewShellController starts a session from the config and attaches a
// readline prompt.
func NewShellController(cfg *config.Config, execPath string) (*ShellController, error) {
	completer := &ShellCompleter{}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mbagodds>\033[0m ",
		HistoryFile:     "/tmp/bagodds-readline.tmp",
		AutoComplete:    completer,
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc, err := newController(cfg, execPath, l.Stdout())
	if err != nil {
		l.Close()
		return nil, err
	}
	sc.l = l
	completer.sc = sc
	return sc, nil
}

func newController(cfg *config.Config, execPath string, out io.Writer) (*ShellController, error) {
	driver, td, err := session.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	sc := &ShellController{
		out:      out,
		config:   cfg,
		execPath: execPath,
		driver:   driver,
		dist:     td,
		console:  report.NewConsole(out),
	}
	driver.AddRecorder(sc.console)
	return sc, nil
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// extractFields splits a line into a command, its positional arguments, and
// its -option value pairs.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") && len(fields[idx]) > 1 {
			if _, err := strconv.Atoi(fields[idx]); err == nil {
				// a negative number is an argument
				args = append(args, fields[idx])
				continue
			}
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := fields[idx][1:]
			options[key] = append(options[key], fields[idx+1])
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) handle(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "help", "h":
		return sc.help(cmd)
	case "load":
		return sc.load(cmd)
	case "bag", "b":
		return sc.bag(cmd)
	case "dist", "d":
		return sc.distribution(cmd)
	case "prob":
		return sc.prob(cmd)
	case "list":
		return sc.list(cmd)
	case "next", "n":
		return sc.next(cmd)
	case "run":
		return sc.run(cmd)
	case "draw":
		return sc.draw(cmd)
	case "summary":
		return sc.summary(cmd)
	case "save":
		return sc.save(cmd)
	case "reset":
		return sc.reset(cmd)
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line.
func (sc *ShellController) Execute(line string) {
	resp, err := sc.handle(line)
	if err != nil {
		sc.showError(err)
	} else if resp != nil {
		sc.showMessage(resp.message)
	}
}

// Cleanup releases the terminal.
func (sc *ShellController) Cleanup() {
	if sc.l != nil {
		sc.l.Close()
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.Cleanup()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		log.Debug().Msgf("you said: %v", strconv.Quote(line))

		if line == "exit" {
			sig <- syscall.SIGINT
			break
		}
		sc.Execute(line)
	}
	log.Debug().Msgf("Exiting readline loop...")
}
