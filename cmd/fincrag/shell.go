package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/smallnest/fincrag/crag"
	"github.com/smallnest/fincrag/session"
	"github.com/smallnest/fincrag/store"
)

// querier is the part of session.Manager the shell drives.
type querier interface {
	Setup(ctx context.Context, ticker string) error
	Query(ctx context.Context, question, ticker string) (*session.Result, error)
}

// shell is the interactive line interface.
type shell struct {
	manager querier
	journal store.CheckpointStore
	tracer  *crag.Tracer
	in      io.Reader
	out     io.Writer

	ticker  string
	lastRun string
}

func newShell(manager querier, journal store.CheckpointStore, tracer *crag.Tracer, in io.Reader, out io.Writer) *shell {
	return &shell{manager: manager, journal: journal, tracer: tracer, in: in, out: out}
}

// run reads commands until exit or end of input.
func (s *shell) run(ctx context.Context) error {
	fmt.Fprintln(s.out, banner())

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, prompt(s.ticker))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if !s.handle(ctx, scanner.Text()) {
			fmt.Fprintln(s.out, okStyle.Render("👋 Bye!"))
			return nil
		}
	}
}

// handle executes one input line and reports whether the shell keeps going.
func (s *shell) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	cmd, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	switch strings.ToLower(cmd) {
	case "exit", "quit":
		return false
	case "help":
		fmt.Fprintln(s.out, helpPanel())
	case "setup":
		s.setup(ctx, args)
	case "query":
		s.query(ctx, args)
	case "history":
		s.history(ctx, args)
	case "trace":
		s.trace(args)
	default:
		if s.ticker != "" {
			s.query(ctx, line)
		} else {
			fmt.Fprintln(s.out, errStyle.Render("Unknown command. Try 'help'"))
		}
	}
	return true
}

func (s *shell) setup(ctx context.Context, args string) {
	ticker := session.NormalizeTicker(args)
	if ticker == "" {
		fmt.Fprintln(s.out, errStyle.Render("❌ Provide ticker"))
		return
	}

	fmt.Fprintln(s.out, dimStyle.Render("Loading "+ticker+"..."))
	if err := s.manager.Setup(ctx, ticker); err != nil {
		fmt.Fprintln(s.out, renderError(err))
		return
	}
	s.ticker = ticker
	fmt.Fprintln(s.out, okStyle.Render("✅ "+ticker+" ready!")+"\n")
}

func (s *shell) query(ctx context.Context, question string) {
	if s.ticker == "" {
		fmt.Fprintln(s.out, warnStyle.Render("⚠️ Run 'setup <TICKER>' first"))
		return
	}
	if question == "" {
		fmt.Fprintln(s.out, errStyle.Render("❌ Provide question"))
		return
	}

	fmt.Fprintln(s.out, dimStyle.Render("Thinking..."))
	res, err := s.manager.Query(ctx, question, s.ticker)
	if err != nil {
		fmt.Fprintln(s.out, renderError(err))
		return
	}
	s.lastRun = res.RunID
	fmt.Fprintln(s.out, renderResult(res))
}

func (s *shell) history(ctx context.Context, runID string) {
	if s.journal == nil {
		fmt.Fprintln(s.out, warnStyle.Render("Run journal is disabled (journal.driver=none)"))
		return
	}
	if runID == "" {
		runID = s.lastRun
	}
	if runID == "" {
		fmt.Fprintln(s.out, warnStyle.Render("No run yet"))
		return
	}

	cps, err := s.journal.List(ctx, runID)
	if err != nil && !errors.Is(err, store.ErrCheckpointNotFound) {
		fmt.Fprintln(s.out, renderError(err))
		return
	}
	fmt.Fprintln(s.out, renderCheckpoints(runID, cps))
}

func (s *shell) trace(runID string) {
	if s.tracer == nil {
		fmt.Fprintln(s.out, warnStyle.Render("Tracing is disabled"))
		return
	}
	if runID == "" {
		runID = s.lastRun
	}
	if runID == "" {
		fmt.Fprintln(s.out, warnStyle.Render("No run yet"))
		return
	}
	fmt.Fprintln(s.out, renderSpans(runID, s.tracer.GetSpans(runID)))
}
