// fincrag answers questions about a stock with a corrective RAG pipeline.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallnest/fincrag/config"
	"github.com/smallnest/fincrag/crag"
	"github.com/smallnest/fincrag/log"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

// cli holds what the persistent pre-run loaded.
type cli struct {
	configFile string
	envFile    string
	logLevel   string

	cfg    *config.Config
	logger log.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "fincrag",
		Short: "Financial corrective RAG: ask questions about a stock",
		Long: `fincrag loads the fundamentals and recent news of a ticker, then answers
questions about it. Each answer is graded first; when the local documents are
not enough, a web search fills the gap before the answer is generated.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
		RunE:              c.runShell,
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file path (YAML)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive shell (default)",
			Args:  cobra.NoArgs,
			RunE:  c.runShell,
		},
		c.askCmd(),
		c.historyCmd(),
		graphCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg
	c.logger = newLogger(cfg.Log.Level)
	log.SetDefaultLogger(c.logger)
	return nil
}

// checkCredentials prints the startup credential report and fails when a
// required one is missing.
func (c *cli) checkCredentials(cmd *cobra.Command) error {
	var missing, optional []string
	for _, cred := range c.cfg.Credentials() {
		switch {
		case cred.Set:
		case cred.Required:
			missing = append(missing, cred.Name)
		default:
			optional = append(optional, cred.Name)
		}
	}
	out := cmd.OutOrStdout()
	if len(missing) > 0 {
		return fmt.Errorf("missing: %s", strings.Join(missing, ", "))
	}
	if len(optional) > 0 {
		fmt.Fprintln(out, warnStyle.Render("⚠️ Missing "+strings.Join(optional, ", ")+": web search disabled"))
	}
	fmt.Fprintln(out, okStyle.Render("✅ API keys OK")+"\n")
	return nil
}

func (c *cli) runShell(cmd *cobra.Command, args []string) error {
	if err := c.checkCredentials(cmd); err != nil {
		return err
	}
	rt, err := buildRuntime(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer rt.close()

	return newShell(rt.manager, rt.journal, rt.tracer, cmd.InOrStdin(), cmd.OutOrStdout()).run(cmd.Context())
}

func (c *cli) askCmd() *cobra.Command {
	var (
		format string
		trace  bool
	)
	cmd := &cobra.Command{
		Use:   "ask TICKER QUESTION...",
		Short: "Load a ticker and answer one question",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "html" {
				return fmt.Errorf("unknown format %q (text, html)", format)
			}
			rt, err := buildRuntime(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer rt.close()

			ticker := args[0]
			if err := rt.manager.Setup(cmd.Context(), ticker); err != nil {
				return err
			}
			res, err := rt.manager.Query(cmd.Context(), strings.Join(args[1:], " "), "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "html" {
				page, err := renderHTML(rt.manager.Current().Ticker, res)
				if err != nil {
					return err
				}
				fmt.Fprint(out, page)
				return nil
			}
			fmt.Fprintln(out, renderResult(res))
			if trace {
				fmt.Fprintln(out, renderSpans(res.RunID, rt.tracer.GetSpans(res.RunID)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or html")
	cmd.Flags().BoolVar(&trace, "trace", false, "print the trace spans of the run after the answer")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history RUN_ID",
		Short: "List the journal checkpoints of a run",
		Long: `history prints the checkpoint saved after each node of a run. It needs a
persistent journal (journal.driver file, redis, sqlite or postgres).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.cfg.Journal.Driver {
			case "none", "memory":
				return errors.New("history needs a persistent journal (file, redis, sqlite, postgres)")
			}
			journal, closeJournal, err := openJournal(cmd.Context(), c.cfg.Journal)
			if err != nil {
				return err
			}
			defer closeJournal()

			cps, err := journal.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCheckpoints(args[0], cps))
			return nil
		},
	}
}

func graphCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the pipeline state machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "mermaid":
				fmt.Fprint(cmd.OutOrStdout(), crag.DrawMermaid())
			case "dot":
				fmt.Fprint(cmd.OutOrStdout(), crag.DrawDOT())
			default:
				return fmt.Errorf("unknown format %q (mermaid, dot)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "mermaid", "output format: mermaid or dot")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fincrag %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", date)
		},
	}
}
