package main

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/fincrag/crag"
	"github.com/smallnest/fincrag/session"
	"github.com/smallnest/fincrag/store"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	answerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 1)
	helpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

func banner() string {
	return "\n" + titleStyle.Render("💹 FINANCIAL CRAG SYSTEM") + "\n" +
		dimStyle.Render("Commands: setup <TICKER> | query <Q> | history [RUN_ID] | trace [RUN_ID] | help | exit") + "\n"
}

func helpPanel() string {
	lines := []string{
		labelStyle.Render("Help"),
		"",
		keyStyle.Render("setup TICKER") + "      - Load stock (e.g., setup AAPL)",
		keyStyle.Render("query QUESTION") + "    - Ask about stock",
		keyStyle.Render("history [RUN_ID]") + "  - Show the journal of a run (default: last)",
		keyStyle.Render("trace [RUN_ID]") + "    - Show the trace spans of a run (default: last)",
		keyStyle.Render("help") + "              - Show this",
		keyStyle.Render("exit") + "              - Quit",
		"",
		titleStyle.Render("Examples:"),
		"  • What is the P/E ratio?",
		"  • Why did the stock move today?",
		"  • Recent news?",
	}
	return helpStyle.Render(strings.Join(lines, "\n"))
}

func prompt(ticker string) string {
	if ticker == "" {
		ticker = "CRAG"
	}
	return promptStyle.Render(ticker) + " > "
}

func qualityBadge(q crag.Quality) string {
	label := strings.ToUpper(q.String())
	switch q {
	case crag.QualityCorrect:
		return okStyle.Render("✅ " + label)
	case crag.QualityAmbiguous:
		return warnStyle.Render("⚠️ " + label)
	case crag.QualityIncorrect:
		return errStyle.Render("❌ " + label)
	default:
		return dimStyle.Render("? " + label)
	}
}

func webBadge(used bool) string {
	if used {
		return okStyle.Render("✅")
	}
	return errStyle.Render("❌")
}

func renderResult(res *session.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s\n", labelStyle.Render("Quality:"), qualityBadge(res.Quality))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Web:"), webBadge(res.UsedWeb))
	b.WriteString(answerStyle.Render(labelStyle.Render("Answer") + "\n\n" + res.Answer))
	fmt.Fprintf(&b, "\n%s\n", dimStyle.Render("run "+res.RunID))
	return b.String()
}

func renderError(err error) string {
	return errStyle.Render("❌ Error: " + err.Error())
}

func renderCheckpoints(runID string, cps []*store.Checkpoint) string {
	if len(cps) == 0 {
		return warnStyle.Render("No checkpoints for run " + runID)
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Run "+runID) + "\n")
	for _, cp := range cps {
		status := okStyle.Render("ok")
		if cp.State.Error != "" {
			status = errStyle.Render("error: " + cp.State.Error)
		}
		fmt.Fprintf(&b, "  %02d %-10s quality=%-9s web=%-8s %v %s\n",
			cp.Step, cp.NodeName, cp.State.Quality, cp.State.WebKind, cp.Metadata["duration_ms"], status)
	}
	return b.String()
}

func renderSpans(runID string, spans []*crag.TraceSpan) string {
	if len(spans) == 0 {
		return warnStyle.Render("No trace for run " + runID)
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Trace "+runID) + "\n")
	for _, span := range spans {
		switch span.Event {
		case crag.TraceEventEdgeTraversal:
			fmt.Fprintf(&b, "  %s %s -> %s\n", dimStyle.Render("edge"), span.FromNode, span.ToNode)
		case crag.TraceEventRunStart, crag.TraceEventRunEnd:
			fmt.Fprintf(&b, "  %-4s %-10s %8s quality=%v web=%v%s\n",
				"run", span.Event, span.Duration.Round(time.Millisecond), span.Metadata["quality"], span.Metadata["used_web"], spanError(span))
		default:
			fmt.Fprintf(&b, "  %-4s %-10s %8s %s%s\n",
				"node", span.Node, span.Duration.Round(time.Millisecond), span.Event, spanError(span))
		}
	}
	return b.String()
}

func spanError(span *crag.TraceSpan) string {
	if span.Error == nil {
		return ""
	}
	return " " + errStyle.Render("error: "+span.Error.Error())
}

var answerPage = template.Must(template.New("answer").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Ticker}}: {{.Question}}</title></head>
<body>
<h1>{{.Question}}</h1>
<p>Quality: <strong>{{.Quality}}</strong> &middot; Web: {{if .UsedWeb}}yes{{else}}no{{end}}</p>
<article>{{.Answer}}</article>
</body></html>
`))

// renderHTML renders the answer markdown as a standalone, sanitized page.
func renderHTML(ticker string, res *session.Result) (string, error) {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(res.Answer))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	body := bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer))

	var buf bytes.Buffer
	err := answerPage.Execute(&buf, struct {
		Ticker   string
		Question string
		Quality  string
		UsedWeb  bool
		Answer   template.HTML
	}{
		Ticker:   ticker,
		Question: res.Question,
		Quality:  res.Quality.String(),
		UsedWeb:  res.UsedWeb,
		Answer:   template.HTML(body), // #nosec G203 -- sanitized above
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
