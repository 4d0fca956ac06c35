package crag

import (
	"github.com/smallnest/fincrag/rag"
)

// Node names the steps of the pipeline.
type Node string

const (
	NodeRetrieve  Node = "retrieve"
	NodeAssess    Node = "assess"
	NodeWebSearch Node = "web_search"
	NodeGenerate  Node = "generate"
	NodeDone      Node = "done"
)

// WebKind tells how the web search step ended.
type WebKind int

const (
	// WebSkipped means the web search step did not run.
	WebSkipped WebKind = iota
	// WebOK means the searcher returned results.
	WebOK
	// WebDisabled means no searcher is configured.
	WebDisabled
	// WebFailed means the searcher returned an error.
	WebFailed
)

func (k WebKind) String() string {
	switch k {
	case WebSkipped:
		return "skipped"
	case WebOK:
		return "ok"
	case WebDisabled:
		return "disabled"
	case WebFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WebResult is the outcome of the web search step. It never carries a
// run-level failure: Err is informational and already folded into Text.
type WebResult struct {
	Kind    WebKind
	Content string
	Err     error
}

// Text is the string the generate step sees as web results.
func (w WebResult) Text() string {
	switch w.Kind {
	case WebOK:
		return w.Content
	case WebDisabled:
		return DisabledPlaceholder
	case WebFailed:
		if w.Err == nil {
			return "[Error: unknown]"
		}
		return "[Error: " + w.Err.Error() + "]"
	default:
		return ""
	}
}

// Populated reports whether the step produced real search content.
// Placeholders for a disabled or failed search do not count.
func (w WebResult) Populated() bool {
	return w.Kind == WebOK && w.Content != ""
}

// RunState is the private state of a single pipeline run.
type RunState struct {
	RunID     string
	Question  string
	Ticker    string
	Documents []rag.Document
	Quality   Quality

	Web WebResult
	// WebResults mirrors Web.Text() once the web search step has run.
	WebResults string

	Context string
	Answer  string
}

// UsedWeb reports whether real web content reached the generator.
func (s *RunState) UsedWeb() bool {
	return s.Web.Populated()
}
