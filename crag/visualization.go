package crag

import (
	"fmt"
	"strings"
)

// Edge is a possible transition of the pipeline.
type Edge struct {
	From  Node
	To    Node
	Label string
}

// Transitions lists every transition the orchestrator can take.
func Transitions() []Edge {
	return []Edge{
		{From: NodeRetrieve, To: NodeAssess},
		{From: NodeAssess, To: NodeGenerate, Label: QualityCorrect.String()},
		{From: NodeAssess, To: NodeWebSearch, Label: QualityAmbiguous.String() + " / " + QualityIncorrect.String()},
		{From: NodeWebSearch, To: NodeGenerate},
		{From: NodeGenerate, To: NodeDone},
	}
}

// DrawMermaid renders the pipeline as a Mermaid flowchart.
func DrawMermaid() string {
	var sb strings.Builder

	sb.WriteString("flowchart TD\n")
	sb.WriteString("    START([\"START\"])\n")
	sb.WriteString("    style START fill:#90EE90\n")
	sb.WriteString(fmt.Sprintf("    START --> %s\n", NodeRetrieve))
	sb.WriteString(fmt.Sprintf("    %s{\"%s\"}\n", NodeAssess, NodeAssess))
	sb.WriteString(fmt.Sprintf("    %s([\"END\"])\n", NodeDone))
	sb.WriteString(fmt.Sprintf("    style %s fill:#FFB6C1\n", NodeDone))

	for _, e := range Transitions() {
		if e.Label != "" {
			sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", e.From, e.Label, e.To))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", e.From, e.To))
		}
	}
	return sb.String()
}

// DrawDOT renders the pipeline in Graphviz DOT.
func DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph crag {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")
	sb.WriteString("    START [label=\"START\", shape=ellipse, style=filled, fillcolor=lightgreen];\n")
	sb.WriteString(fmt.Sprintf("    START -> %s;\n", NodeRetrieve))
	sb.WriteString(fmt.Sprintf("    %s [shape=diamond, style=filled, fillcolor=lightyellow];\n", NodeAssess))
	sb.WriteString(fmt.Sprintf("    %s [label=\"END\", shape=ellipse, style=filled, fillcolor=lightpink];\n", NodeDone))

	for _, e := range Transitions() {
		if e.Label != "" {
			sb.WriteString(fmt.Sprintf("    %s -> %s [label=\"%s\"];\n", e.From, e.To, e.Label))
		} else {
			sb.WriteString(fmt.Sprintf("    %s -> %s;\n", e.From, e.To))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
