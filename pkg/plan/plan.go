// Package plan derives the order in which a crew's tasks would run.
//
// Unlike the canvas leveler, planning is strict: every link must join two
// known agents and the task graph must be acyclic. Tasks are emitted agent by
// agent in topological order; each agent contributes its outgoing links in
// diagram order.
package plan

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/matzehuels/crewboard/pkg/dag"
	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
)

// DefaultDescription is used for links without a task description.
const DefaultDescription = "Perform a task"

// Step is one task: the From agent works and hands its result to To.
type Step struct {
	LinkID         string `json:"link_id,omitempty"`
	From           string `json:"from"`
	To             string `json:"to"`
	FromRole       string `json:"from_role"`
	ToRole         string `json:"to_role"`
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output"`
}

// Plan is the ordered task list of a diagram.
type Plan struct {
	Order    []string `json:"order"`    // Agents in topological order
	Steps    []Step   `json:"steps"`    // Tasks in execution order
	Branches int      `json:"branches"` // Number of independent starting agents
}

// Build computes the execution plan of d.
//
// Only agents that take part in at least one link are planned. It returns an
// ErrCodeInvalidDiagram error when a link references an unknown node and an
// ErrCodeCyclicDiagram error when the links form a cycle.
func Build(d *diagram.Diagram) (*Plan, error) {
	used := make(map[string]bool, len(d.Nodes))
	for _, l := range d.Links {
		used[l.From] = true
		used[l.To] = true
	}

	g := dag.New(dag.Metadata{"name": d.Name})
	nodes := make(map[string]diagram.Node, len(d.Nodes))
	for _, n := range d.Nodes {
		if !used[n.Key] {
			continue
		}
		if err := g.AddNode(dag.Node{ID: n.Key, Meta: dag.Metadata{"role": n.Role}}); err != nil {
			if stderrors.Is(err, dag.ErrDuplicateNodeID) {
				return nil, errors.New(errors.ErrCodeInvalidDiagram, "duplicate node key %q", n.Key)
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "node %q", n.Key)
		}
		nodes[n.Key] = n
	}

	links := make(map[string][]diagram.Link, len(d.Links))
	for _, l := range d.Links {
		if err := g.AddEdge(dag.Edge{From: l.From, To: l.To}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDiagram, err, "link %s -> %s", l.From, l.To)
		}
		links[l.From] = append(links[l.From], l)
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCyclicDiagram, err, "the task graph contains cycles, no task order exists")
	}

	p := &Plan{Order: order, Steps: []Step{}, Branches: len(g.Sources())}
	for _, key := range order {
		for _, l := range links[key] {
			desc := l.Description
			if strings.TrimSpace(desc) == "" {
				desc = DefaultDescription
			}
			p.Steps = append(p.Steps, Step{
				LinkID:         l.ID,
				From:           l.From,
				To:             l.To,
				FromRole:       nodes[l.From].Label(),
				ToRole:         nodes[l.To].Label(),
				Description:    desc,
				ExpectedOutput: l.ExpectedOutput,
			})
		}
	}
	return p, nil
}

// Markdown renders a human-readable brief of the diagram and its plan.
// A nil plan renders the agent table only.
func Markdown(d *diagram.Diagram, p *Plan) string {
	var b strings.Builder

	title := d.Name
	if title == "" {
		title = "Untitled crew"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if d.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Description)
	}
	if d.ChatInput != "" {
		fmt.Fprintf(&b, "> %s\n\n", d.ChatInput)
	}

	agents := d.Agents()
	if len(agents) > 0 {
		b.WriteString("| Agent | Role | Goal | Tools |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, n := range agents {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				cell(n.Key), cell(n.Role), cell(n.Goal), cell(strings.Join(n.Tools, ", ")))
		}
		b.WriteString("\n")
	}

	if p == nil {
		return b.String()
	}
	if len(p.Steps) == 0 {
		b.WriteString("_No tasks._\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d tasks, %d starting branch(es).\n\n", len(p.Steps), p.Branches)
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, s.FromRole)
		fmt.Fprintf(&b, "### %s\n\n", s.Description)
		fmt.Fprintf(&b, "Hands off to **%s**.\n\n", s.ToRole)
		if s.ExpectedOutput != "" {
			fmt.Fprintf(&b, "Expected output: %s\n\n", s.ExpectedOutput)
		}
	}
	return b.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}
