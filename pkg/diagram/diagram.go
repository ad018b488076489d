package diagram

import (
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/layout"
)

// OutputKey is the conventional key of the output node.
const OutputKey = "output"

// Defaults applied to output nodes and generated links.
const (
	OutputRole      = "Output"
	OutputGoal      = "Collect and format the final output"
	OutputBackstory = "I am responsible for collecting and formatting the final output of the process"

	OutputLinkDescription    = "Send results to the output"
	OutputLinkExpectedOutput = "Final output of this agent"
)

// Node is an agent (or the output collector) in a crew diagram.
type Node struct {
	Key       string   `json:"key" yaml:"key"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Role      string   `json:"role" yaml:"role"`
	Goal      string   `json:"goal,omitempty" yaml:"goal,omitempty"`
	Backstory string   `json:"backstory,omitempty" yaml:"backstory,omitempty"`
	File      string   `json:"file,omitempty" yaml:"file,omitempty"`
	Type      string   `json:"type,omitempty" yaml:"type,omitempty"`
	Category  string   `json:"category,omitempty" yaml:"category,omitempty"`
	Tools     []string `json:"tools" yaml:"tools"`
}

// IsOutput reports whether the node is an output collector.
func (n Node) IsOutput() bool {
	return n.Key == OutputKey || n.Role == OutputKey
}

// Label returns the text shown for the node: its role, name or key.
func (n Node) Label() string {
	switch {
	case n.Role != "":
		return n.Role
	case n.Name != "":
		return n.Name
	default:
		return n.Key
	}
}

// Link is a task edge: From performs a task whose result feeds To.
type Link struct {
	ID             string `json:"id,omitempty" yaml:"id,omitempty"`
	From           string `json:"from" yaml:"from"`
	To             string `json:"to" yaml:"to"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty" yaml:"expected_output,omitempty"`
	Relationship   string `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	Type           string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Diagram is a complete crew workflow.
type Diagram struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	Links       []Link `json:"links" yaml:"links"`
	ChatInput   string `json:"chatInput,omitempty" yaml:"chatInput,omitempty"`
	LLM         string `json:"llm,omitempty" yaml:"llm,omitempty"`
}

// Node returns the node with the given key.
func (d *Diagram) Node(key string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return Node{}, false
}

// Output returns the first output node.
func (d *Diagram) Output() (Node, bool) {
	for _, n := range d.Nodes {
		if n.IsOutput() {
			return n, true
		}
	}
	return Node{}, false
}

// Agents returns the non-output nodes in diagram order.
func (d *Diagram) Agents() []Node {
	agents := make([]Node, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if !n.IsOutput() {
			agents = append(agents, n)
		}
	}
	return agents
}

// LayoutInput converts the diagram to the leveler's node and edge lists.
func (d *Diagram) LayoutInput() ([]layout.Node, []layout.Edge) {
	nodes := make([]layout.Node, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = layout.Node{Key: n.Key, Output: n.IsOutput()}
	}
	edges := make([]layout.Edge, len(d.Links))
	for i, l := range d.Links {
		edges[i] = layout.Edge{From: l.From, To: l.To}
	}
	return nodes, edges
}

// Normalize fills in the defaults the editor applies when a diagram is loaded.
func (d *Diagram) Normalize() {
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.Tools == nil {
			n.Tools = []string{}
		}
		if !n.IsOutput() {
			continue
		}
		if n.Role == "" {
			n.Role = OutputRole
		}
		if n.Goal == "" {
			n.Goal = OutputGoal
		}
		if n.Backstory == "" {
			n.Backstory = OutputBackstory
		}
	}
	for i := range d.Links {
		if d.Links[i].ID == "" {
			d.Links[i].ID = d.Links[i].From + "-" + d.Links[i].To
		}
	}
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Links == nil {
		d.Links = []Link{}
	}
}

// EnsureOutput adds an output node if the diagram has none and links every
// agent without an outgoing link to it. It returns the number of links added.
func (d *Diagram) EnsureOutput() int {
	out, ok := d.Output()
	if !ok {
		out = Node{
			Key:       OutputKey,
			Role:      OutputRole,
			Goal:      OutputGoal,
			Backstory: OutputBackstory,
			Tools:     []string{},
		}
		d.Nodes = append(d.Nodes, out)
	}

	hasOutgoing := make(map[string]bool, len(d.Links))
	for _, l := range d.Links {
		hasOutgoing[l.From] = true
	}

	added := 0
	for _, n := range d.Nodes {
		if n.IsOutput() || hasOutgoing[n.Key] {
			continue
		}
		d.Links = append(d.Links, Link{
			ID:             fmt.Sprintf("link_%s_output", n.Key),
			From:           n.Key,
			To:             out.Key,
			Description:    OutputLinkDescription,
			ExpectedOutput: OutputLinkExpectedOutput,
		})
		added++
	}
	return added
}

// Validate reports every structural problem in the diagram.
// The returned error joins one coded error per problem, or is nil.
func (d *Diagram) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(d.Nodes))
	outputs := 0
	for i, n := range d.Nodes {
		if err := errors.ValidateNodeKey(n.Key); err != nil {
			errs = append(errs, errors.New(errors.ErrCodeInvalidDiagram, "node %d: %s", i, errors.UserMessage(err)))
			continue
		}
		if seen[n.Key] {
			errs = append(errs, errors.New(errors.ErrCodeInvalidDiagram, "duplicate node key %q", n.Key))
		}
		seen[n.Key] = true
		if n.IsOutput() {
			outputs++
		}
	}
	if outputs > 1 {
		errs = append(errs, errors.New(errors.ErrCodeInvalidDiagram, "diagram has %d output nodes, want at most one", outputs))
	}
	for i, l := range d.Links {
		switch {
		case l.From == "" || l.To == "":
			errs = append(errs, errors.New(errors.ErrCodeInvalidDiagram, "link %d: missing endpoint", i))
		case !seen[l.From]:
			errs = append(errs, errors.New(errors.ErrCodeInvalidDiagram, "link %s: unknown source node %q", linkName(i, l), l.From))
		case !seen[l.To]:
			errs = append(errs, errors.New(errors.ErrCodeInvalidDiagram, "link %s: unknown target node %q", linkName(i, l), l.To))
		}
	}
	return stderrors.Join(errs...)
}

func linkName(i int, l Link) string {
	if l.ID != "" {
		return fmt.Sprintf("%q", l.ID)
	}
	return fmt.Sprintf("%d", i)
}
