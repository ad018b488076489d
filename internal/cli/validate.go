package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/plan"
)

// errInvalid is returned by validate when problems were reported, so the
// process exits non-zero without printing the problems twice.
var errInvalid = errors.New(errors.ErrCodeInvalidDiagram, "diagram is invalid")

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		fix    bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "validate [diagram.json]",
		Short: "Report structural problems in a diagram",
		Long: `Report structural problems in a diagram.

Errors are empty or duplicate node keys, links with unknown endpoints and more
than one output node. Warnings are conditions the editor tolerates but that
block planning or leave agents unconnected: cycles, a missing output node and
agents without links.

With --fix, an output node is added when missing, every agent without an
outgoing link is connected to it and the result is written back (or to -o).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDiagram(args[0])
			if err != nil {
				return err
			}

			problems := validationErrors(d)
			for _, p := range problems {
				printError("%s", p)
			}
			warnings := validationWarnings(d)
			for _, w := range warnings {
				printWarning("%s", w)
			}
			if len(problems) > 0 {
				return errInvalid
			}

			if fix {
				added := d.EnsureOutput()
				path := output
				if path == "" {
					path = args[0]
				}
				if err := diagram.WriteFile(d, path); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printSuccess("Connected %d agent(s) to the output", added)
				printFile(path)
				return nil
			}

			if len(warnings) == 0 {
				printSuccess("%s is valid", args[0])
			} else {
				printSuccess("%s is valid with %d warning(s)", args[0], len(warnings))
			}
			printDetail("%d nodes · %d links", len(d.Nodes), len(d.Links))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "add a missing output node and connect dangling agents")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the fixed diagram here instead of in place")
	return cmd
}

// validationErrors splits the joined validation error into messages.
func validationErrors(d *diagram.Diagram) []string {
	err := d.Validate()
	if err == nil {
		return nil
	}
	var msgs []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, errors.UserMessage(e))
		}
		return msgs
	}
	return []string{errors.UserMessage(err)}
}

// validationWarnings reports problems that do not make the diagram invalid.
func validationWarnings(d *diagram.Diagram) []string {
	var warnings []string
	if _, ok := d.Output(); !ok {
		warnings = append(warnings, "diagram has no output node")
	}

	linked := make(map[string]bool, len(d.Nodes))
	for _, l := range d.Links {
		linked[l.From] = true
		linked[l.To] = true
	}
	for _, n := range d.Nodes {
		if !linked[n.Key] {
			warnings = append(warnings, fmt.Sprintf("node %q has no links and is left out of the plan", n.Key))
		}
	}

	if _, err := plan.Build(d); errors.Is(err, errors.ErrCodeCyclicDiagram) {
		warnings = append(warnings, "links form a cycle, no task order exists")
	}
	return warnings
}
