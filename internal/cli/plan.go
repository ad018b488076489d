package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/pkg/plan"
)

// planCommand creates the plan command that prints the task order.
func (c *CLI) planCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan [diagram.json]",
		Short: "Print the order in which the crew's tasks run",
		Long: `Print the order in which the crew's tasks run.

Agents are ordered topologically; each agent contributes its outgoing links in
diagram order. Unlike layout, planning is strict: links must join known agents
and the task graph must not contain cycles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDiagram(args[0])
			if err != nil {
				return err
			}
			p, err := plan.Build(d)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("built plan", "steps", len(p.Steps), "branches", p.Branches)

			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			printInfo("%s: %d tasks, %d starting branch(es)", displayTitle(d.Name, args[0]), len(p.Steps), p.Branches)
			printNewline()
			printPlan(p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}

// describeCommand creates the describe command that prints a markdown brief.
func (c *CLI) describeCommand() *cobra.Command {
	var (
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "describe [diagram.json]",
		Short: "Print a markdown brief of the crew and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDiagram(args[0])
			if err != nil {
				return err
			}
			p, err := plan.Build(d)
			if err != nil {
				// The brief still lists the agents of an unplannable crew.
				loggerFromContext(cmd.Context()).Warn("no task order", "error", err)
				p = nil
			}

			md := plan.Markdown(d, p)
			if raw {
				_, err := fmt.Fprint(stdout, md)
				return err
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
			if err != nil {
				return fmt.Errorf("create markdown renderer: %w", err)
			}
			out, err := r.Render(md)
			if err != nil {
				return fmt.Errorf("render markdown: %w", err)
			}
			_, err = fmt.Fprint(stdout, out)
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print plain markdown")
	cmd.Flags().IntVar(&width, "width", 100, "wrap width for styled output")
	return cmd
}

func displayTitle(name, path string) string {
	if name != "" {
		return name
	}
	return path
}
