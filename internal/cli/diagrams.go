package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/layout"
	"github.com/matzehuels/crewboard/pkg/store"
)

// diagramsCommand creates the diagrams command for managing the library.
func (c *CLI) diagramsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diagrams",
		Aliases: []string{"library"},
		Short:   "Manage the library of saved diagrams",
		Long: `Manage the library of saved diagrams.

The library is the same one the HTTP API serves: a directory of JSON files by
default, or a SQLite or MongoDB backend selected in the [store] section of
the config.`,
	}

	cmd.AddCommand(c.diagramsListCommand())
	cmd.AddCommand(c.diagramsShowCommand())
	cmd.AddCommand(c.diagramsSaveCommand())
	cmd.AddCommand(c.diagramsDeleteCommand())
	cmd.AddCommand(c.diagramsBrowseCommand())

	return cmd
}

// diagramsListCommand creates the "diagrams list" subcommand.
func (c *CLI) diagramsListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved diagrams",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.List(ctx)
			if err != nil {
				return fmt.Errorf("list diagrams: %w", err)
			}
			if asJSON {
				if entries == nil {
					entries = []store.Entry{}
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				printInfo("No saved diagrams")
				return nil
			}
			printEntries(entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

// diagramsShowCommand creates the "diagrams show" subcommand.
func (c *CLI) diagramsShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [filename]",
		Short: "Print a saved diagram's levels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return diagram.Write(d, stdout)
			}
			showDiagram(args[0], d)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored diagram")
	return cmd
}

// diagramsSaveCommand creates the "diagrams save" subcommand.
func (c *CLI) diagramsSaveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save [diagram.json]",
		Short: "Save a diagram file to the library",
		Long: `Save a diagram file to the library.

The library filename is derived from --name, the diagram's own name or the
file's base name, in that order. Spaces become underscores and an existing
diagram with the same filename is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDiagram(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = d.Name
			}
			if name == "" {
				name = filepath.Base(basePath(args[0]))
			}

			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			filename, err := st.Save(ctx, name, d)
			if err != nil {
				return err
			}
			printSuccess("Diagram saved")
			printFile(filename)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "library name (default: diagram name)")
	return cmd
}

// diagramsDeleteCommand creates the "diagrams delete" subcommand.
func (c *CLI) diagramsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [filename]",
		Aliases: []string{"rm"},
		Short:   "Delete a saved diagram",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}

// diagramsBrowseCommand creates the "diagrams browse" subcommand.
func (c *CLI) diagramsBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Pick a saved diagram interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context())
		},
	}
}

func (c *CLI) runBrowse(ctx context.Context) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("list diagrams: %w", err)
	}
	if len(entries) == 0 {
		printInfo("No saved diagrams")
		return nil
	}

	p := tea.NewProgram(NewDiagramListModel(entries), tea.WithContext(ctx), tea.WithOutput(stderr))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run picker: %w", err)
	}
	m, ok := final.(DiagramListModel)
	if !ok || m.Selected == nil {
		return nil
	}

	d, err := st.Get(ctx, m.Selected.Filename)
	if err != nil {
		return err
	}
	showDiagram(m.Selected.Filename, d)
	printNewline()
	printNextStep("Export", appName+" diagrams show "+m.Selected.Filename+" --json")
	return nil
}

// showDiagram prints a summary of d and its levels.
func showDiagram(filename string, d *diagram.Diagram) {
	d.Normalize()
	printKeyValue("File", filename)
	if d.Name != "" {
		printKeyValue("Name", d.Name)
	}
	if d.Description != "" {
		printKeyValue("Description", d.Description)
	}
	printKeyValue("Agents", fmt.Sprint(len(d.Agents())))
	printKeyValue("Links", fmt.Sprint(len(d.Links)))
	printNewline()
	printLevels(layout.Assign(d.LayoutInput()))
}
