package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/internal/mcpserver"
)

// mcpCommand creates the mcp command that serves tools over stdio.
func (c *CLI) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve layout and planning tools over MCP (stdio)",
		Long: `Serve layout and planning tools over the Model Context Protocol.

The server speaks JSON-RPC on stdin and stdout, so logs always go to stderr.
Tools: layout_diagram, execution_plan, list_diagrams and get_diagram.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger(os.Stderr, c.Logger.GetLevel())

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := c.newRunner(ctx, false, scopeMCP)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			defaults, err := c.pipelineOptions()
			if err != nil {
				return err
			}

			srv := mcpserver.New(st, runner,
				mcpserver.WithLogger(logger),
				mcpserver.WithLayoutDefaults(defaults))
			logger.Debug("serving MCP on stdio", "store", st.Backend())
			return srv.ServeStdio()
		},
	}
}
