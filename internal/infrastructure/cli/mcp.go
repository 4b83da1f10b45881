package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/fareview/internal/infrastructure/mcp"
)

var (
	mcpTransport string
	mcpAddr      string
	mcpFlags     providerFlags
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Fareview MCP server",
	Long: `Mcp exposes report analysis, the rubric and the analysis history as MCP tools
and resources so AI assistants can score reports on your behalf.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("FAREVIEW_SKIP_MCP_START") == "true" {
			return nil
		}
		app, root, err := loadApp(mcpFlags)
		if err != nil {
			return err
		}
		defer app.Close()

		inframcp.Version, inframcp.BuildCommit, inframcp.BuildDate = Version, Commit, Date
		server := inframcp.NewServer(root, app)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		switch strings.ToLower(mcpTransport) {
		case "stdio", "":
			return server.ServeStdio(ctx)
		case "http":
			return server.ServeHTTP(ctx, mcpAddr)
		default:
			return NewCLIError(fmt.Sprintf("unsupported transport: %s", mcpTransport), "Use --transport stdio or --transport http", nil)
		}
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8080", "Address for the http transport")
	addProviderFlags(mcpCmd, &mcpFlags)
	RootCmd.AddCommand(mcpCmd)
}
