package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestlayout/pkg/server"
	"github.com/matzehuels/nestlayout/pkg/store"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noRuns  bool
		maxBody int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted.

  GET  /healthz         liveness and version
  POST /v1/layout       lay out a graph or raw input
  POST /v1/metrics      score an annotated layout
  GET  /v1/runs         list stored batch runs
  GET  /v1/runs/{id}    one stored run

The server shares the layout cache and run store of the other commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			var st store.Store
			if !noRuns {
				if st, err = c.newStore(ctx); err != nil {
					return err
				}
				defer st.Close()
			}

			srv := server.New(server.Config{
				Runner:       runner,
				Store:        st,
				Logger:       c.Logger,
				MaxBodyBytes: maxBody,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noRuns, "no-runs", false, "do not serve stored batch runs")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum request body in bytes")

	return cmd
}
