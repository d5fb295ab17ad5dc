package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/zhuliguang/Sidekick/internal/api/client"
	"github.com/zhuliguang/Sidekick/internal/engine"
)

func statusCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show reference data status",
		Long: "Shows the reference data state of a running server. Without\n" +
			"--server, runs one sync in-process and reports the result.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, wait)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", defaultWait, "how long to wait for reference data")

	return cmd
}

func runStatus(cmd *cobra.Command, wait time.Duration) error {
	var st *apiclient.StatusResponse

	if c := remoteClient(); c != nil {
		var err error
		if st, err = c.Status(cmd.Context()); err != nil {
			return err
		}
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		err = withLocalEngine(cmd.Context(), cfg, wait, func(_ context.Context, eng *engine.Engine) error {
			st = statusResponse(eng.Status())
			return nil
		})
		if err != nil {
			return err
		}
	}

	if jsonOutput() {
		return outputJSON(cmd.OutOrStdout(), st)
	}
	return printStatusDetail(cmd.OutOrStdout(), st)
}

func statusResponse(st engine.Status) *apiclient.StatusResponse {
	return &apiclient.StatusResponse{
		State:          st.State,
		Ready:          st.Ready,
		Busy:           st.Busy,
		Leagues:        st.Leagues,
		SelectedLeague: st.SelectedLeague,
	}
}

func resyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Make a running server refetch its reference data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := remoteClient()
			if c == nil {
				return errNeedsServer
			}
			if err := c.Resync(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Reference data sync started")
			return err
		},
	}
}
