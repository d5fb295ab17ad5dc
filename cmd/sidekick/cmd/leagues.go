package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/zhuliguang/Sidekick/internal/api/client"
	"github.com/zhuliguang/Sidekick/internal/engine"
)

var errNeedsServer = errors.New("command needs --server")

func leaguesCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "leagues",
		Short: "List leagues",
		Long:  "Lists the leagues from the reference data. The selected league is marked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLeagues(cmd, wait)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", defaultWait, "how long to wait for reference data")

	cmd.AddCommand(&cobra.Command{
		Use:   "select <league>",
		Short: "Select the league a running server queries",
		Example: `  sidekick --server http://localhost:8080 leagues select Hardcore`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := remoteClient()
			if c == nil {
				return errNeedsServer
			}
			l, err := c.SelectLeague(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), l)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Selected league %s\n", l.ID)
			return err
		},
	})

	return cmd
}

func runLeagues(cmd *cobra.Command, wait time.Duration) error {
	var resp *apiclient.LeaguesResponse

	if c := remoteClient(); c != nil {
		var err error
		if resp, err = c.Leagues(cmd.Context()); err != nil {
			return err
		}
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		err = withLocalEngine(cmd.Context(), cfg, wait, func(_ context.Context, eng *engine.Engine) (err error) {
			resp, err = localLeagues(eng)
			return err
		})
		if err != nil {
			return err
		}
	}

	if jsonOutput() {
		return outputJSON(cmd.OutOrStdout(), resp)
	}
	return printLeaguesTable(cmd.OutOrStdout(), resp)
}

func localLeagues(eng *engine.Engine) (*apiclient.LeaguesResponse, error) {
	leagues, err := eng.Leagues()
	if err != nil {
		return nil, err
	}
	resp := &apiclient.LeaguesResponse{Leagues: leagues}
	if l := eng.SelectedLeague(); l != nil {
		resp.Selected = l.ID
	}
	return resp, nil
}
