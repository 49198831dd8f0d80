package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	statusadapter "github.com/bnema/nodekeeper/internal/adapters/render/status"
	"github.com/bnema/nodekeeper/internal/version"
	"github.com/spf13/cobra"
)

func newRunCmd(app *app) *cobra.Command {
	var accountsPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Keep every configured node alive until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			accounts, err := app.openAccounts(accountsPath)
			if err != nil {
				return err
			}

			app.logger.Info().
				Str("version", version.Version).
				Str("accounts", accounts.Path()).
				Str("gateway", app.cfg.API.BaseURL).
				Dur("ping_interval", app.cfg.Ping.Interval).
				Msg("nodekeeper starting")

			statuses, err := app.newRunner(accounts).Run(ctx)
			if err != nil {
				return err
			}

			app.logger.Info().Int("sessions", len(statuses)).Msg("nodekeeper stopped")

			rendered, err := app.statusRenderer(statuses, statusadapter.RenderOptions{
				Now:        app.now(),
				StaleAfter: 2 * app.cfg.Ping.Interval,
			})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&accountsPath, "accounts", "", "Accounts file, nodes.txt lines or an accounts .toml (default from config)")

	return cmd
}
