package cmd

import (
	"context"
	"errors"
	"fmt"

	statusadapter "github.com/bnema/nodekeeper/internal/adapters/render/status"
	"github.com/bnema/nodekeeper/internal/application"
	"github.com/bnema/nodekeeper/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage node accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(app),
		newAccountAddCmd(app),
		newAccountImportCmd(app),
		newAccountCheckCmd(app),
	)

	return cmd
}

// sourceOrStore reads from path when given and from the account store
// otherwise.
func (a *app) sourceOrStore(path string) (accountSource, error) {
	if path == "" {
		return a.store, nil
	}
	return a.openAccounts(path)
}

func newAccountListCmd(app *app) *cobra.Command {
	var accountsPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured accounts with masked tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := app.sourceOrStore(accountsPath)
			if err != nil {
				return err
			}

			views, err := application.NewAccountService(source).List(cmd.Context())
			if err != nil {
				if !errors.Is(err, domain.ErrMalformedCredential) {
					return err
				}
				app.logger.Warn().Err(err).Msg("skipped malformed accounts")
			}

			rendered, err := statusadapter.RenderAccounts(views)
			if err != nil {
				return fmt.Errorf("render accounts: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&accountsPath, "accounts", "", "Accounts file to read instead of the account store")

	return cmd
}

func newAccountAddCmd(app *app) *cobra.Command {
	var account domain.Account
	var nodeID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Validate an account and save it to the account store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account.NodeID = domain.NodeID(nodeID)

			if err := application.NewAccountService(app.store).Add(cmd.Context(), app.store, account); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "saved node %s to %s\n", account.NodeID.Short(), app.store.Path())
			return err
		},
	}

	cmd.Flags().StringVar(&account.Token, "token", "", "Bearer token")
	cmd.Flags().StringVar(&nodeID, "node", "", "Node id")
	cmd.Flags().StringVar(&account.HardwareID, "hardware", "", "Hardware id")
	cmd.Flags().StringVar(&account.Proxy, "proxy", "", "Proxy URL (http://, https://, socks://, socks5://)")
	cmd.Flags().StringVar(&account.Name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("node")
	_ = cmd.MarkFlagRequired("hardware")

	return cmd
}

func newAccountImportCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a nodes.txt file into the account store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := app.openAccounts(args[0])
			if err != nil {
				return err
			}

			imported, skipped, err := application.NewAccountService(source).Import(cmd.Context(), app.store)
			if err != nil {
				return err
			}
			if skipped != nil {
				app.logger.Warn().Err(skipped).Msg("skipped accounts during import")
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d accounts into %s\n", imported, app.store.Path())
			return err
		},
	}
}

func newAccountCheckCmd(app *app) *cobra.Command {
	var accountsPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether each node is registered with the gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := app.sourceOrStore(accountsPath)
			if err != nil {
				return err
			}

			var results []application.ProbeResult
			err = statusadapter.RunWithProgress(cmd.Context(), cmd.ErrOrStderr(), "Checking node registrations...", func(ctx context.Context) error {
				var probeErr error
				results, probeErr = app.newRunner(source).Probe(ctx)
				return probeErr
			})
			if err != nil {
				return err
			}

			rendered, err := statusadapter.RenderProbe(results)
			if err != nil {
				return fmt.Errorf("render registrations: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&accountsPath, "accounts", "", "Accounts file to read instead of the account store")

	return cmd
}
