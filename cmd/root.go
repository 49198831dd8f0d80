package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	app := &app{}
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "nk",
		Short:         "nodekeeper (nk): keep reward-network nodes online",
		Long:          "nk (nodekeeper) registers each configured node with the gateway, opens a session and pings it on a fixed interval, one independent session per account and proxy.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return app.wire(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default $HOME/.config/nodekeeper/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newRunCmd(app),
	)

	return rootCmd
}
