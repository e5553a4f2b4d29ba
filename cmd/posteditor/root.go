package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/posteditor"
)

type ctxKey string

const configKey ctxKey = "config"

// newRootCmd builds the posteditor command tree. Configuration is loaded
// once before any subcommand runs.
func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "posteditor",
		Short:         "posteditor - write Jekyll posts and publish them as pull requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			cfg, err := posteditor.LoadConfig(v)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|toml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPostsCmd())
	cmd.AddCommand(newPublishCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newVersionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getConfig(cmd *cobra.Command) posteditor.Config {
	cfg, _ := cmd.Context().Value(configKey).(posteditor.Config)
	return cfg
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the posteditor version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "posteditor %s\n", version)
			return err
		},
	}
}
