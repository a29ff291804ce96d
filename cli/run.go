package cli

import (
	"fmt"

	"github.com/ka2n/sitelens/api"
	"github.com/ka2n/sitelens/config"
	"github.com/ka2n/sitelens/log"
	"github.com/ka2n/sitelens/mcp"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
)

var (
	// Command line flags
	cfgFile   string
	debugFlag bool
	relayFlag string
	limitFlag int

	// cfg is resolved before any subcommand runs
	cfg *config.Config

	// Root command
	rootCmd = &cobra.Command{
		Use:           "sitelens",
		Short:         "Look up site ranking data and related sites",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `sitelens looks up ranking data and related sites for a domain.

It serves a browser widget together with a same-origin relay to the
site-ranking API, runs the same widget in a terminal, or prints a
one-shot lookup:

  sitelens serve --open
  sitelens tui example.com
  sitelens lookup example.com`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg = c
			return nil
		},
	}

	// Version command
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print detailed version information about sitelens",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitelens version %s\n", api.Version)
			if api.VersionCommit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", api.VersionCommit)
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log debug diagnostics")
	rootCmd.PersistentFlags().StringVar(&relayFlag, "relay", "", "endpoint the widget fetches from (overrides relay_url)")
	rootCmd.PersistentFlags().IntVar(&limitFlag, "limit", api.DefaultLimit, "result-count limit per fetch")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcp.Command(func() (*api.Client, error) {
		return api.NewClient(cfg.DirectRelayURL(), cfg.Limit), nil
	}))
}

// Run executes the main CLI functionality
func Run() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies explicitly set flags on top
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("relay") {
		c.RelayURL = relayFlag
	}
	if flags.Changed("limit") {
		c.Limit = limitFlag
	}
	if flags.Changed("debug") {
		c.Debug = debugFlag
	}

	if err := c.Validate(); err != nil {
		return nil, failure.Wrap(err)
	}

	log.SetDebug(c.Debug)
	log.EnableGlobalHTTP()
	return c, nil
}
