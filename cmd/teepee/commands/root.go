package commands

import (
	"context"
	"fmt"
	"os"

	"teepee-scraper/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	noKeyring  *bool
	fromEnv    *bool
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "", "Path to the config file, defaults to $XDG_CONFIG_HOME/teepee-scraper/config.json5.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logs.")
	noKeyring = rootCmd.PersistentFlags().Bool("no-keyring", false, "Do not read or store the password in the system keyring.")
	fromEnv = rootCmd.PersistentFlags().Bool("from-env", false, "Log in with TEEPEE_USERNAME and TEEPEE_PASSWORD instead of prompting.")
}

var rootCmd = &cobra.Command{
	Use:   "teepee",
	Short: "teepee is a CLI for scraping the unit tree of the Tee-Pee scouting portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.SetupSlog(os.Stderr, *verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
