package commands

import (
	"fmt"
	"os"

	"teepee-scraper/internal/credentials"
	"teepee-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forgets the password stored in the keyring.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		username := cfg.Username
		if username == "" {
			username, err = newPrompter(os.Stdin, os.Stderr).Text("Username: ")
			if err != nil {
				serviceutil.Fatal("failed to read username", err)
			}
		}
		cred, err := credentials.New(username, credentials.KeyringStore{Service: cfg.KeyringService})
		if err != nil {
			serviceutil.Fatal("invalid username", err)
		}
		err = cred.DeletePassword()
		if err != nil {
			serviceutil.Fatal("failed to delete password", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Forgot the password of %s.\n", username)
	},
}
