package commands

import (
	"fmt"
	"strconv"

	"teepee-scraper/internal/objects"
	"teepee-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(personsCmd)
}

var personsCmd = &cobra.Command{
	Use:   "persons <unit id>",
	Short: "Lists the persons registered in a unit.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			serviceutil.Fatal(fmt.Sprintf("invalid unit id %q", args[0]), err)
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to open session", err)
		}

		unit := objects.Unit{Id: uint32(id), Name: fmt.Sprintf("unit %d", id)}
		err = s.scraper.Persons(cmd.Context(), &unit)
		if err != nil {
			serviceutil.Fatal("failed to scrape persons", err)
		}
		renderPersons(cmd.OutOrStdout(), unit.Persons)
	},
}
