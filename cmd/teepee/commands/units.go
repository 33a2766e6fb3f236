package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"teepee-scraper/internal/components/chrono"
	"teepee-scraper/internal/export"
	"teepee-scraper/internal/objects"
	"teepee-scraper/internal/traverse"
	"teepee-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	unitsDepth   *int
	unitsPersons *[]string
	unitsJson    *bool
	unitsDb      *string
)

func init() {
	unitsDepth = unitsCmd.Flags().Int("depth", 0, "How many levels below your units to descend, -1 for no limit.")
	unitsPersons = unitsCmd.Flags().StringSlice("persons", nil, "Scrape the persons of units with these names, * for all of them.")
	unitsJson = unitsCmd.Flags().Bool("json", false, "Print the tree as JSON.")
	unitsDb = unitsCmd.Flags().String("db", "", "Also write the tree to this sqlite database.")
	rootCmd.AddCommand(unitsCmd)
}

var unitsCmd = &cobra.Command{
	Use:   "units [--depth N] [--persons NAME...] [--json] [--db <path/to/output.db>]",
	Short: "Scrapes the units you are a member of and the units beneath them.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			serviceutil.Fatal("failed to open session", err)
		}

		policy := s.cfg.Traverse
		if cmd.Flags().Changed("depth") {
			policy.MaxDepth = *unitsDepth
		}
		if cmd.Flags().Changed("persons") {
			policy.PersonsFor = *unitsPersons
		}

		t1 := time.Now()
		roots, err := s.scraper.MyUnits(ctx)
		if err != nil {
			serviceutil.Fatal("failed to scrape your units", err)
		}
		tree, walkErr := traverse.Walk(ctx, s.scraper, roots, policy, s.tel)
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())

		out := cmd.OutOrStdout()
		if *unitsJson {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			err = encoder.Encode(tree)
			if err != nil {
				serviceutil.Fatal("failed to encode tree", err)
			}
		} else {
			renderTree(out, tree)
		}

		if *unitsDb != "" {
			err = exportTree(ctx, *unitsDb, tree, chrono.NewStandardImpl(nil))
			if err != nil {
				serviceutil.Fatal("failed to export", err)
			}
		}

		// what was scraped before the failure is still printed
		if walkErr != nil {
			serviceutil.Fatal("scraping stopped early", walkErr)
		}
	},
}

// exportTree writes tree into the sqlite database at path and closes it
// before returning.
func exportTree(ctx context.Context, path string, tree []objects.Unit, clock chrono.API) error {
	db, err := export.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	err = export.Write(ctx, db, tree, clock)
	closeErr := db.Close()
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}
	return nil
}
