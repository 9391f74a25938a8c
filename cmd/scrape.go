package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/services/worker"
)

const (
	outputDB   = "db"
	outputJSON = "json"
	outputBoth = "both"
)

var (
	scrapePlate  *string
	scrapePart   *string
	scrapeOutput *string
	scrapeDB     *string
	scrapeOut    *string
)

func init() {
	scrapePlate = scrapeCmd.Flags().String("plate", "", "License plate to search, e.g. 27-XH-VX.")
	scrapePart = scrapeCmd.Flags().String("part", "", "Part to search for, e.g. koplamp.")
	scrapeOutput = scrapeCmd.Flags().String("output", outputDB, "Where to write results: db, json or both.")
	scrapeDB = scrapeCmd.Flags().String("db", "", "The database to write results to (defaults to DB_PATH).")
	scrapeOut = scrapeCmd.Flags().String("out", "", "The JSON file to write results to (defaults to a generated name).")
	scrapeCmd.MarkFlagRequired("plate")
	scrapeCmd.MarkFlagRequired("part")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --plate <plate> --part <name> [--output db|json|both] [--db <path>] [--out <file>]",
	Short: "Scrapes the parts for one license plate and writes them to the database and/or a JSON file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		output := strings.ToLower(*scrapeOutput)
		if output != outputDB && output != outputJSON && output != outputBoth {
			return fmt.Errorf("invalid --output %q, expected db, json or both", *scrapeOutput)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dbPath := ""
		if output != outputJSON {
			dbPath = *scrapeDB
			if dbPath == "" {
				dbPath = cfg.DBPath
			}
		}

		services, err := initializeServices(cmd.Context(), cfg, dbPath)
		if err != nil {
			return err
		}
		defer services.Cleanup()

		var extra []worker.Sink
		jsonSink := &worker.JSONSink{Path: *scrapeOut, Dir: "."}
		if output != outputDB {
			extra = append(extra, jsonSink)
		}

		w := worker.NewWorker(services.ScraperFactory(cfg), 0, services.sinks(extra...)...)

		result, err := w.Run(cmd.Context(), worker.Search{Plate: *scrapePlate, Part: *scrapePart})
		if result != nil {
			printSummary(cmd.OutOrStdout(), result, jsonSink.Written(), dbPath)
		}
		if err != nil {
			logger.ForWorker().Error().Err(err).Msg("Scrape failed")
			return err
		}
		return nil
	},
}

func printSummary(w io.Writer, result *worker.Result, jsonPath, dbPath string) {
	doc := result.Document()

	fmt.Fprintf(w, "Vehicle:   %s (%s, modeltype %s)\n", result.Vehicle.Description, result.Search.Plate, result.Vehicle.ModelType)
	fmt.Fprintf(w, "Part:      %s\n", result.Search.Part)
	fmt.Fprintf(w, "Records:   %d over %d page(s)\n", doc.Total(), result.Stats.Pages)
	for _, name := range doc.CategoryNames() {
		fmt.Fprintf(w, "  %-30s %d\n", name, len(doc.Categories[name]))
	}
	if result.Complete {
		fmt.Fprintln(w, "Complete:  yes")
	} else {
		fmt.Fprintf(w, "Complete:  no (%s)\n", result.Truncation)
	}
	if dbPath != "" {
		fmt.Fprintf(w, "Database:  %s\n", dbPath)
	}
	if jsonPath != "" {
		fmt.Fprintf(w, "JSON:      %s\n", jsonPath)
	}
}
