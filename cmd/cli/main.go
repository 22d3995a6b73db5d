// Package main is the operator CLI: query parsing, weight inference and catalog search
// against local files, without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"troskovnik-service/internal/config"
)

var (
	outputJSON bool
	verbose    bool

	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "troskovnik",
	Short: "Search catalogs and price a procurement worksheet from the terminal",
	Long: `troskovnik runs the workbook core against local CSV/XLS/XLSX files.

Query syntax:
  5. ajvar 300-700         search "ajvar" for line 5, 300 g to 700 g
  (A45)                    direct weight-table lookup
  12. (A45) * 13. ulje     several segments, split by "*"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		lvl := zerolog.WarnLevel
		if verbose {
			lvl = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newWeightCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newLiveCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
