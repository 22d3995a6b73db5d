package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"troskovnik-service/internal/workbook/service"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse QUERY",
		Short: "Show how a search query is split into segments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := service.ParseQuery(strings.Join(args, " "))
			if outputJSON {
				return printJSON(q)
			}
			out := cmd.OutOrStdout()
			for i, s := range q.Segments {
				fmt.Fprintf(out, "segment %d: %q\n", i+1, s.OriginalText)
				if s.LineNumber != nil {
					fmt.Fprintf(out, "  line:   %d\n", *s.LineNumber)
				}
				if s.IsDirect() {
					fmt.Fprintf(out, "  code:   %s\n", s.DirectCode)
				}
				if len(s.Tokens) > 0 {
					fmt.Fprintf(out, "  tokens: %s\n", strings.Join(s.Tokens, ", "))
				}
				if s.HasRange() {
					fmt.Fprintf(out, "  range:  %d-%d g\n", *s.RangeMin, *s.RangeMax)
				}
			}
			return nil
		},
	}
}

func newWeightCmd() *cobra.Command {
	var (
		unit, code, source, weightsFile string
	)
	cmd := &cobra.Command{
		Use:   "weight NAME",
		Short: "Infer the weight (kg) of a product from its name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			table, err := loadWeights(cmd.Context(), weightsFile)
			if err != nil {
				return err
			}
			kg := service.InferWeight(table, name, unit, code, source)
			if outputJSON {
				return printJSON(map[string]any{"name": name, "unit": unit, "code": code, "weightKg": kg})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %g kg\n", name, kg)
			return nil
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "unit of measure (kg, l, kom ...)")
	cmd.Flags().StringVar(&code, "code", "", "product code, looked up in the weight table")
	cmd.Flags().StringVar(&source, "source", "", "article source (lager/urpd sources are ours)")
	cmd.Flags().StringVar(&weightsFile, "weights", "", "weight table file (csv/xls/xlsx)")
	return cmd
}
