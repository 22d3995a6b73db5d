package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"troskovnik-service/internal/workbook/model"
	"troskovnik-service/internal/workbook/service"
)

func addFileFlags(cmd *cobra.Command, files *sessionFiles) {
	cmd.Flags().StringSliceVar(&files.catalogs, "catalog", nil, "catalog file(s) (csv/xls/xlsx), repeatable")
	cmd.Flags().StringVar(&files.weights, "weights", "", "weight table file; default: the configured weight store")
	cmd.Flags().StringVar(&files.history, "history", "", "historical price list")
	cmd.Flags().StringVar(&files.worksheet, "worksheet", "", "worksheet (troškovnik) file")
	_ = cmd.MarkFlagRequired("catalog")
}

type searchFlags struct {
	order    string
	latest   bool
	hideOurs bool
	hideRoto bool
	bulk     bool
}

func (f searchFlags) options() service.SearchOptions {
	o := service.DefaultSearchOptions()
	if f.bulk {
		o = service.BulkSearchOptions()
	} else {
		o.Limit = cfg.Search.Cap
	}
	o.HistoryLimit = cfg.Search.HistoryCap
	o.Order = service.ParseSortOrder(cfg.Search.SortOrder)
	if f.order != "" {
		o.Order = service.ParseSortOrder(f.order)
	}
	if cfg.Search.RotoSupplier != "" {
		o.RotoSupplier = cfg.Search.RotoSupplier
	}
	o.LatestPerCode, o.HideOurs, o.HideRoto = f.latest, f.hideOurs, f.hideRoto
	return o
}

func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().StringVar(&f.order, "order", "", "result order: weight | line")
	cmd.Flags().BoolVar(&f.latest, "latest", false, "keep only the latest row per code")
	cmd.Flags().BoolVar(&f.hideOurs, "hide-ours", false, "hide our own stock (lager/urpd)")
	cmd.Flags().BoolVar(&f.hideRoto, "hide-roto", false, "hide the external aggregator supplier")
}

func newSearchCmd() *cobra.Command {
	var (
		files sessionFiles
		sf    searchFlags
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the catalog once and print the ranked candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, weights, err := loadSession(cmd.Context(), files)
			if err != nil {
				return err
			}
			defer weights.Wait()

			res := service.Search(s, service.ParseQuery(strings.Join(args, " ")), sf.options())
			if outputJSON {
				return printJSON(res)
			}
			printResults(cmd.OutOrStdout(), res)
			return nil
		},
	}
	addFileFlags(cmd, &files)
	addSearchFlags(cmd, &sf)
	cmd.Flags().BoolVar(&sf.bulk, "all", false, "no result cap")
	return cmd
}

func printResults(w io.Writer, res []model.Result) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLINE\tID\tCODE\tNAME\tSUPPLIER\tPRICE\tKG\tPRICE/KG")
	for i, r := range res {
		kg, perKg := "-", "-"
		if r.CalculatedWeight > 0 {
			kg = fmt.Sprintf("%.3f", r.CalculatedWeight)
			perKg = r.PricePerKg.StringFixed(2)
		}
		name := r.Name
		if r.FromHistory {
			name = "[H] " + name
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.LineNumber, r.ID, r.Code, name, r.SupplierLabel(), r.Price.StringFixed(2), kg, perKg)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d result(s)\n", len(res))
}

func printWorksheet(w io.Writer, s *service.Session) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "RB\tNAME\tSTATUS\tOUT\tPP1\tPP2\tMARGIN%\tRUC/KG\tFOUND")
	for _, l := range s.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			l.LineNumber, l.Name, s.Status(l.LineNumber),
			l.OutputPrice.StringFixed(2), l.PurchasePrice1.StringFixed(2), l.PurchasePrice2.StringFixed(2),
			l.MarginPercent.StringFixed(2), l.RucPerKg.StringFixed(2), l.FoundResultsCount)
	}
	_ = tw.Flush()
}
