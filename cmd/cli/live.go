package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"troskovnik-service/internal/utils"
	"troskovnik-service/internal/workbook/model"
	"troskovnik-service/internal/workbook/service"
)

const liveHelp = `every input line is the current query text; commands:
  :line N                 default line for queries without "N." prefix
  :add I [PRICE [kg]]     add result I of the last search (priced: first choice)
  :add! I PRICE [kg]      same, replacing the line's current first choice
  :ws                     print the worksheet
  :rebate                 print the rebate table
  :help`

func newLiveCmd() *cobra.Command {
	var (
		files sessionFiles
		sf    searchFlags
		line  int
	)
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Debounced live search over stdin, with assignment to worksheet lines",
		Long:  "Reads stdin line by line as if typed into the search box.\n\n" + liveHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, weights, err := loadSession(cmd.Context(), files)
			if err != nil {
				return err
			}
			defer weights.Wait()

			out := cmd.OutOrStdout()
			opts := sf.options()
			if line > 0 {
				opts.CurrentLine = model.Assigned(line)
			}
			sess := &liveSession{s: s, opts: opts, out: out}
			sc := bufio.NewScanner(cmd.InOrStdin())
			sess.assigner = service.NewAssigner(opts.Order, service.PromptVat{In: nextLine{sc}, Out: out}, nil, logger)

			live := service.NewLiveSearch(cfg.Search.LiveDebounce, sess.search, sess.show)
			for sc.Scan() {
				text := sc.Text()
				if strings.HasPrefix(text, ":") {
					live.Flush()
					if err := sess.command(cmd, text); err != nil {
						fmt.Fprintln(out, "error:", err)
					}
					continue
				}
				live.Input(text)
			}
			live.Flush()
			return sc.Err()
		},
	}
	addFileFlags(cmd, &files)
	addSearchFlags(cmd, &sf)
	cmd.Flags().IntVar(&line, "line", 0, "default worksheet line")
	return cmd
}

type liveSession struct {
	mu       sync.Mutex
	s        *service.Session
	opts     service.SearchOptions
	assigner *service.Assigner
	last     []model.Result
	out      io.Writer
}

func (ls *liveSession) search(q string) []model.Result {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return service.Search(ls.s, service.ParseQuery(q), ls.opts)
}

func (ls *liveSession) show(q string, res []model.Result) {
	ls.mu.Lock()
	ls.last = res
	ls.mu.Unlock()
	if outputJSON {
		_ = printJSON(map[string]any{"query": q, "results": res})
		return
	}
	fmt.Fprintf(ls.out, "> %s\n", q)
	printResults(ls.out, res)
}

func (ls *liveSession) command(cmd *cobra.Command, text string) error {
	f := strings.Fields(strings.TrimPrefix(text, ":"))
	if len(f) == 0 {
		return nil
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	switch f[0] {
	case "line":
		if len(f) < 2 {
			return fmt.Errorf("usage: :line N")
		}
		l, err := model.ParseLineNumber(f[1])
		if err != nil {
			return err
		}
		ls.opts.CurrentLine = l
		fmt.Fprintf(ls.out, "line %s\n", l)
	case "add", "add!":
		return ls.add(cmd, f[1:], f[0] == "add!")
	case "ws":
		printWorksheet(ls.out, ls.s)
	case "rebate":
		printRebate(ls.out, service.BuildRebateTable(ls.s))
	case "help":
		fmt.Fprintln(ls.out, liveHelp)
	default:
		return fmt.Errorf("unknown command %q", f[0])
	}
	return nil
}

func (ls *liveSession) add(cmd *cobra.Command, args []string, replace bool) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: :add I [PRICE [kg]]")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 1 || i > len(ls.last) {
		return fmt.Errorf("no result %q in the last search", args[0])
	}
	req := service.AddRequest{Candidate: ls.last[i-1], PriceType: model.PricePiece, ConfirmReplace: replace}
	if len(args) > 1 {
		p, ok := utils.ParseDecimalHR(args[1])
		if !ok {
			return &service.InvalidInputError{Field: "price", Value: args[1], Reason: "not a number"}
		}
		req.Price = &p
	}
	if len(args) > 2 && strings.EqualFold(args[2], "kg") {
		req.PriceType = model.PriceKg
	}

	o, err := ls.assigner.Add(cmd.Context(), ls.s, req)
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		fmt.Fprintf(ls.out, "line %d already has %q as first choice; use :add! to replace it\n", conflict.Line, conflict.Name)
		return nil
	}
	if err != nil {
		return err
	}
	for _, w := range o.Warnings {
		fmt.Fprintln(ls.out, "warning:", w)
	}
	kind := "additional choice"
	if o.Result.IsFirstChoice {
		kind = "first choice"
	}
	fmt.Fprintf(ls.out, "added %q to line %s as %s\n", o.Result.Name, o.Result.LineNumber, kind)
	return nil
}

func printRebate(w io.Writer, rows []service.RebateRow) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "RB\tNAME\tOUT\tLOWEST\tRABAT%\tPDV\tTOTAL")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%g\t%s\n",
			r.LineNumber, r.Name, r.OutputPrice.StringFixed(2), r.LowestPrice.StringFixed(2),
			r.RebatePercent.StringFixed(2), r.VatRate, r.Total.StringFixed(2))
	}
	_ = tw.Flush()
}

// nextLine hands the next stdin line to the VAT prompt.
type nextLine struct{ sc *bufio.Scanner }

func (n nextLine) Read(p []byte) (int, error) {
	if !n.sc.Scan() {
		return 0, io.EOF
	}
	return copy(p, n.sc.Text()+"\n"), nil
}
