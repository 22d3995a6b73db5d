package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultVatRate is used whenever the VAT prompt is dismissed or fails.
const DefaultVatRate = 25.0

// VatSelector asks for the VAT rate of a newly added external article.
// Implementations may block; they must honour ctx and never fail the flow.
type VatSelector interface {
	SelectVatRate(ctx context.Context, articleName string) float64
}

// FixedVat answers every prompt with the same rate (DefaultVatRate when zero).
type FixedVat float64

func (f FixedVat) SelectVatRate(context.Context, string) float64 {
	if f <= 0 {
		return DefaultVatRate
	}
	return float64(f)
}

// PromptVat asks on Out and reads "25" or "5" from In. Anything else, EOF or a cancelled
// context resolves to DefaultVatRate.
type PromptVat struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptVat) SelectVatRate(ctx context.Context, articleName string) float64 {
	if p.Out != nil {
		fmt.Fprintf(p.Out, "PDV za %q [25/5]: ", articleName)
	}
	if p.In == nil {
		return DefaultVatRate
	}
	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(p.In).ReadString('\n')
		answer <- line
	}()
	select {
	case <-ctx.Done():
		return DefaultVatRate
	case line := <-answer:
		v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil || (v != 25 && v != 5) {
			return DefaultVatRate
		}
		return v
	}
}

func selectVat(ctx context.Context, sel VatSelector, name string) float64 {
	if sel == nil {
		return DefaultVatRate
	}
	if err := ctx.Err(); err != nil {
		return DefaultVatRate
	}
	v := sel.SelectVatRate(ctx, name)
	if v <= 0 {
		return DefaultVatRate
	}
	return v
}
