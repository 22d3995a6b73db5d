package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"troskovnik-service/internal/utils"
	"troskovnik-service/internal/workbook/model"
)

// ManualSource marks results typed in by the user.
const ManualSource = "Ručni unos"

// Assigner is the assignment state machine: it turns candidates into first or additional
// choices, keeps worksheet lines in sync and notifies the views after every mutation.
type Assigner struct {
	order    SortOrder
	vat      VatSelector
	notifier *Notifier
	logger   zerolog.Logger
}

func NewAssigner(order SortOrder, vat VatSelector, notifier *Notifier, logger zerolog.Logger) *Assigner {
	return &Assigner{order: order, vat: vat, notifier: notifier, logger: logger}
}

// Order is the sort policy applied to the results collection.
func (a *Assigner) Order() SortOrder { return a.order }

// AddRequest adds a candidate. A nil Price (or Additional) makes it an additional choice.
type AddRequest struct {
	Candidate      model.Result
	Price          *decimal.Decimal
	PriceType      model.PriceType
	Weight         *float64 // user-edited weight; nil means inferred
	Additional     bool
	ConfirmReplace bool
	VatRate        float64 // 0: ask the VatSelector for external articles
}

type AddOutcome struct {
	Result   model.Result
	Replaced *model.ResultKey
	Degraded bool // line did not exist, result went to PENDING
	Warnings []string
}

// Add records a candidate as first or additional choice of its line.
func (a *Assigner) Add(ctx context.Context, s *Session, req AddRequest) (AddOutcome, error) {
	var out AddOutcome
	r := req.Candidate

	if req.Price != nil && !req.Price.IsPositive() {
		return out, &InvalidInputError{Field: "price", Value: req.Price.String(), Reason: "must be greater than zero"}
	}
	if req.Weight != nil && *req.Weight < 0 {
		return out, &InvalidInputError{Field: "weight", Value: fmt.Sprint(*req.Weight), Reason: "must not be negative"}
	}

	if !r.LineNumber.IsPending() && s.lineFor(r.LineNumber) == nil {
		msg := fmt.Sprintf("line %s not in worksheet, %q added to PENDING", r.LineNumber, r.Name)
		a.logger.Warn().Str("line", r.LineNumber.String()).Int("id", r.ID).Msg("line not found, adding to pending")
		out.Degraded = true
		out.Warnings = append(out.Warnings, msg)
		r.LineNumber = model.Pending
	}
	if s.findResult(r.Key()) >= 0 {
		return out, fmt.Errorf("%s: %w", r.Key(), ErrDuplicateResult)
	}

	first := req.Price != nil && !req.Additional && !r.LineNumber.IsPending()
	if first {
		if i := s.firstChoice(r.LineNumber); i >= 0 && !req.ConfirmReplace {
			n, _ := r.LineNumber.Number()
			return out, &ConflictError{Line: n, Existing: s.Results[i].Key(), Name: s.Results[i].Name}
		}
	}

	switch {
	case req.VatRate > 0:
		r.CustomPdvStopa = req.VatRate
	case classifyArticle(r.Article, s.Weights) == External:
		r.CustomPdvStopa = selectVat(ctx, a.vat, r.Name)
	}

	if req.Weight != nil {
		r.CalculatedWeight = *req.Weight
		r.WeightOverridden = true
	} else {
		r.CalculatedWeight = articleWeight(r.Article, s.Weights)
	}
	line := s.lineFor(r.LineNumber)

	switch {
	case first:
		if i := s.firstChoice(r.LineNumber); i >= 0 {
			k := s.Results[i].Key()
			out.Replaced = &k
			s.Results = append(s.Results[:i], s.Results[i+1:]...)
			delete(s.Selected, k)
		}
		applyUserPrice(&r, *req.Price, req.PriceType, r.CalculatedWeight)
		r.IsFirstChoice = true
		applyFirstChoice(line, &r, *req.Price, r.CalculatedWeight)

	case req.Price != nil && r.LineNumber.IsPending():
		// kept for when the user moves it to a line
		applyUserPrice(&r, *req.Price, req.PriceType, r.CalculatedWeight)
		r.IsFirstChoice = false

	default:
		r.IsFirstChoice = false
		r.ClearPrice()
		r.PricePerKg = perKg(r.Price, r.CalculatedWeight)
		if line != nil && line.PurchasePrice2.IsZero() {
			// the article's own inferred weight, never the user-edited one
			w := articleWeight(r.Article, s.Weights)
			line.PurchasePrice2 = rescale(r.Price, perKg(r.Price, w), line.Weight)
			line.Supplier2 = r.SupplierLabel()
			line.Recalculate()
		}
	}

	s.Results = append(s.Results, r)
	s.refreshFoundCount(r.LineNumber)
	out.Result = r

	a.logger.Debug().
		Int("id", r.ID).
		Str("line", r.LineNumber.String()).
		Bool("first", r.IsFirstChoice).
		Msg("result added")
	a.commit(s)
	return out, nil
}

// ManualEntry is a result typed in by the user. Price and Weight are raw user text.
type ManualEntry struct {
	Line           model.LineNumber
	Code           string
	Name           string
	Unit           string
	Supplier       string
	Price          string
	PriceType      model.PriceType
	Weight         string // empty: inferred from the name
	ConfirmReplace bool
	VatRate        float64
}

// AddManual validates a manual entry field by field and adds it as a priced result.
func (a *Assigner) AddManual(ctx context.Context, s *Session, e ManualEntry) (AddOutcome, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return AddOutcome{}, &InvalidInputError{Field: "name", Value: e.Name, Reason: "required"}
	}
	price, ok := utils.ParseDecimalHR(e.Price)
	if !ok {
		return AddOutcome{}, &InvalidInputError{Field: "price", Value: e.Price, Reason: "not a number"}
	}
	if !price.IsPositive() {
		return AddOutcome{}, &InvalidInputError{Field: "price", Value: e.Price, Reason: "must be greater than zero"}
	}
	var weight *float64
	if strings.TrimSpace(e.Weight) != "" {
		w, ok := utils.ParseFloatHR(e.Weight)
		if !ok || w < 0 {
			return AddOutcome{}, &InvalidInputError{Field: "weight", Value: e.Weight, Reason: "must be a non-negative number"}
		}
		weight = &w
	}
	unit := strings.TrimSpace(e.Unit)
	if unit == "" {
		unit = "kom"
	}

	art := model.Article{
		ID:       s.allocManualID(),
		Code:     strings.TrimSpace(e.Code),
		Name:     name,
		Unit:     unit,
		Price:    price,
		Supplier: strings.TrimSpace(e.Supplier),
		Source:   ManualSource,
	}
	return a.Add(ctx, s, AddRequest{
		Candidate:      candidate(art, articleWeight(art, s.Weights), e.Line),
		Price:          &price,
		PriceType:      e.PriceType,
		Weight:         weight,
		ConfirmReplace: e.ConfirmReplace,
		VatRate:        e.VatRate,
	})
}

type RemoveOutcome struct {
	Removed  []model.Result    `json:"removed"`
	Promoted []model.ResultKey `json:"promoted,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Remove deletes one result. Removing a first choice promotes the next result of the line,
// without a price: the user has to enter one.
func (a *Assigner) Remove(s *Session, key model.ResultKey) (RemoveOutcome, error) {
	var out RemoveOutcome
	if err := a.remove(s, key, &out); err != nil {
		return out, err
	}
	a.commit(s)
	return out, nil
}

// RemoveMany deletes several results; unknown keys are skipped.
func (a *Assigner) RemoveMany(s *Session, keys []model.ResultKey) RemoveOutcome {
	var out RemoveOutcome
	for _, k := range keys {
		if err := a.remove(s, k, &out); err != nil {
			a.logger.Debug().Str("key", k.String()).Err(err).Msg("bulk remove skipped")
		}
	}
	out.Promoted = stillPresent(s, out.Promoted)
	a.commit(s)
	return out
}

// RemoveLine deletes every result of a worksheet line and returns how many went.
func (a *Assigner) RemoveLine(s *Session, n int) (int, error) {
	if s.Line(n) == nil {
		return 0, fmt.Errorf("line %d: %w", n, ErrLineNotFound)
	}
	l := model.Assigned(n)
	kept := s.Results[:0]
	removed := 0
	for _, r := range s.Results {
		if r.LineNumber == l {
			delete(s.Selected, r.Key())
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.Results = kept
	s.refreshFoundCount(l)
	a.commit(s)
	return removed, nil
}

func (a *Assigner) remove(s *Session, key model.ResultKey, out *RemoveOutcome) error {
	i := s.findResult(key)
	if i < 0 {
		return fmt.Errorf("%s: %w", key, ErrResultNotFound)
	}
	removed := s.Results[i]
	s.Results = append(s.Results[:i], s.Results[i+1:]...)
	delete(s.Selected, key)
	out.Removed = append(out.Removed, removed)

	if removed.IsFirstChoice && !removed.LineNumber.IsPending() {
		for j := range s.Results {
			next := &s.Results[j]
			if next.LineNumber != removed.LineNumber {
				continue
			}
			next.IsFirstChoice = true
			next.ClearPrice()
			out.Promoted = append(out.Promoted, next.Key())
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("line %s: %q is now the first choice, enter an output price", next.LineNumber, next.Name))
			a.logger.Warn().Str("line", next.LineNumber.String()).Int("id", next.ID).Msg("first choice promoted without price")
			break
		}
	}
	s.refreshFoundCount(removed.LineNumber)
	return nil
}

func stillPresent(s *Session, keys []model.ResultKey) []model.ResultKey {
	out := keys[:0]
	for _, k := range keys {
		if s.findResult(k) >= 0 {
			out = append(out, k)
		}
	}
	return out
}

// Promote turns an existing additional choice into the first choice of its line, priced
// from price and rescaled with the article's own inferred weight. The previous first choice
// is demoted and keeps no price.
func (a *Assigner) Promote(s *Session, key model.ResultKey, price decimal.Decimal, pt model.PriceType) (model.Result, error) {
	if !price.IsPositive() {
		return model.Result{}, &InvalidInputError{Field: "price", Value: price.String(), Reason: "must be greater than zero"}
	}
	i := s.findResult(key)
	if i < 0 {
		return model.Result{}, fmt.Errorf("%s: %w", key, ErrResultNotFound)
	}
	if key.Line.IsPending() {
		return model.Result{}, fmt.Errorf("%s: %w", key, ErrPendingLine)
	}
	line := s.lineFor(key.Line)
	if line == nil {
		return model.Result{}, fmt.Errorf("line %s: %w", key.Line, ErrLineNotFound)
	}

	if j := s.firstChoice(key.Line); j >= 0 && j != i {
		s.Results[j].IsFirstChoice = false
		s.Results[j].ClearPrice()
	}

	r := &s.Results[i]
	w := articleWeight(r.Article, s.Weights)
	if !r.WeightOverridden {
		r.CalculatedWeight = w
	}
	applyUserPrice(r, price, pt, w)
	r.IsFirstChoice = true
	applyFirstChoice(line, r, price, w)

	promoted := *r
	a.logger.Debug().Str("key", key.String()).Msg("result promoted to first choice")
	a.commit(s)
	return promoted, nil
}

type MoveOutcome struct {
	Moved   []model.ResultKey `json:"moved"`
	Skipped []model.ResultKey `json:"skipped,omitempty"`
}

// MovePending assigns pending results (by article id) to a worksheet line.
// Ids that are not pending, or already present on the target line, are skipped.
func (a *Assigner) MovePending(s *Session, ids []int, n int) (MoveOutcome, error) {
	var out MoveOutcome
	if s.Line(n) == nil {
		return out, fmt.Errorf("line %d: %w", n, ErrLineNotFound)
	}
	to := model.Assigned(n)
	for _, id := range ids {
		from := model.ResultKey{ID: id, Line: model.Pending}
		dst := model.ResultKey{ID: id, Line: to}
		i := s.findResult(from)
		if i < 0 || s.findResult(dst) >= 0 {
			out.Skipped = append(out.Skipped, from)
			continue
		}
		s.Results[i].LineNumber = to
		if _, sel := s.Selected[from]; sel {
			delete(s.Selected, from)
			s.Selected[dst] = struct{}{}
		}
		out.Moved = append(out.Moved, dst)
	}
	s.refreshFoundCount(to)
	a.commit(s)
	return out, nil
}

// SetOutputPrice sets a line's sale price directly, completing a first choice left unpriced.
func (a *Assigner) SetOutputPrice(s *Session, n int, price decimal.Decimal) (model.WorksheetLine, error) {
	if !price.IsPositive() {
		return model.WorksheetLine{}, &InvalidInputError{Field: "outputPrice", Value: price.String(), Reason: "must be greater than zero"}
	}
	line := s.Line(n)
	if line == nil {
		return model.WorksheetLine{}, fmt.Errorf("line %d: %w", n, ErrLineNotFound)
	}
	line.OutputPrice = price
	if i := s.firstChoice(model.Assigned(n)); i >= 0 {
		r := &s.Results[i]
		r.HasUserPrice = true
		r.UserPriceType = model.PricePiece
		r.PricePerPiece = price
		w := line.Weight
		if w <= 0 {
			w = r.CalculatedWeight
		}
		r.PricePerKg = perKg(price, w)
		line.PurchasePrice1 = rescale(r.Price, perKg(r.Price, r.CalculatedWeight), line.Weight)
		line.Supplier1 = r.SupplierLabel()
	}
	line.Recalculate()
	a.commit(s)
	return *line, nil
}

// UpdateLine inserts or updates a worksheet line and notifies the views.
func (a *Assigner) UpdateLine(s *Session, in model.WorksheetLine) (model.WorksheetLine, error) {
	l, err := s.UpsertLine(in)
	if err != nil {
		return model.WorksheetLine{}, err
	}
	out := *l
	a.commit(s)
	return out, nil
}

// RefreshWeights re-reads the weight table into articles and results after an import or edit.
// Results with a user-overridden weight keep it.
func (a *Assigner) RefreshWeights(s *Session) {
	s.BackfillWeights()
	for i := range s.Results {
		r := &s.Results[i]
		if r.Code != "" && s.Weights != nil {
			if e, ok := s.Weights.Get(r.Code); ok {
				r.Article.Weight = e.WeightKg
			}
		}
		if r.WeightOverridden {
			continue
		}
		reweigh(r, articleWeight(r.Article, s.Weights))
	}
	a.commit(s)
}

// reweigh sets a new weight on a result and keeps its per-kg figures consistent.
func reweigh(r *model.Result, w float64) {
	if r.CalculatedWeight == w {
		return
	}
	r.CalculatedWeight = w
	switch {
	case r.HasUserPrice && r.UserPriceType == model.PriceKg:
		r.PricePerPiece = r.PricePerKg.Mul(decimal.NewFromFloat(w)).Round(2)
	case r.HasUserPrice:
		r.PricePerKg = perKg(r.PricePerPiece, w)
	case !r.IsFirstChoice:
		r.PricePerKg = perKg(r.Price, w)
	}
}

func (a *Assigner) commit(s *Session) {
	SortResults(s.Results, a.order)
	a.notifier.Notify(s)
}

// applyUserPrice records an entered price on a result, per piece or per kg.
func applyUserPrice(r *model.Result, price decimal.Decimal, pt model.PriceType, weight float64) {
	r.HasUserPrice = true
	if pt == model.PriceKg {
		r.UserPriceType = model.PriceKg
		r.PricePerKg = price
		r.PricePerPiece = price
		if weight > 0 {
			r.PricePerPiece = price.Mul(decimal.NewFromFloat(weight)).Round(2)
		}
		return
	}
	r.UserPriceType = model.PricePiece
	r.PricePerPiece = price
	r.PricePerKg = perKg(price, weight)
}

// applyFirstChoice writes a first choice into its worksheet line: the entered price becomes
// the output price, the article price the first purchase price, both rescaled to the line weight.
func applyFirstChoice(line *model.WorksheetLine, r *model.Result, raw decimal.Decimal, weight float64) {
	if line == nil {
		return
	}
	line.OutputPrice = rescale(raw, r.PricePerKg, line.Weight)
	line.PurchasePrice1 = rescale(r.Price, perKg(r.Price, weight), line.Weight)
	line.Supplier1 = r.SupplierLabel()
	line.Recalculate()
}

// rescale converts a per-kg price to the line weight. A line weight of 0 (or an unknown
// per-kg price) keeps the raw price unscaled.
func rescale(raw, pricePerKg decimal.Decimal, lineWeight float64) decimal.Decimal {
	if lineWeight <= 0 || !pricePerKg.IsPositive() {
		return raw
	}
	return pricePerKg.Mul(decimal.NewFromFloat(lineWeight)).Round(2)
}

// ReplaceLines swaps in a new worksheet. Pricing of lines that keep their number carries over
// when the incoming line has none. Results whose line disappeared go to PENDING (dropped if
// the same article is already pending) and lose first-choice status.
func (a *Assigner) ReplaceLines(s *Session, lines []model.WorksheetLine) ([]model.ResultKey, error) {
	old := make(map[int]model.WorksheetLine, len(s.Lines))
	for _, l := range s.Lines {
		old[l.LineNumber] = l
	}
	merged := make([]model.WorksheetLine, len(lines))
	for i, l := range lines {
		if prev, ok := old[l.LineNumber]; ok && l.OutputPrice.IsZero() && l.PurchasePrice1.IsZero() && l.PurchasePrice2.IsZero() {
			l.OutputPrice = prev.OutputPrice
			l.PurchasePrice1, l.Supplier1 = prev.PurchasePrice1, prev.Supplier1
			l.PurchasePrice2, l.Supplier2 = prev.PurchasePrice2, prev.Supplier2
		}
		merged[i] = l
	}
	if err := s.SetLines(merged); err != nil {
		return nil, err
	}

	var orphaned []model.ResultKey
	kept := s.Results[:0]
	pending := make(map[int]struct{})
	for _, r := range s.Results {
		if r.LineNumber.IsPending() {
			pending[r.ID] = struct{}{}
		}
	}
	for _, r := range s.Results {
		if s.lineFor(r.LineNumber) == nil && !r.LineNumber.IsPending() {
			orphaned = append(orphaned, r.Key())
			delete(s.Selected, r.Key())
			if _, dup := pending[r.ID]; dup {
				continue
			}
			pending[r.ID] = struct{}{}
			r.LineNumber = model.Pending
			r.IsFirstChoice = false
		}
		kept = append(kept, r)
	}
	s.Results = kept
	for i := range s.Lines {
		s.Lines[i].FoundResultsCount = s.countResults(s.Lines[i].LineNumber)
	}
	if len(orphaned) > 0 {
		a.logger.Warn().Int("results", len(orphaned)).Msg("results moved to pending, their lines are gone")
	}
	a.commit(s)
	return orphaned, nil
}
