package service

import (
	"sort"

	"troskovnik-service/internal/workbook/model"
)

const snapshotVersion = 1

// Snapshot is the full, re-hydratable state of a session.
type Snapshot struct {
	Version   int                   `json:"version"`
	SessionID string                `json:"sessionId,omitempty"`
	Articles  []model.Article       `json:"articles"`
	Results   []model.Result        `json:"results"`
	Lines     []model.WorksheetLine `json:"lines"`
	Selection Selection             `json:"selection"`
}

type Selection struct {
	Selected []model.ResultKey `json:"selected"`
	Excluded []int             `json:"excluded"`
}

// RepairReport lists what Restore had to fix to bring a snapshot back to a valid state.
type RepairReport struct {
	DuplicateLines      []int             `json:"duplicateLines,omitempty"`
	InvalidLines        []int             `json:"invalidLines,omitempty"`
	DuplicateResults    []model.ResultKey `json:"duplicateResults,omitempty"`
	DemotedFirstChoices []model.ResultKey `json:"demotedFirstChoices,omitempty"`
	OrphanedResults     []model.ResultKey `json:"orphanedResults,omitempty"` // line missing, moved to PENDING
	DroppedSelections   int               `json:"droppedSelections,omitempty"`
}

func (r RepairReport) Clean() bool {
	return len(r.DuplicateLines) == 0 && len(r.InvalidLines) == 0 &&
		len(r.DuplicateResults) == 0 && len(r.DemotedFirstChoices) == 0 &&
		len(r.OrphanedResults) == 0 && r.DroppedSelections == 0
}

// Export copies the session state into a snapshot.
func Export(s *Session) Snapshot {
	return Snapshot{
		Version:   snapshotVersion,
		SessionID: s.ID,
		Articles:  append([]model.Article(nil), s.Articles...),
		Results:   append([]model.Result(nil), s.Results...),
		Lines:     append([]model.WorksheetLine(nil), s.Lines...),
		Selection: s.Selection(),
	}
}

// Selection copies the selection sets in a stable order.
func (s *Session) Selection() Selection {
	var sel Selection
	for k := range s.Selected {
		sel.Selected = append(sel.Selected, k)
	}
	sort.Slice(sel.Selected, func(i, j int) bool {
		a, b := sel.Selected[i], sel.Selected[j]
		if c := a.Line.Compare(b.Line); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	for id := range s.Excluded {
		sel.Excluded = append(sel.Excluded, id)
	}
	sort.Ints(sel.Excluded)
	return sel
}

// SetSelected marks or unmarks results; keys of unknown results are ignored.
func (s *Session) SetSelected(keys []model.ResultKey, selected bool) {
	for _, k := range keys {
		if !selected {
			delete(s.Selected, k)
			continue
		}
		if s.findResult(k) >= 0 {
			s.Selected[k] = struct{}{}
		}
	}
}

// Restore replaces the session state with a snapshot, repairing broken invariants instead
// of rejecting the whole file. The weight table of the session is kept.
func (a *Assigner) Restore(s *Session, snap Snapshot) RepairReport {
	var rep RepairReport

	lines := make([]model.WorksheetLine, 0, len(snap.Lines))
	lineSeen := make(map[int]struct{}, len(snap.Lines))
	for _, l := range snap.Lines {
		if l.LineNumber <= 0 {
			rep.InvalidLines = append(rep.InvalidLines, l.LineNumber)
			continue
		}
		if _, dup := lineSeen[l.LineNumber]; dup {
			rep.DuplicateLines = append(rep.DuplicateLines, l.LineNumber)
			continue
		}
		lineSeen[l.LineNumber] = struct{}{}
		lines = append(lines, l)
	}

	results := make([]model.Result, 0, len(snap.Results))
	keySeen := make(map[model.ResultKey]struct{}, len(snap.Results))
	firstSeen := make(map[model.LineNumber]struct{})
	for _, r := range snap.Results {
		if n, ok := r.LineNumber.Number(); ok {
			if _, exists := lineSeen[n]; !exists {
				rep.OrphanedResults = append(rep.OrphanedResults, r.Key())
				r.LineNumber = model.Pending
			}
		}
		k := r.Key()
		if _, dup := keySeen[k]; dup {
			rep.DuplicateResults = append(rep.DuplicateResults, k)
			continue
		}
		keySeen[k] = struct{}{}
		if r.IsFirstChoice {
			_, taken := firstSeen[r.LineNumber]
			if taken || r.LineNumber.IsPending() {
				rep.DemotedFirstChoices = append(rep.DemotedFirstChoices, k)
				r.IsFirstChoice = false
			} else {
				firstSeen[r.LineNumber] = struct{}{}
			}
		}
		results = append(results, r)
	}

	if snap.SessionID != "" {
		s.ID = snap.SessionID
	}
	s.SetCatalog(append([]model.Article(nil), snap.Articles...))
	s.Results = results
	// validated above, cannot fail
	_ = s.SetLines(lines)

	s.Selected = make(map[model.ResultKey]struct{}, len(snap.Selection.Selected))
	for _, k := range snap.Selection.Selected {
		if _, ok := keySeen[k]; !ok {
			rep.DroppedSelections++
			continue
		}
		s.Selected[k] = struct{}{}
	}
	s.Excluded = make(map[int]struct{}, len(snap.Selection.Excluded))
	for _, id := range snap.Selection.Excluded {
		s.Excluded[id] = struct{}{}
	}

	s.nextManualID = manualIDBase
	for _, r := range s.Results {
		if r.ID < syntheticFloor && r.ID > s.nextManualID {
			s.nextManualID = r.ID
		}
	}

	if !rep.Clean() {
		a.logger.Warn().
			Int("duplicateResults", len(rep.DuplicateResults)).
			Int("demoted", len(rep.DemotedFirstChoices)).
			Int("orphaned", len(rep.OrphanedResults)).
			Int("duplicateLines", len(rep.DuplicateLines)).
			Msg("snapshot repaired")
	}
	a.commit(s)
	return rep
}
