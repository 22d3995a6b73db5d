package service

// Stage is one downstream consumer refreshed after every committed mutation.
// Stages always run in declaration order.
type Stage int

const (
	StageResultsView Stage = iota
	StageWorksheetView
	StageRebateTable
	stageCount
)

// RefreshFunc recomputes a view from the current session. It must not mutate the session.
type RefreshFunc func(*Session)

// Notifier pushes refresh signals to the registered views, synchronously and in order.
type Notifier struct {
	subs [stageCount][]RefreshFunc
}

func NewNotifier() *Notifier { return &Notifier{} }

// Subscribe registers fn for a stage. Subscribers of one stage run in registration order.
func (n *Notifier) Subscribe(stage Stage, fn RefreshFunc) {
	if stage < 0 || stage >= stageCount || fn == nil {
		return
	}
	n.subs[stage] = append(n.subs[stage], fn)
}

// Notify runs every stage. A nil Notifier is a no-op.
func (n *Notifier) Notify(s *Session) {
	if n == nil {
		return
	}
	for _, fns := range n.subs {
		for _, fn := range fns {
			fn(s)
		}
	}
}
