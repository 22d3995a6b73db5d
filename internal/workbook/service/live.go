package service

import (
	"sync"
	"time"

	"troskovnik-service/internal/workbook/model"
)

// DefaultDebounce is the keystroke coalescing delay of the live search.
const DefaultDebounce = 300 * time.Millisecond

// LiveSearch coalesces rapid query input into a single search. Every Input resets the
// pending timer; a search whose input was superseded never delivers its results.
type LiveSearch struct {
	delay   time.Duration
	run     func(query string) []model.Result
	deliver func(query string, results []model.Result)

	mu       sync.Mutex
	timer    *time.Timer
	gen      uint64
	query    string
	inflight sync.WaitGroup
}

// NewLiveSearch wires the search function and the consumer of its output.
// run is called on a timer goroutine; it must take whatever lock guards the session.
func NewLiveSearch(delay time.Duration, run func(string) []model.Result, deliver func(string, []model.Result)) *LiveSearch {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &LiveSearch{delay: delay, run: run, deliver: deliver}
}

// Input schedules a search for query, cancelling any pending one.
func (l *LiveSearch) Input(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()
	l.gen++
	gen := l.gen
	l.query = query
	l.inflight.Add(1)
	l.timer = time.AfterFunc(l.delay, func() {
		defer l.inflight.Done()
		l.fire(gen, query)
	})
}

// Cancel drops the pending search, if any. A search already running will not deliver.
func (l *LiveSearch) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	l.gen++
}

// Flush runs a pending search at once and waits for one already running.
func (l *LiveSearch) Flush() {
	l.mu.Lock()
	pending := l.stopLocked()
	gen, query := l.gen, l.query
	l.mu.Unlock()

	if pending {
		l.fire(gen, query)
	}
	l.inflight.Wait()
}

func (l *LiveSearch) fire(gen uint64, query string) {
	if !l.current(gen) {
		return
	}
	res := l.run(query)
	if !l.current(gen) {
		return
	}
	l.deliver(query, res)
}

// stopLocked reports whether a timer was stopped before it fired.
func (l *LiveSearch) stopLocked() bool {
	t := l.timer
	l.timer = nil
	if t != nil && t.Stop() {
		l.inflight.Done()
		return true
	}
	return false
}

func (l *LiveSearch) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen == gen
}
