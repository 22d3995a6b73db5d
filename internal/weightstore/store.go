// Package weightstore holds the code-keyed weight table. Reads are served from memory;
// edits are applied locally and then pushed to a remote Writer on a best-effort basis.
package weightstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"troskovnik-service/internal/workbook/model"
)

// Writer persists one edited entry. It runs in the background; its errors are only logged.
type Writer interface {
	Name() string
	Push(ctx context.Context, e model.WeightEntry) error
}

// Loader reads the whole table, used to bootstrap the store at startup.
type Loader interface {
	Load(ctx context.Context) ([]model.WeightEntry, error)
}

// NopWriter keeps the table in memory only.
type NopWriter struct{}

func (NopWriter) Name() string                                  { return "none" }
func (NopWriter) Push(context.Context, model.WeightEntry) error { return nil }

type Store struct {
	mu      sync.RWMutex
	entries map[string]model.WeightEntry

	writer  Writer
	timeout time.Duration
	logger  zerolog.Logger
	pushes  sync.WaitGroup
}

func New(w Writer, timeout time.Duration, logger zerolog.Logger) *Store {
	if w == nil {
		w = NopWriter{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{
		entries: make(map[string]model.WeightEntry),
		writer:  w,
		timeout: timeout,
		logger:  logger.With().Str("component", "weightstore").Str("writer", w.Name()).Logger(),
	}
}

func normCode(code string) string { return strings.TrimSpace(code) }

// Get is safe on a nil Store.
func (s *Store) Get(code string) (model.WeightEntry, bool) {
	if s == nil {
		return model.WeightEntry{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[normCode(code)]
	return e, ok
}

func (s *Store) Has(code string) bool {
	_, ok := s.Get(code)
	return ok
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// All returns the entries ordered by code.
func (s *Store) All() []model.WeightEntry {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	out := make([]model.WeightEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Replace swaps in a whole imported table. Rows without a code are skipped, later rows win.
// Nothing is pushed.
func (s *Store) Replace(entries []model.WeightEntry) int {
	m := make(map[string]model.WeightEntry, len(entries))
	for _, e := range entries {
		e.Code = normCode(e.Code)
		if e.Code == "" {
			continue
		}
		m[e.Code] = e
	}
	s.mu.Lock()
	s.entries = m
	s.mu.Unlock()
	s.logger.Info().Int("entries", len(m)).Msg("weight table replaced")
	return len(m)
}

// Bootstrap fills the table from a loader.
func (s *Store) Bootstrap(ctx context.Context, l Loader) error {
	entries, err := l.Load(ctx)
	if err != nil {
		return err
	}
	s.Replace(entries)
	return nil
}

// Update stores e locally and returns at once; the push to the writer runs in the
// background under the store timeout. A failed push never rolls back the local entry.
func (s *Store) Update(ctx context.Context, e model.WeightEntry) model.WeightEntry {
	e.Code = normCode(e.Code)
	s.mu.Lock()
	s.entries[e.Code] = e
	s.mu.Unlock()

	s.pushes.Add(1)
	go func() {
		defer s.pushes.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		start := time.Now()
		if err := s.writer.Push(pctx, e); err != nil {
			s.logger.Error().Err(err).Str("code", e.Code).Msg("weight push failed, keeping local value")
			return
		}
		s.logger.Debug().Str("code", e.Code).Dur("dur", time.Since(start)).Msg("weight pushed")
	}()
	return e
}

// Wait blocks until in-flight pushes finish.
func (s *Store) Wait() { s.pushes.Wait() }
