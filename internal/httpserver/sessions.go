package httpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/metrics"
	"subsidy-wizard/internal/wizard/orchestrator"
	"subsidy-wizard/internal/wizard/signing"
	"subsidy-wizard/internal/wizard/state"
	"subsidy-wizard/internal/wizard/tenant"
)

// DraftSource hands out the draft persister of a session.
type DraftSource interface {
	For(sessionID string) (state.Persister, error)
}

type SessionOptions struct {
	Backend  orchestrator.Backend
	Debounce time.Duration
	Tracer   trace.Tracer
	Now      func() time.Time
	Logger   logger.Logger
}

// Sessions keeps the wizards of recently active sessions in memory. A session that is not in
// memory is hydrated from its draft on first use.
type Sessions struct {
	mu     sync.Mutex
	active map[string]*liveSession

	drafts DraftSource
	opts   SessionOptions
	log    logger.Logger
}

type liveSession struct {
	wizard   *orchestrator.Wizard
	lastSeen time.Time
}

func NewSessions(drafts DraftSource, opts SessionOptions) *Sessions {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Sessions{
		active: make(map[string]*liveSession),
		drafts: drafts,
		opts:   opts,
		log:    opts.Logger,
	}
}

// Open returns the wizard of id, hydrating it from the draft store when it is not in memory.
func (s *Sessions) Open(ctx context.Context, id string, t tenant.Config) (*orchestrator.Wizard, error) {
	if w := s.touch(id); w != nil {
		return w, nil
	}

	persister, err := s.drafts.For(id)
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", id, err)
	}
	log := s.log.WithFields(map[string]interface{}{"sessionId": id})
	store := state.NewStore(ctx, persister, state.Options{
		Debounce: s.opts.Debounce,
		Now:      s.opts.Now,
		Logger:   log,
	})
	w := orchestrator.New(store, s.opts.Backend, t, orchestrator.Options{
		Builder: signing.Builder{ReturnBaseURL: t.PublicBaseURL, Now: s.opts.Now},
		Logger:  log,
		Tracer:  s.opts.Tracer,
		Now:     s.opts.Now,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.active[id]; ok {
		// Another request hydrated the same session first.
		existing.lastSeen = s.opts.Now()
		store.Close()
		return existing.wizard, nil
	}
	s.active[id] = &liveSession{wizard: w, lastSeen: s.opts.Now()}
	metrics.WizardActiveSessions.Set(float64(len(s.active)))
	return w, nil
}

func (s *Sessions) touch(id string) *orchestrator.Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.active[id]
	if !ok {
		return nil
	}
	live.lastSeen = s.opts.Now()
	return live.wizard
}

// Drop forgets a session without flushing it.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	metrics.WizardActiveSessions.Set(float64(len(s.active)))
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Evict drops sessions idle for longer than maxIdle after flushing their drafts. A session is
// closed before it leaves memory; requests still holding its wizard get state.ErrClosed. It
// returns how many sessions were dropped.
func (s *Sessions) Evict(maxIdle time.Duration) int {
	cutoff := s.opts.Now().Add(-maxIdle)

	s.mu.Lock()
	idle := make(map[string]*liveSession)
	for id, live := range s.active {
		if live.lastSeen.Before(cutoff) {
			idle[id] = live
		}
	}
	s.mu.Unlock()

	for id, live := range idle {
		if err := live.wizard.Store().Close(); err != nil {
			s.log.Warn("failed to flush evicted session", map[string]interface{}{
				"sessionId": id,
				"error":     err.Error(),
			})
		}
	}

	s.mu.Lock()
	for id, live := range idle {
		if s.active[id] == live {
			delete(s.active, id)
		}
	}
	metrics.WizardActiveSessions.Set(float64(len(s.active)))
	s.mu.Unlock()
	return len(idle)
}

// Run evicts idle sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(maxIdle); n > 0 {
				s.log.Debug("evicted idle sessions", map[string]interface{}{"count": n})
			}
		}
	}
}

// Close flushes every session still in memory.
func (s *Sessions) Close() {
	s.mu.Lock()
	live := s.active
	s.active = make(map[string]*liveSession)
	metrics.WizardActiveSessions.Set(0)
	s.mu.Unlock()

	for id, l := range live {
		if err := l.wizard.Store().Close(); err != nil {
			s.log.Warn("failed to flush session on shutdown", map[string]interface{}{
				"sessionId": id,
				"error":     err.Error(),
			})
		}
	}
}
