package state

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/metrics"
)

const (
	DefaultDebounce    = 500 * time.Millisecond
	defaultSaveTimeout = 5 * time.Second
)

// ErrClosed is returned for writes to a store whose session was closed.
var ErrClosed = errors.New("wizard session is closed")

// Persister stores the serialized draft of one session. Load returns nil data when nothing is stored.
type Persister interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
	Clear(ctx context.Context) error
}

type Options struct {
	Debounce    time.Duration
	SaveTimeout time.Duration
	Now         func() time.Time
	Logger      logger.Logger
}

// Store is the single writer of a wizard session. Every mutation runs Derive and, when the state
// actually changed, bumps the revision and reschedules one debounced draft write.
type Store struct {
	mu       sync.Mutex
	saveMu   sync.Mutex
	state    WizardState
	revision uint64

	persister   Persister
	debounce    time.Duration
	saveTimeout time.Duration
	now         func() time.Time
	log         logger.Logger

	timer      *time.Timer
	generation uint64
	pending    []byte
	closed     bool
}

// NewStore hydrates a store from the persister. A missing or unreadable draft starts from defaults.
// A nil persister keeps the session in memory only.
func NewStore(ctx context.Context, p Persister, opts Options) *Store {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaultSaveTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}

	s := &Store{
		persister:   p,
		debounce:    opts.Debounce,
		saveTimeout: opts.SaveTimeout,
		now:         opts.Now,
		log:         opts.Logger,
		state:       Defaults(opts.Now()),
	}

	if p == nil {
		return s
	}

	data, err := p.Load(ctx)
	if err != nil {
		s.log.Warn("failed to load draft, starting empty", map[string]interface{}{"error": err.Error()})
		return s
	}
	hydrated, err := Hydrate(data, s.now())
	if err != nil {
		s.log.Warn("discarding unreadable draft", map[string]interface{}{"error": err.Error()})
		return s
	}
	s.state = hydrated
	return s
}

// Hydrate decodes a draft over the defaults. The file handle never survives hydration.
func Hydrate(data []byte, now time.Time) (WizardState, error) {
	defaults := Defaults(now)
	s := defaults
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s); err != nil {
			return defaults, err
		}
	}
	s.BankStatement = nil
	return Derive(defaults, s), nil
}

// Snapshot serializes s without the file handle.
func Snapshot(s WizardState) ([]byte, error) {
	s.BankStatement = nil
	return json.Marshal(s)
}

// State returns a copy of the current state.
func (s *Store) State() WizardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Revision counts effective changes since the store was created.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *Store) SetField(key string, value any) error {
	return s.update(func(next *WizardState) error {
		return assign(next, key, value)
	})
}

// SetNestedField writes a field of bestuurder1 or bestuurder2.
func (s *Store) SetNestedField(parent, key string, value any) error {
	return s.update(func(next *WizardState) error {
		return assignDirector(next, parent, key, value)
	})
}

// EnsureApplicationID generates the application id on first call and returns the existing one afterwards.
func (s *Store) EnsureApplicationID() string {
	var id string
	_ = s.update(func(next *WizardState) error {
		if next.ApplicationID == nil {
			generated := GenerateApplicationID(*next, s.now())
			next.ApplicationID = &generated
		}
		id = *next.ApplicationID
		return nil
	})
	return id
}

// SetBankStatement holds file in memory. A nil file removes the statement and withdraws consent.
func (s *Store) SetBankStatement(file *FileHandle) {
	_ = s.update(func(next *WizardState) error {
		next.BankStatement = file
		if file == nil {
			next.BankStatementName = ""
			next.BankStatementSize = 0
			next.BankStatementConsent = false
			return nil
		}
		next.BankStatementName = file.Name
		next.BankStatementSize = file.Size
		return nil
	})
}

func (s *Store) MarkBankStatementUploaded() {
	_ = s.update(func(next *WizardState) error {
		next.BankStatementUploaded = true
		return nil
	})
}

func (s *Store) SetFolderID(id string) {
	_ = s.update(func(next *WizardState) error {
		next.FolderID = &id
		return nil
	})
}

func (s *Store) update(mutate func(next *WizardState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	next := s.state
	if err := mutate(&next); err != nil {
		return err
	}
	next = Derive(s.state, next)
	if reflect.DeepEqual(s.state, next) {
		return nil
	}
	s.state = next
	s.revision++
	s.schedule()
	return nil
}

// schedule must be called with mu held.
func (s *Store) schedule() {
	if s.persister == nil {
		return
	}
	snapshot, err := Snapshot(s.state)
	if err != nil {
		s.log.Error("failed to serialize draft", map[string]interface{}{"error": err.Error()})
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	s.pending = snapshot
	gen := s.generation
	s.timer = time.AfterFunc(s.debounce, func() { s.flushGeneration(gen) })
}

func (s *Store) flushGeneration(gen uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if gen != s.generation || s.pending == nil {
		s.mu.Unlock()
		return
	}
	data := s.pending
	s.pending = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	s.save(ctx, data)
}

func (s *Store) save(ctx context.Context, data []byte) error {
	if err := s.persister.Save(ctx, data); err != nil {
		metrics.WizardDraftSaves.WithLabelValues("error").Inc()
		s.log.Warn("failed to save draft", map[string]interface{}{"error": err.Error()})
		return err
	}
	metrics.WizardDraftSaves.WithLabelValues("ok").Inc()
	return nil
}

// Flush writes a pending draft immediately instead of waiting for the debounce timer.
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	data := s.pending
	s.pending = nil
	s.mu.Unlock()

	if data == nil {
		return nil
	}
	return s.save(ctx, data)
}

// Clear resets the session to defaults, application id included, and removes the stored draft.
func (s *Store) Clear(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	s.pending = nil
	s.state = Defaults(s.now())
	s.revision++
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	return s.persister.Clear(ctx)
}

// Close flushes the pending draft. Every later write is rejected with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	return s.Flush(ctx)
}
