package fleet

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Listener is told about every dispatch after the state has been committed.
// Calls arrive in commit order, one at a time, so a listener must not block.
type Listener interface {
	Applied(ctx context.Context, root Action, applied []Action)
	Rejected(ctx context.Context, root Action, err error)
}

// Store holds the current state. Dispatches are serialized: an action and all
// of its cascades are applied before the next dispatch or read sees the state.
type Store struct {
	mu        sync.RWMutex
	notifyMu  sync.Mutex
	state     State
	listeners []Listener
	logger    *log.Logger
}

// NewStore creates a store seeded with a copy of initial.
func NewStore(initial State, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{state: initial.Clone(), logger: logger}
}

// AddListener registers l for all later dispatches.
func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Dispatch validates and applies a top-level action. It returns the applied
// actions in order, the first being the resolved action unless it named an
// unknown entity. On error the state is left unchanged.
func (s *Store) Dispatch(ctx context.Context, action Action) ([]Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	action = Resolve(s.state, action)
	err := Validate(s.state, action)
	var applied []Action
	if err == nil {
		var next State
		next, applied, err = Apply(s.state, action)
		if err == nil {
			s.state = next
		}
	}
	listeners := append([]Listener(nil), s.listeners...)
	// Taken before releasing mu so the next commit cannot notify first.
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	entry := s.logger.WithFields(log.Fields{"kind": action.Kind(), "action": action})
	if err != nil {
		entry.WithError(err).Warn("Rejected fleet action")
		for _, l := range listeners {
			l.Rejected(ctx, action, err)
		}
		return nil, err
	}

	if len(applied) == 0 {
		entry.Debug("Fleet action matched nothing")
	} else {
		entry.WithField("steps", len(applied)).Info("Applied fleet action")
	}
	for _, l := range listeners {
		l.Applied(ctx, action, applied)
	}
	return applied, nil
}
