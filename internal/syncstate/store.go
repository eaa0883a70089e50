// Package syncstate keeps a presentation-facing copy of one trip's
// sub-resource list in sync with the API without refetching after every
// mutation. Clients apply each successful mutation result locally, flag
// rows with an in-flight request so their controls can be disabled
// individually, and surface failures for a single display cycle.
package syncstate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nmhoang/tripmate/backend/internal/domain"
)

// DefaultErrorTTL is how long a failure message stays visible before it
// auto-dismisses.
const DefaultErrorTTL = 5 * time.Second

// Store holds the local sub-resource list for one (trip, kind) view.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	items    []domain.SubResource
	inFlight map[uuid.UUID]bool
	errMsg   string
	errTimer *time.Timer
	errTTL   time.Duration
}

// NewStore constructs an empty Store whose failure messages dismiss after
// errTTL. Pass 0 to use DefaultErrorTTL.
func NewStore(errTTL time.Duration) *Store {
	if errTTL <= 0 {
		errTTL = DefaultErrorTTL
	}
	return &Store{
		inFlight: make(map[uuid.UUID]bool),
		errTTL:   errTTL,
	}
}

// Replace swaps in a freshly fetched list, e.g. after first load.
func (s *Store) Replace(items []domain.SubResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.SubResource(nil), items...)
}

// ApplyCreated appends the entity returned by a successful create.
func (s *Store) ApplyCreated(sr domain.SubResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, sr)
}

// ApplyUpdated replaces the entry with a matching ID. An unknown ID is a
// no-op; the caller's list was stale and the next Replace will reconcile.
func (s *Store) ApplyUpdated(sr domain.SubResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if existing.ID == sr.ID {
			s.items[i] = sr
			return
		}
	}
}

// ApplyDeleted removes the entry with a matching ID.
func (s *Store) ApplyDeleted(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if existing.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Items returns a copy of the current list.
func (s *Store) Items() []domain.SubResource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SubResource(nil), s.items...)
}

// Begin marks id as having an in-flight mutation so the UI can disable that
// row's controls. Creates use uuid.Nil as the placeholder identifier.
func (s *Store) Begin(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[id] = true
}

// End clears the in-flight flag for id.
func (s *Store) End(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// InFlight reports whether id has a mutation in flight.
func (s *Store) InFlight(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[id]
}

// Fail records a failure message. The local list is left untouched and the
// message auto-dismisses after the store's TTL; mutations are never retried
// from here. A newer failure resets the clock.
func (s *Store) Fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
	if s.errTimer != nil {
		s.errTimer.Stop()
	}
	s.errTimer = time.AfterFunc(s.errTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.errMsg = ""
	})
}

// Err returns the currently surfaced failure message, or "" once dismissed.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}
