// Package refdata holds the reference data needed to build trade queries
// and keeps it in sync with the remote API.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domain "github.com/zhuliguang/Sidekick/pkg/types"
)

// Kind names a reference collection.
type Kind string

// Reference collections.
const (
	KindLeagues Kind = "leagues"
	KindStatic  Kind = "static"
	KindStats   Kind = "stats"
	KindItems   Kind = "items"
)

// Kinds lists every reference collection.
var Kinds = []Kind{KindLeagues, KindStatic, KindStats, KindItems}

// Path returns the remote API path serving the collection.
func (k Kind) Path() string {
	return "data/" + string(k)
}

// ErrKindMismatch is returned by Set when data does not hold the collection
// type of kind. The store performs no other validation.
var ErrKindMismatch = errors.New("data does not match kind")

// Store is the in-memory holder of the reference collections and the
// readiness flag. Readers always observe a whole snapshot.
type Store struct {
	mu      sync.RWMutex
	data    domain.ReferenceDataSet
	ready   bool
	readyCh chan struct{}
}

// NewStore creates an empty, not-ready Store.
func NewStore() *Store {
	return &Store{readyCh: make(chan struct{})}
}

// Set replaces one collection. It does not change readiness. Data of the
// wrong type leaves the collection untouched.
func (s *Store) Set(kind Kind, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := false
	switch kind {
	case KindLeagues:
		if v, match := data.([]domain.League); match {
			s.data.Leagues, ok = v, true
		}
	case KindStatic:
		if v, match := data.([]domain.StaticCategory); match {
			s.data.StaticItemCategories, ok = v, true
		}
	case KindStats:
		if v, match := data.([]domain.AttributeCategory); match {
			s.data.AttributeCategories, ok = v, true
		}
	case KindItems:
		if v, match := data.([]domain.ItemCategory); match {
			s.data.ItemCategories, ok = v, true
		}
	default:
		return fmt.Errorf("unknown reference kind %q", kind)
	}
	if !ok {
		return fmt.Errorf("%w: %s got %T", ErrKindMismatch, kind, data)
	}
	return nil
}

// Get returns one collection, or false while it is absent.
func (s *Store) Get(kind Kind) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch kind {
	case KindLeagues:
		return s.data.Leagues, s.data.Leagues != nil
	case KindStatic:
		return s.data.StaticItemCategories, s.data.StaticItemCategories != nil
	case KindStats:
		return s.data.AttributeCategories, s.data.AttributeCategories != nil
	case KindItems:
		return s.data.ItemCategories, s.data.ItemCategories != nil
	}
	return nil, false
}

// Commit stores a complete set and marks the store ready in one step.
func (s *Store) Commit(set domain.ReferenceDataSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = set
	if !s.ready {
		s.ready = true
		close(s.readyCh)
	}
}

// Reset clears every collection and the readiness flag.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = domain.ReferenceDataSet{}
	if s.ready {
		s.ready = false
		s.readyCh = make(chan struct{})
	}
}

// Ready reports whether a complete set has been committed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// WaitReady blocks until the store is ready or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	s.mu.RLock()
	ch := s.readyCh
	s.mu.RUnlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for reference data: %w", ctx.Err())
	}
}

// Snapshot returns the current collections.
func (s *Store) Snapshot() domain.ReferenceDataSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Leagues returns the league collection.
func (s *Store) Leagues() []domain.League {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Leagues
}

// League looks up a league by id.
func (s *Store) League(id string) (domain.League, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.data.Leagues {
		if l.ID == id {
			return l, true
		}
	}
	return domain.League{}, false
}
