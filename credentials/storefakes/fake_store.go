package storefakes

import (
	"sync"

	"github.com/causal/go-doodle/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store for tests. It counts Save and
// Delete calls so tests can assert on persistence side effects.
type FakeStore struct {
	set     credentials.Set
	Saves   int
	Deletes int
	LoadErr error
	SaveErr error
	lock    sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{set: credentials.Set{}}
}

func (s *FakeStore) Load() (credentials.Set, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return s.set.Clone(), nil
}

func (s *FakeStore) Save(set credentials.Set) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Saves++
	s.set = set.Clone()
	return nil
}

func (s *FakeStore) Delete() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Deletes++
	s.set = credentials.Set{}
	return nil
}
