package resource

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("resource store closed")

// LocalStore is an in-memory refcounted store. Handles are recycled after
// their entry is destroyed.
//
// An entry may be created with zero references. Such a floating entry stays
// alive until it is retained and then released back to zero.
type LocalStore struct {
	entries  []entry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value  any
	typeID TypeID
	refs   uint32
	valid  bool
}

// NewLocalStore creates a new in-memory store.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Create stores a value and returns a handle.
func (s *LocalStore) Create(typeID TypeID, value any, refs uint32) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	e := entry{
		typeID: typeID,
		value:  value,
		refs:   refs,
		valid:  true,
	}

	if len(s.freeList) > 0 {
		handle := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.entries[handle-1] = e
		return handle, nil
	}

	s.entries = append(s.entries, e)
	return Handle(len(s.entries)), nil
}

// lookup returns the live entry for handle. Callers hold s.mu.
func (s *LocalStore) lookup(handle Handle) *entry {
	if handle == 0 || int(handle-1) >= len(s.entries) {
		return nil
	}
	e := &s.entries[handle-1]
	if !e.valid {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (s *LocalStore) Get(handle Handle) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// TypeID returns the type ID for a handle.
func (s *LocalStore) TypeID(handle Handle) (TypeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.typeID, true
}

// Refs returns the current reference count for a handle.
func (s *LocalStore) Refs(handle Handle) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.refs, true
}

// Retain increments the reference count for a handle.
func (s *LocalStore) Retain(handle Handle) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(handle)
	if e == nil || e.refs == ^uint32(0) {
		return 0, false
	}
	e.refs++
	return e.refs, true
}

// Release decrements the reference count for a handle and removes the entry
// when it reaches zero.
func (s *LocalStore) Release(handle Handle) (any, uint32, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(handle)
	if e == nil || e.refs == 0 {
		return nil, 0, false, false
	}

	e.refs--
	if e.refs > 0 {
		return e.value, e.refs, false, true
	}

	value := e.value
	e.valid = false
	e.value = nil
	s.freeList = append(s.freeList, handle)
	return value, 0, true, true
}

// Close destroys all live entries.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for i := range s.entries {
		if s.entries[i].valid {
			if d, ok := s.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			s.entries[i].valid = false
			s.entries[i].value = nil
		}
	}

	s.entries = nil
	s.freeList = nil
	return nil
}

// Len returns the number of live entries.
func (s *LocalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all live entries.
func (s *LocalStore) Each(fn func(Handle, TypeID, any) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, e := range s.entries {
		if e.valid {
			if !fn(Handle(i+1), e.typeID, e.value) {
				break
			}
		}
	}
}
