package resource

import (
	"sync"
)

// Table is a refcounted typed object table with lifecycle observers.
type Table struct {
	store     *LocalStore
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new table backed by a LocalStore.
func NewTable() *Table {
	return &Table{
		store: NewLocalStore(),
	}
}

// Insert adds a value with refs initial references and returns its handle.
// It returns 0 once the table is closed.
func (t *Table) Insert(typeID TypeID, value any, refs uint32) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.store.Create(typeID, value, refs)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Refs:   refs,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	return t.store.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *Table) GetTyped(handle Handle, typeID TypeID) (any, bool) {
	actual, ok := t.store.TypeID(handle)
	if !ok || actual != typeID {
		return nil, false
	}
	return t.store.Get(handle)
}

// Refs returns the current reference count of handle.
func (t *Table) Refs(handle Handle) (uint32, bool) {
	return t.store.Refs(handle)
}

// Retain adds a reference to handle.
func (t *Table) Retain(handle Handle) bool {
	typeID, _ := t.store.TypeID(handle)
	refs, ok := t.store.Retain(handle)
	if !ok {
		return false
	}

	value, _ := t.store.Get(handle)
	t.notify(Event{
		Type:   EventRetained,
		Handle: handle,
		TypeID: typeID,
		Refs:   refs,
		Value:  value,
	})
	return true
}

// Release drops a reference to handle. When the last reference goes away the
// value's Drop method, if any, is called and destroyed is true.
func (t *Table) Release(handle Handle) (value any, destroyed bool, ok bool) {
	typeID, _ := t.store.TypeID(handle)
	value, refs, destroyed, ok := t.store.Release(handle)
	if !ok {
		return nil, false, false
	}

	t.notify(Event{
		Type:   EventReleased,
		Handle: handle,
		TypeID: typeID,
		Refs:   refs,
		Value:  value,
	})

	if destroyed {
		if d, ok := value.(Dropper); ok {
			d.Drop()
		}
		t.notify(Event{
			Type:   EventDestroyed,
			Handle: handle,
			TypeID: typeID,
			Value:  value,
		})
	}

	return value, destroyed, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of live objects.
func (t *Table) Len() int {
	return t.store.Len()
}

// Each iterates over all live objects.
func (t *Table) Each(fn func(Handle, TypeID, any) bool) {
	t.store.Each(fn)
}

// Close destroys all objects and stops accepting inserts.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.store.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
