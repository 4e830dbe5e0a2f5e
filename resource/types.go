package resource

// Handle is an opaque reference to an object in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// TypeID tags the kind of object stored under a handle.
type TypeID uint32

// Event types for object lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetained
	EventReleased
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventRetained:
		return "retained"
	case EventReleased:
		return "released"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event represents an object lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	TypeID TypeID
	Refs   uint32 // reference count after the event
	Type   EventType
}

// Observer receives notifications about object lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Store provides the underlying refcounted storage.
type Store interface {
	// Create stores a value with the given initial reference count and returns its handle.
	Create(typeID TypeID, value any, refs uint32) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Retain increments the reference count. It returns the new count.
	Retain(handle Handle) (uint32, bool)

	// Release decrements the reference count. When the count reaches zero the
	// entry is removed and destroyed is true.
	Release(handle Handle) (value any, refs uint32, destroyed bool, ok bool)

	// Close releases all entries held by the store.
	Close() error
}

// Dropper is optionally implemented by stored values that need cleanup when
// their last reference goes away.
type Dropper interface {
	Drop()
}
