package dispatch

// NativeProperties is passed to every create-with-native-handle entry point.
// IsNativeHandleOwned tells the backend that the object it creates owns the
// native handle and must release it when the object is released.
type NativeProperties struct {
	IsNativeHandleOwned bool
}

// QueueFlags are the queue creation flags encoded from a property list.
type QueueFlags uint32

const (
	QueueFlagOutOfOrderExec QueueFlags = 1 << iota
	QueueFlagProfiling
	QueueFlagPriorityLow
	QueueFlagPriorityHigh
	QueueFlagDiscardEvents
)

// Has reports whether all bits of f are set.
func (q QueueFlags) Has(f QueueFlags) bool { return q&f == f }

// QueueNativeDesc carries a backend-specific descriptor for the native queue.
type QueueNativeDesc struct {
	NativeData int32
}

// QueueProperties holds flags plus an optional native descriptor.
type QueueProperties struct {
	Next  *QueueNativeDesc
	Flags QueueFlags
}

// QueueNativeProperties is the head of the queue import property chain.
type QueueNativeProperties struct {
	Next                *QueueProperties
	IsNativeHandleOwned bool
}
