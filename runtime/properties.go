package runtime

import "github.com/wippyai/xpu-interop/dispatch"

// QueueOrder is the execution order of a queue.
type QueueOrder uint8

const (
	OutOfOrder QueueOrder = iota
	Ordered
)

func (o QueueOrder) String() string {
	if o == Ordered {
		return "ordered"
	}
	return "out_of_order"
}

// QueuePriority selects a backend scheduling priority.
type QueuePriority uint8

const (
	PriorityNormal QueuePriority = iota
	PriorityLow
	PriorityHigh
)

// QueueProperties is the property list of a queue.
type QueueProperties struct {
	// ComputeIndex selects a compute slice of the device. It cannot be
	// applied to an imported queue.
	ComputeIndex    *int32
	InOrder         bool
	EnableProfiling bool
	DiscardEvents   bool
	Priority        QueuePriority
}

// Order returns the execution order requested by the properties.
func (p QueueProperties) Order() QueueOrder {
	if p.InOrder {
		return Ordered
	}
	return OutOfOrder
}

// QueueFlags encodes a property list and an execution order into backend
// queue flags.
func QueueFlags(p QueueProperties, order QueueOrder) dispatch.QueueFlags {
	var flags dispatch.QueueFlags
	if order == OutOfOrder {
		flags |= dispatch.QueueFlagOutOfOrderExec
	}
	if p.EnableProfiling {
		flags |= dispatch.QueueFlagProfiling
	}
	switch p.Priority {
	case PriorityLow:
		flags |= dispatch.QueueFlagPriorityLow
	case PriorityHigh:
		flags |= dispatch.QueueFlagPriorityHigh
	}
	if p.DiscardEvents {
		flags |= dispatch.QueueFlagDiscardEvents
	}
	return flags
}
