// Package resource provides refcounted, typed handle tables.
//
// A Table maps small integer handles to Go values. Each entry carries a type
// tag and a reference count; Retain and Release adjust the count and the entry
// is destroyed when it drops to zero:
//
//	table := resource.NewTable()
//
//	h := table.Insert(programType, prog, 1)
//	table.Retain(h)              // refs = 2
//	table.Release(h)             // refs = 1
//	_, destroyed, _ := table.Release(h) // destroyed == true, prog.Drop() called
//
// Entries created with zero references are floating: they live until the
// first Retain and the matching Release.
//
// # Type Safety
//
// GetTyped only returns a value when the stored type tag matches:
//
//	v, ok := table.GetTyped(h, programType) // ok
//	v, ok := table.GetTyped(h, kernelType)  // !ok
//
// # Observers
//
// Observers see every lifecycle event, in order:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    if e.Type == resource.EventDestroyed {
//	        log.Printf("object %d destroyed", e.Handle)
//	    }
//	}))
//
// Handles of destroyed entries are recycled. Close destroys every live entry.
package resource
