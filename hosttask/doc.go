// Package hosttask provides native handle access from inside a host task.
//
// A host task runs user code on the host with a queue, device and context
// bound by the scheduler. Handle exposes their native handles, and the native
// handles of the memory objects captured for the task, so the code can call
// the vendor API directly.
package hosttask
