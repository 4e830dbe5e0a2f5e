// Package runtime holds the managed object model that imported native objects
// are wrapped into.
//
// Platforms and devices are deduplicated by a Registry and live as long as it
// does. Contexts, queues, events, device images, kernel bundles and kernels are
// reference counted:
//
//	q := runtime.NewQueue(handle, ctx, dev, props, xpuinterop.Owned)
//	q.Retain()
//	q.Release()
//	q.Release() // last reference: QueueRelease is called, then ctx.Release
//
// The backend release entry point is only called for objects created with
// Owned; for NotOwned objects the caller keeps responsibility for the native
// handle and the runtime never releases it. Ownership is fixed at construction.
//
// Dependent objects hold references to what they were created against: a queue
// or event keeps its context alive, a kernel keeps its context and bundle alive,
// and a bundle keeps its images alive.
package runtime
