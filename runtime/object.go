package runtime

import (
	"sync/atomic"

	xpuinterop "github.com/wippyai/xpu-interop"
	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// refCounted is the lifetime core shared by managed objects. The backend
// release entry point runs when the last reference goes away, and only for
// objects the runtime owns.
type refCounted struct {
	release   func() dispatch.Result
	onDestroy func() error
	object    string
	op        string
	refs      atomic.Int32
	ownership xpuinterop.Ownership
}

func (r *refCounted) init(object string, ownership xpuinterop.Ownership, op string, release func() dispatch.Result) {
	r.object = object
	r.ownership = ownership
	r.op = op
	r.release = release
	r.refs.Store(1)
}

// Ownership reports whether the runtime releases the native resource.
func (r *refCounted) Ownership() xpuinterop.Ownership {
	return r.ownership
}

// Retain adds a reference to the managed object.
func (r *refCounted) Retain() {
	r.refs.Add(1)
}

// Release drops a reference. The last Release destroys the object.
func (r *refCounted) Release() error {
	n := r.refs.Add(-1)
	if n > 0 {
		return nil
	}
	if n < 0 {
		r.refs.Store(0)
		return errors.New(errors.PhaseRelease, errors.KindInvalidObjectReference).
			Object(r.object).
			Detail("release of destroyed object").
			Build()
	}

	var err error
	if r.ownership == xpuinterop.Owned && r.release != nil {
		if res := r.release(); res != dispatch.ResultSuccess {
			e := errors.BackendCallFailed(errors.PhaseRelease, r.op, int32(res))
			e.Object = r.object
			e.Detail = res.String()
			err = e
		}
	}
	if r.onDestroy != nil {
		if derr := r.onDestroy(); err == nil {
			err = derr
		}
	}
	return err
}

// Destroyed reports whether the last reference has been released.
func (r *refCounted) Destroyed() bool {
	return r.refs.Load() <= 0
}
