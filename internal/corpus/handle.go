package corpus

import "sync/atomic"

type indexHolder struct {
	idx Index
}

// Handle publishes the serving index. Rebuilds swap in a new immutable
// index atomically; queries in flight keep using the instance they loaded,
// so no reader ever observes a partially built index.
type Handle struct {
	current atomic.Pointer[indexHolder]
}

func NewHandle(idx Index) *Handle {
	h := &Handle{}
	if idx != nil {
		h.current.Store(&indexHolder{idx: idx})
	}
	return h
}

// Load returns the current index, or nil when none has been published yet.
func (h *Handle) Load() Index {
	holder := h.current.Load()
	if holder == nil {
		return nil
	}
	return holder.idx
}

// Swap publishes a rebuilt index.
func (h *Handle) Swap(idx Index) {
	h.current.Store(&indexHolder{idx: idx})
}
