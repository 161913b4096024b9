package machine

import (
	"fmt"
	"sync"
)

// Regions reserves I/O port ranges for exclusive use, the way a driver
// claims ports before touching them.
type Regions interface {
	Request(start, n uint64, name string) error
	Release(start, n uint64) error
}

type region struct {
	start, n uint64
	name     string
}

// ResourceMap is an in-process reservation table. Ranges may not overlap.
type ResourceMap struct {
	mu   sync.Mutex
	held []region
}

func (r *ResourceMap) Request(start, n uint64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.held {
		if start < h.start+h.n && h.start < start+n {
			return fmt.Errorf("%#x-%#x held by %s: %w", h.start, h.start+h.n-1, h.name, ErrRegionBusy)
		}
	}
	r.held = append(r.held, region{start: start, n: n, name: name})
	return nil
}

func (r *ResourceMap) Release(start, n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, h := range r.held {
		if h.start == start && h.n == n {
			r.held = append(r.held[:i], r.held[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%#x-%#x: %w", start, start+n-1, ErrRegionNotHeld)
}

// Held reports how many ranges are currently reserved.
func (r *ResourceMap) Held() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.held)
}

func (r *ResourceMap) IsHeld(start uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.held {
		if start >= h.start && start < h.start+h.n {
			return true
		}
	}
	return false
}
