package machine

import (
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// LocalIRQ pins the calling goroutine to its OS thread for the duration of
// the section and tracks the nesting depth per thread. It is the closest a
// user space process gets to local_irq_save.
type LocalIRQ struct {
	mu    sync.Mutex
	depth map[int]uint32
}

func NewLocalIRQ() *LocalIRQ {
	return &LocalIRQ{depth: make(map[int]uint32)}
}

func (l *LocalIRQ) Disable() IRQFlags {
	runtime.LockOSThread()
	tid := unix.Gettid()

	l.mu.Lock()
	prev := l.depth[tid]
	l.depth[tid] = prev + 1
	l.mu.Unlock()
	return IRQFlags(prev)
}

func (l *LocalIRQ) Restore(flags IRQFlags) {
	tid := unix.Gettid()

	l.mu.Lock()
	if flags == 0 {
		delete(l.depth, tid)
	} else {
		l.depth[tid] = uint32(flags)
	}
	l.mu.Unlock()
	runtime.UnlockOSThread()
}

// Depth is the total nesting over all threads; zero when no section is open.
func (l *LocalIRQ) Depth() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n uint32
	for _, d := range l.depth {
		n += d
	}
	return n
}
