//go:build !linux

package machine

import (
	"runtime"
	"sync"
)

// LocalIRQ pins the calling goroutine to its OS thread and counts open
// sections. Without a thread id the flags only carry the depth seen at
// Disable.
type LocalIRQ struct {
	mu sync.Mutex
	n  uint32
}

func NewLocalIRQ() *LocalIRQ {
	return &LocalIRQ{}
}

func (l *LocalIRQ) Disable() IRQFlags {
	runtime.LockOSThread()

	l.mu.Lock()
	prev := l.n
	l.n++
	l.mu.Unlock()
	return IRQFlags(prev)
}

func (l *LocalIRQ) Restore(flags IRQFlags) {
	l.mu.Lock()
	if l.n > 0 {
		l.n--
	}
	l.mu.Unlock()
	runtime.UnlockOSThread()
}

// Depth is the number of open sections; zero when none is open.
func (l *LocalIRQ) Depth() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}
