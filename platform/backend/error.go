package backend

import "errors"

var (
	ErrTimeout  = errors.New("hardware did not respond in time")
	ErrNoDevice = errors.New("no such device")
	ErrIO       = errors.New("hardware reported failure")
	// ErrOutOfMemory completes the error set; call buffers are fixed arrays,
	// so no path returns it.
	ErrOutOfMemory     = errors.New("out of memory")
	ErrInterrupted     = errors.New("interrupted while waiting")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupported     = errors.New("operation not supported by backend")
)
