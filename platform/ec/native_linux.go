package ec

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

func (s *SysfsEC) Read(addr byte) (byte, error) {
	fd, err := unix.Open(s.Path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open EC file: %w", err)
	}
	defer unix.Close(fd)

	b := make([]byte, 1)
	n, err := unix.Pread(fd, b, int64(addr))
	if err != nil {
		return 0, fmt.Errorf("failed to read from byte %#x: %w", addr, err)
	}
	if n != 1 {
		return 0, fmt.Errorf("failed to read from byte %#x: %w", addr, io.ErrUnexpectedEOF)
	}
	return b[0], nil
}

func (s *SysfsEC) Write(addr, v byte) error {
	fd, err := unix.Open(s.Path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open EC file: %w", err)
	}
	defer unix.Close(fd)

	n, err := unix.Pwrite(fd, []byte{v}, int64(addr))
	if err != nil {
		return fmt.Errorf("failed to write value %d to byte %#x: %w", v, addr, err)
	}
	if n != 1 {
		return fmt.Errorf("failed to write value %d to byte %#x: %w", v, addr, io.ErrShortWrite)
	}
	return nil
}
