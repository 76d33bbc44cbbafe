//go:build linux

package ioguard

import (
	"os"
	"syscall"
)

func dup(fd int) (*os.File, error) {
	newFd, err := syscall.Dup(fd)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(newFd), "ioguard-saved-fd"), nil
}

func dup2(oldFd, newFd int) error {
	return syscall.Dup3(oldFd, newFd, 0)
}
