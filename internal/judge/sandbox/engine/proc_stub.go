//go:build !linux

package engine

import (
	"errors"
	"os"
	"syscall"
)

var errRSSUnsupported = errors.New("rss sampling unsupported")

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Kill()
	}
}

// sampleRSSKB has no portable implementation; memory limits degrade to
// best effort and the run is supervised by time and correctness only.
func sampleRSSKB(pid int) (int64, error) {
	return 0, errRSSUnsupported
}
