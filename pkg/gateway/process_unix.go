//go:build unix

package gateway

import (
	"errors"

	"golang.org/x/sys/unix"
)

// checkProcess sends the null signal to pid. Non-positive pids address
// process groups, never a single process.
func checkProcess(pid int) processState {
	if pid <= 0 {
		return processGone
	}
	err := unix.Kill(pid, 0)
	switch {
	case err == nil:
		return processAlive
	case errors.Is(err, unix.EPERM):
		return processDenied
	default:
		return processGone
	}
}
