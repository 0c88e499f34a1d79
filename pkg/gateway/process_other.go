//go:build !unix

package gateway

import "os"

// checkProcess falls back to FindProcess, which opens a handle to the
// process on platforms without signal 0.
func checkProcess(pid int) processState {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return processGone
	}
	proc.Release()
	return processAlive
}
