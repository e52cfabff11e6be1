//go:build unix

package subprocess

import (
	"os"
	"syscall"
)

// signalName extracts the terminating signal's name, if any.
func signalName(ps *os.ProcessState) string {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if ok && ws.Signaled() {
		return ws.Signal().String()
	}

	return ""
}
