//go:build !unix

package subprocess

import "os"

// signalName is a no-op on platforms without wait-status signal reporting.
func signalName(_ *os.ProcessState) string {
	return ""
}
