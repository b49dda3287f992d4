// Package hardware reports the resources the process may use.
package hardware

import (
	"runtime"
)

// GetCPUNum returns the number of CPUs the scheduler runs goroutines on.
// With automaxprocs imported by main this honors the container CPU quota.
func GetCPUNum() int {
	return runtime.GOMAXPROCS(0)
}
