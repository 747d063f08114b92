// system.go captures a runtime context block at event time.

package faultline

import (
	"os"
	"runtime"
)

// RuntimeContext captures process metrics at the current moment as a context
// block, suitable for Event.Contexts["runtime"].
func RuntimeContext() Context {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hostname, _ := os.Hostname() // Ignore error, empty hostname is acceptable

	return Context{
		"go_version":         runtime.Version(),
		"goroutines":         runtime.NumGoroutine(),
		"num_cpu":            runtime.NumCPU(),
		"memory_alloc_bytes": int64(memStats.Alloc),
		"hostname":           hostname,
	}
}
