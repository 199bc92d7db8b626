// Package spec defines the execution specification and resource limits.
package spec

import "time"

// Default limits applied when a problem does not configure its own.
const (
	DefaultTimeLimitSec   = 3.0
	DefaultMemoryLimitMB  = 256
	DefaultCompileTimeout = 10 * time.Second
)

// ResourceLimit describes limits enforced for one program execution.
// MemoryLimitMB is best effort: on hosts that cannot report per-process
// memory the limit is simply never triggered.
type ResourceLimit struct {
	TimeLimitSec  float64
	MemoryLimitMB int64
}

// WithDefaults fills zero fields with the default limits.
func (r ResourceLimit) WithDefaults() ResourceLimit {
	if r.TimeLimitSec <= 0 {
		r.TimeLimitSec = DefaultTimeLimitSec
	}
	if r.MemoryLimitMB <= 0 {
		r.MemoryLimitMB = DefaultMemoryLimitMB
	}
	return r
}

// WallTime returns the wall-clock limit as a duration.
func (r ResourceLimit) WallTime() time.Duration {
	return time.Duration(r.TimeLimitSec * float64(time.Second))
}

// MemoryLimitKB returns the memory ceiling in kilobytes, 0 when unlimited.
func (r ResourceLimit) MemoryLimitKB() int64 {
	if r.MemoryLimitMB <= 0 {
		return 0
	}
	return r.MemoryLimitMB * 1024
}
