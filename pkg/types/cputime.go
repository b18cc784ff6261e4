package types

import (
	"fmt"
	"strconv"
	"time"
)

// CPUTime is an accumulated CPU time expressed in clock ticks (jiffies),
// the unit the kernel uses for utime/stime in /proc/<pid>/stat.
type CPUTime uint64

// FromSeconds converts a duration in seconds to ticks at the given tick rate.
// Negative inputs and non-positive rates yield 0.
func FromSeconds(sec float64, hz int) CPUTime {
	if sec <= 0 || hz <= 0 {
		return 0
	}
	return CPUTime(sec*float64(hz) + 0.5)
}

// Seconds returns the CPU time in seconds for a tick rate of hz.
func (c CPUTime) Seconds(hz int) float64 {
	if hz <= 0 {
		return 0
	}
	return float64(c) / float64(hz)
}

// Duration returns the CPU time as a time.Duration for a tick rate of hz.
func (c CPUTime) Duration(hz int) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(c) * time.Second / time.Duration(hz)
}

// Humanized returns a human-readable CPU time, e.g. "1m2.5s (6250 ticks)".
func (c CPUTime) Humanized(hz int) string {
	return fmt.Sprintf("%s (%d ticks)", c.Duration(hz), uint64(c))
}

// String renders the raw tick count in base 10.
func (c CPUTime) String() string { return strconv.FormatUint(uint64(c), 10) }

// ToUint64 returns the raw tick count.
func (c CPUTime) ToUint64() uint64 { return uint64(c) }
