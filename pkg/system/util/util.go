package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyPID is returned when there is nothing to parse.
	ErrEmptyPID = errors.New("util: empty pid")

	// ErrBadRange is returned for a PID range whose end precedes its start.
	ErrBadRange = errors.New("util: bad pid range")
)

// maxRange caps how many PIDs a single "a..b" argument may expand to.
const maxRange = 1 << 16

// TrimTerminator strips surrounding whitespace and trailing NUL bytes, the
// terminators a shell `echo` or a C client leave behind.
func TrimTerminator(b []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}

// ParsePID parses a single base-10, optionally signed, PID.
func ParsePID(s string) (int, error) {
	if s == "" {
		return 0, ErrEmptyPID
	}
	v, err := strconv.ParseInt(s, 10, strconv.IntSize)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// ParsePIDs expands CLI arguments of the form PID or PID..PID into a flat
// list, preserving argument order.
func ParsePIDs(args []string) ([]int, error) {
	var out []int
	for _, a := range args {
		a = strings.TrimSpace(a)
		lo, hi, isRange := strings.Cut(a, "..")
		if !isRange {
			pid, err := ParsePID(a)
			if err != nil {
				return nil, fmt.Errorf("pid %q: %w", a, err)
			}
			out = append(out, pid)
			continue
		}

		from, err := ParsePID(lo)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", a, err)
		}
		to, err := ParsePID(hi)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", a, err)
		}
		// the span is taken in uint64 so extreme bounds cannot wrap
		if to < from || uint64(to)-uint64(from) >= maxRange {
			return nil, fmt.Errorf("range %q: %w", a, ErrBadRange)
		}
		span := to - from
		for i := 0; i <= span; i++ {
			out = append(out, from+i)
		}
	}
	return out, nil
}
