// Package fusefs mounts a directory holding a single "status" file backed by
// a handler.Service. Writing a PID to the file registers it; reading the file
// returns the status table.
//
//	echo 1234 > /mnt/pidwatch/status
//	cat /mnt/pidwatch/status
package fusefs

import "errors"

// FileName is the name of the status file under the mount point.
const FileName = "status"

var (
	// ErrUnsupported is returned by New on platforms without FUSE support.
	ErrUnsupported = errors.New("fusefs: unsupported on this platform")

	// ErrUnmounted reports a mount that went away while the agent was running.
	ErrUnmounted = errors.New("fusefs: unmounted externally")
)
