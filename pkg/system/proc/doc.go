// Package proc reads per-process accounting data straight from the Linux
// /proc filesystem without cgo or third-party dependencies.
//
// It backs the default CPU-time source of the sampler (ReadProcStat), the
// liveness check used to classify lookup errors (Exists), and the --tree
// expansion of the CLI (ReadProcChildren, ReadProcTree).
//
// # Stat parsing
//
// The second field of /proc/<pid>/stat is the command name in parentheses and
// may itself contain spaces or parentheses. The parser anchors on the last
// ") " in the line and indexes the remaining fields from there, so
//
//	1234 (my (odd) proc) S 1 ...
//
// still yields the right utime (14th field overall) and stime (15th).
//
// # Errors (errs.go)
//
//	ErrNoStat     : stat file empty or without the comm delimiter
//	ErrShortStat  : fewer fields than needed for utime/stime
//	ErrNoChildren : no child PIDs found
//
// # Testing
//
// The CLK_TCK environment variable overrides the tick rate; the package level
// procRoot can be pointed at a fixture tree by in-package tests.
package proc
