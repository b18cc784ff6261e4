// Package handler implements the textual read/write contract on top of a
// registry: a write registers one PID, a read renders every tracked entry as
//
//	PID<pid>: <cpu_time>\n
//
// in registration order.
package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ja7ad/pidwatch/pkg/registry"
	"github.com/ja7ad/pidwatch/pkg/system/util"
)

// MaxWriteSize is the largest write payload accepted.
const MaxWriteSize = 1024

// Handler serves reads and writes against a registry. It keeps no state of
// its own and is safe for concurrent use.
type Handler struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// New returns a Handler. A nil logger falls back to slog.Default().
func New(reg *registry.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reg: reg, logger: logger.With("component", "handler")}
}

// Write parses p as a single base-10, optionally signed PID and registers it.
// A trailing newline or NUL terminator is tolerated. On success the whole
// input is reported consumed.
func (h *Handler) Write(p []byte) (int, error) {
	if len(p) > MaxWriteSize {
		metricWrites.WithLabelValues("too_large").Inc()
		return 0, ErrWriteTooLarge
	}

	text := util.TrimTerminator(p)
	pid, err := util.ParsePID(text)
	if err != nil {
		metricWrites.WithLabelValues("parse_error").Inc()
		h.logger.Warn("rejected write", "input", text, "err", err)
		return 0, &ParseError{Input: text, Err: err}
	}

	if err := h.reg.Insert(pid); err != nil {
		metricWrites.WithLabelValues("rejected").Inc()
		h.logger.Warn("registry refused pid", "pid", pid, "err", err)
		return 0, err
	}

	metricWrites.WithLabelValues("ok").Inc()
	h.logger.Debug("registered pid", "pid", pid)
	return len(p), nil
}

// Read renders the current snapshot. A non-zero off means the caller's cursor
// is past the start of a previously delivered snapshot, and the result is
// empty (end of stream). The output is cut to max bytes; a negative max
// means no limit.
func (h *Handler) Read(off int64, max int) []byte {
	if off != 0 || max == 0 {
		return nil
	}

	// the registry lock is released before formatting
	out := Render(h.reg.Snapshot())
	metricReads.Inc()

	if max > 0 && len(out) > max {
		metricTruncated.Inc()
		h.logger.Debug("snapshot truncated", "size", len(out), "max", max)
		out = out[:max]
	}
	return out
}

// Render formats entries, one line per entry.
func Render(entries []registry.Entry) []byte {
	// "PID" + ": " + "\n" plus room for two typical numbers
	out := make([]byte, 0, len(entries)*24)
	for _, e := range entries {
		out = AppendEntry(out, e)
	}
	return out
}

// AppendEntry appends the line for e to dst.
func AppendEntry(dst []byte, e registry.Entry) []byte {
	dst = append(dst, "PID"...)
	dst = strconv.AppendInt(dst, int64(e.PID), 10)
	dst = append(dst, ": "...)
	dst = strconv.AppendUint(dst, e.CPUTime.ToUint64(), 10)
	return append(dst, '\n')
}

// IsClientError reports whether err was caused by the request payload
// rather than by the registry.
func IsClientError(err error) bool {
	return errors.Is(err, ErrParse) || errors.Is(err, ErrWriteTooLarge)
}
