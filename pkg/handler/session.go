package handler

import (
	"io"
	"sync"
)

// Session is a read cursor over one rendered snapshot, the way an open file
// descriptor tracks its offset. The first read delivers the snapshot; every
// later read reports end of stream until Reset.
type Session struct {
	src Reader

	mu  sync.Mutex
	off int64
}

// Reader renders a snapshot for a cursor at off, cut to max bytes.
type Reader interface {
	Read(off int64, max int) []byte
}

// Service is the read/write contract the transports expose.
type Service interface {
	Reader
	Write(p []byte) (int, error)
}

// NewSession returns a cursor over src positioned at the start.
func NewSession(src Reader) *Session {
	return &Session{src: src}
}

// NewSession returns a cursor over h positioned at the start.
func (h *Handler) NewSession() *Session { return NewSession(h) }

// Next returns up to max bytes of the snapshot and advances the cursor by the
// number of bytes returned.
func (s *Session) Next(max int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.src.Read(s.off, max)
	s.off += int64(len(b))
	return b
}

// Read implements io.Reader with the same cursor semantics as Next.
func (s *Session) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b := s.Next(len(p))
	if len(b) == 0 {
		return 0, io.EOF
	}
	return copy(p, b), nil
}

// Offset returns the number of bytes delivered so far.
func (s *Session) Offset() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.off
}

// Reset rewinds the cursor so the next read renders a fresh snapshot.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.off = 0
}
