//go:build !linux

package fusefs

import (
	"log/slog"
	"time"

	"github.com/ja7ad/pidwatch/pkg/handler"
)

type Options struct {
	AttrTimeout  time.Duration
	EntryTimeout time.Duration
	Debug        bool
}

type Mount struct{}

func New(dir string, svc handler.Service, logger *slog.Logger, o Options) (*Mount, error) {
	return nil, ErrUnsupported
}

func (m *Mount) Dir() string           { return "" }
func (m *Mount) Wait()                 {}
func (m *Mount) Done() <-chan struct{} { return nil }
func (m *Mount) Unmount() error        { return ErrUnsupported }
