//go:build linux

package fusefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/ja7ad/pidwatch/pkg/handler"
	"github.com/ja7ad/pidwatch/pkg/registry"
)

// Mode of the status file. Any local user may register a PID.
const Mode = 0o666

type root struct {
	fs.Inode

	svc    handler.Service
	logger *slog.Logger
}

func (r *root) OnAdd(ctx context.Context) {
	child := r.NewPersistentInode(ctx, &statusNode{svc: r.svc, logger: r.logger},
		fs.StableAttr{Mode: fuse.S_IFREG})
	r.AddChild(FileName, child, true)
}

var _ = (fs.NodeOnAdder)((*root)(nil))

type statusNode struct {
	fs.Inode

	svc    handler.Service
	logger *slog.Logger
}

var (
	_ = (fs.NodeOpener)((*statusNode)(nil))
	_ = (fs.NodeGetattrer)((*statusNode)(nil))
	_ = (fs.NodeSetattrer)((*statusNode)(nil))
)

// Open hands out a handle per open file. Direct I/O keeps the page cache
// from serving stale tables.
func (n *statusNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return &statusHandle{svc: n.svc, logger: n.logger}, fuse.FOPEN_DIRECT_IO, fs.OK
}

func (n *statusNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = fuse.S_IFREG | Mode
	// the table size is unknown until it is rendered
	out.Size = 0
	return fs.OK
}

// Setattr accepts the truncate issued by "echo pid > status".
func (n *statusNode) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return n.Getattr(ctx, f, out)
}

type statusHandle struct {
	svc    handler.Service
	logger *slog.Logger
}

var (
	_ = (fs.FileReader)((*statusHandle)(nil))
	_ = (fs.FileWriter)((*statusHandle)(nil))
)

// Read uses the kernel file offset as the cursor: offset 0 renders a
// snapshot cut to the buffer, any later offset is end of file.
func (h *statusHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	return fuse.ReadResultData(h.svc.Read(off, len(dest))), fs.OK
}

func (h *statusHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := h.svc.Write(data)
	if err != nil {
		h.logger.Debug("write rejected", "err", err)
		return 0, errno(err)
	}
	return uint32(n), fs.OK
}

func errno(err error) syscall.Errno {
	switch {
	case errors.Is(err, handler.ErrWriteTooLarge):
		return syscall.EFBIG
	case errors.Is(err, handler.ErrParse):
		return syscall.EINVAL
	case errors.Is(err, registry.ErrFull):
		return syscall.ENOSPC
	default:
		return syscall.EIO
	}
}

// Mount is a mounted status filesystem.
type Mount struct {
	dir    string
	server *fuse.Server
	logger *slog.Logger
	done   chan struct{}
}

// Options tune the mount. The zero value is usable.
type Options struct {
	// AttrTimeout and EntryTimeout default to one second.
	AttrTimeout  time.Duration
	EntryTimeout time.Duration
	Debug        bool
}

// New mounts the status filesystem at dir.
func New(dir string, svc handler.Service, logger *slog.Logger, o Options) (*Mount, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "fuse", "dir", dir)

	attr, entry := o.AttrTimeout, o.EntryTimeout
	if attr == 0 {
		attr = time.Second
	}
	if entry == 0 {
		entry = time.Second
	}
	opts := &fs.Options{
		AttrTimeout:  &attr,
		EntryTimeout: &entry,
	}
	opts.Debug = o.Debug
	opts.FsName = "pidwatch"
	opts.Name = "pidwatch"

	server, err := fs.Mount(dir, &root{svc: svc, logger: logger}, opts)
	if err != nil {
		return nil, fmt.Errorf("fusefs: mount %s: %w", dir, err)
	}
	logger.Info("mounted", "file", FileName)

	m := &Mount{dir: dir, server: server, logger: logger, done: make(chan struct{})}
	go func() {
		server.Wait()
		close(m.done)
	}()
	return m, nil
}

// Dir returns the mount point.
func (m *Mount) Dir() string { return m.dir }

// Wait blocks until the filesystem is unmounted.
func (m *Mount) Wait() { <-m.done }

// Done is closed once the filesystem is unmounted, by Unmount or from
// outside (fusermount -u).
func (m *Mount) Done() <-chan struct{} { return m.done }

// Unmount detaches the filesystem.
func (m *Mount) Unmount() error {
	if err := m.server.Unmount(); err != nil {
		return fmt.Errorf("fusefs: unmount %s: %w", m.dir, err)
	}
	m.logger.Info("unmounted")
	return nil
}
