//go:build linux

// Package cgroup reports which cgroup hierarchy the host mounts and where the
// current process sits in it.
package cgroup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

type Mode int

const (
	None   Mode = iota // no cgroup filesystem mounted
	V1                 // legacy per-controller hierarchies
	V2                 // unified hierarchy
	Hybrid             // v1 controllers next to a unified mount
)

func (m Mode) String() string {
	switch m {
	case V1:
		return "v1"
	case V2:
		return "v2"
	case Hybrid:
		return "hybrid"
	default:
		return "none"
	}
}

// Info describes the cgroup setup seen by this process.
type Info struct {
	Mode Mode
	// V1Mounts and V2Mounts are mount points, in mountinfo order.
	V1Mounts []string
	V2Mounts []string
	// Path is the unified (v2) cgroup of the process, "" if unknown.
	Path string
}

var (
	mountinfoPath = "/proc/self/mountinfo"
	cgroupPath    = "/proc/self/cgroup"
)

// Detect reads the mount table and cgroup membership of the current process.
func Detect() (Info, error) {
	f, err := os.Open(mountinfoPath)
	if err != nil {
		return Info{}, fmt.Errorf("cgroup: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := parseMountinfo(f)
	if err != nil {
		return Info{}, fmt.Errorf("cgroup: %w", err)
	}

	// membership is informational; a missing file leaves Path empty
	if b, err := os.ReadFile(cgroupPath); err == nil {
		info.Path = unifiedPath(string(b))
	}
	return info, nil
}

// parseMountinfo collects cgroup mounts. A line is
// "<id> <parent> <maj:min> <root> <mountpoint> ... - <fstype> <source> <opts>".
func parseMountinfo(r io.Reader) (Info, error) {
	var info Info
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		pre, post, ok := strings.Cut(line, " - ")
		if !ok {
			continue
		}
		pf := strings.Fields(pre)
		tf := strings.Fields(post)
		if len(pf) < 5 || len(tf) < 1 {
			continue
		}
		switch tf[0] {
		case "cgroup2":
			info.V2Mounts = append(info.V2Mounts, pf[4])
		case "cgroup":
			info.V1Mounts = append(info.V1Mounts, pf[4])
		}
	}
	if err := sc.Err(); err != nil {
		return Info{}, err
	}

	switch v1, v2 := len(info.V1Mounts) > 0, len(info.V2Mounts) > 0; {
	case v1 && v2:
		info.Mode = Hybrid
	case v2:
		info.Mode = V2
	case v1:
		info.Mode = V1
	}
	return info, nil
}

// unifiedPath returns the path of the "0::<path>" line of /proc/<pid>/cgroup.
func unifiedPath(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	i := slices.IndexFunc(lines, func(l string) bool { return strings.HasPrefix(l, "0::") })
	if i < 0 {
		return ""
	}
	return strings.TrimPrefix(lines[i], "0::")
}

// String renders the info on one line, e.g. "v2 on /sys/fs/cgroup (/user.slice)".
func (i Info) String() string {
	var b strings.Builder
	b.WriteString(i.Mode.String())
	if mounts := append(slices.Clone(i.V2Mounts), i.V1Mounts...); len(mounts) > 0 {
		b.WriteString(" on ")
		b.WriteString(strings.Join(mounts, ","))
	}
	if i.Path != "" {
		fmt.Fprintf(&b, " (%s)", i.Path)
	}
	return b.String()
}
