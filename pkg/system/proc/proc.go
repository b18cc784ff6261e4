//go:build linux

package proc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// procRoot is the mount point of procfs.
var procRoot = "/proc"

// Stat is the subset of /proc/<pid>/stat used for CPU accounting.
type Stat struct {
	PID   int
	Comm  string
	State string
	// UTime and STime are clock ticks spent in user and kernel mode.
	UTime uint64
	STime uint64
}

// ClockTicks is the tick rate of the utime/stime fields. CLK_TCK in the
// environment overrides it; otherwise it is USER_HZ, which the kernel fixes
// at 100 for every architecture pidwatch builds for.
func ClockTicks() int {
	v, _ := strconv.Atoi(os.Getenv("CLK_TCK"))
	if v > 0 {
		return v
	}
	return 100
}

// Exists reports whether /proc/<pid> is a directory, i.e. whether the
// process has not been reaped.
func Exists(pid int) bool {
	fi, err := os.Stat(filepath.Join(procRoot, strconv.Itoa(pid)))
	return err == nil && fi.IsDir()
}

// ReadProcStat reads the stat line of pid. An exited or unknown process
// yields an error matching fs.ErrNotExist; the sampler prunes on it.
func ReadProcStat(pid int) (Stat, error) {
	if pid <= 0 {
		return Stat{}, fmt.Errorf("proc: invalid pid %d: %w", pid, os.ErrNotExist)
	}
	f, err := os.Open(filepath.Join(procRoot, strconv.Itoa(pid), "stat"))
	if err != nil {
		return Stat{}, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Stat{}, err
		}
		return Stat{}, ErrNoStat
	}
	return parseStat(pid, sc.Text())
}

func parseStat(pid int, line string) (Stat, error) {
	open := strings.IndexByte(line, '(')
	i := strings.LastIndex(line, ") ")
	if open < 0 || i < open {
		return Stat{}, ErrNoStat
	}
	fields := strings.Fields(line[i+2:])

	// fields[0] is state (field 3 of stat(5)); utime and stime are 14 and 15
	if len(fields) < 13 {
		return Stat{}, ErrShortStat
	}
	ut, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("proc: utime: %w", err)
	}
	st, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("proc: stime: %w", err)
	}
	return Stat{
		PID:   pid,
		Comm:  line[open+1 : i],
		State: fields[0],
		UTime: ut,
		STime: st,
	}, nil
}

// ReadProcChildren lists the children of every thread of pid, sorted and
// without repeats. It returns ErrNoChildren when there are none, including
// when the process is gone.
func ReadProcChildren(pid int) ([]int, error) {
	glob := filepath.Join(procRoot, strconv.Itoa(pid), "task", "*", "children")
	paths, _ := filepath.Glob(glob)
	set := map[int]struct{}{}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		for _, s := range strings.Fields(string(b)) {
			if id, err := strconv.Atoi(s); err == nil {
				set[id] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, ErrNoChildren
	}
	slices.Sort(out)
	return out, nil
}

// ReadProcTree returns pid followed by all of its descendants, breadth first.
func ReadProcTree(pid int) []int {
	out := []int{pid}
	seen := map[int]struct{}{pid: {}}
	for i := 0; i < len(out); i++ {
		children, err := ReadProcChildren(out[i])
		if err != nil {
			continue
		}
		for _, c := range children {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
