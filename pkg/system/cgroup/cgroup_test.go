//go:build linux

package cgroup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lineV2 = "35 24 0:30 / /sys/fs/cgroup rw,nosuid,nodev,noexec,relatime shared:9 - cgroup2 cgroup2 rw,nsdelegate"
	lineV1 = "40 33 0:35 / /sys/fs/cgroup/cpu,cpuacct rw,nosuid shared:15 - cgroup cgroup rw,cpu,cpuacct"
	lineFS = "22 1 259:2 / / rw,relatime shared:1 - ext4 /dev/nvme0n1p2 rw"
)

func TestParseMountinfo(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Mode
	}{
		{"none", []string{lineFS}, None},
		{"v1", []string{lineFS, lineV1}, V1},
		{"v2", []string{lineFS, lineV2}, V2},
		{"hybrid", []string{lineV1, lineV2}, Hybrid},
		{"garbage", []string{"nonsense", "1 2 - cgroup2"}, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseMountinfo(strings.NewReader(strings.Join(tt.lines, "\n")))
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.Mode)
		})
	}
}

func TestUnifiedPath(t *testing.T) {
	assert.Equal(t, "/user.slice/session-2.scope",
		unifiedPath("0::/user.slice/session-2.scope\n"))
	assert.Equal(t, "/system.slice",
		unifiedPath("12:cpu,cpuacct:/system.slice\n0::/system.slice\n"))
	assert.Empty(t, unifiedPath("4:memory:/docker/abc\n"))
}

func TestInfo_String(t *testing.T) {
	info := Info{Mode: Hybrid, V1Mounts: []string{"/a"}, V2Mounts: []string{"/b"}, Path: "/x"}
	assert.Equal(t, "hybrid on /b,/a (/x)", info.String())
	assert.Equal(t, "none", Info{}.String())
}

func TestDetect_Fixture(t *testing.T) {
	dir := t.TempDir()
	mi := filepath.Join(dir, "mountinfo")
	cg := filepath.Join(dir, "cgroup")
	require.NoError(t, os.WriteFile(mi, []byte(lineFS+"\n"+lineV2+"\n"), 0o644))
	require.NoError(t, os.WriteFile(cg, []byte("0::/pidwatch.service\n"), 0o644))

	oldMI, oldCG := mountinfoPath, cgroupPath
	mountinfoPath, cgroupPath = mi, cg
	t.Cleanup(func() { mountinfoPath, cgroupPath = oldMI, oldCG })

	info, err := Detect()
	require.NoError(t, err)
	assert.Equal(t, V2, info.Mode)
	assert.Equal(t, []string{"/sys/fs/cgroup"}, info.V2Mounts)
	assert.Equal(t, "/pidwatch.service", info.Path)
}

func TestDetect_Host(t *testing.T) {
	if _, err := os.Stat(mountinfoPath); err != nil {
		t.Skipf("no %s: %v", mountinfoPath, err)
	}
	info, err := Detect()
	require.NoError(t, err)
	t.Logf("detected %s", info)
}
