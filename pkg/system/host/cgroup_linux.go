//go:build linux

package host

import "github.com/ja7ad/pidwatch/pkg/system/cgroup"

func cgroupMode() (string, error) {
	info, err := cgroup.Detect()
	if err != nil {
		return "", err
	}
	return info.String(), nil
}
