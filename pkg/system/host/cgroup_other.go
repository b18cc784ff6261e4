//go:build !linux

package host

func cgroupMode() (string, error) { return "none", nil }
