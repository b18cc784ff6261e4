//go:build linux

package main

import (
	"github.com/ja7ad/pidwatch/pkg/system/proc"
)

func clockTicks() int { return proc.ClockTicks() }

// expandTrees replaces every pid with itself and its descendants.
func expandTrees(pids []int) []int {
	var out []int
	for _, p := range pids {
		out = append(out, proc.ReadProcTree(p)...)
	}
	return out
}
