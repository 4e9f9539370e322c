package util

import "runtime"

// GetOptimalPoolSize sizes CPU-bound pools: twice the core count, at least
// 4 and at most 32. Parsing spends most of its time in cgo, so more workers
// than cores keeps the CPUs busy.
//
// The loader's worker pool and the per-language parser pools both use this
// value, so a worker never waits on a parser.
func GetOptimalPoolSize() int {
	return min(max(runtime.NumCPU()*2, 4), 32)
}

// GetOptimalPoolSizeWithOverride returns override when positive and
// GetOptimalPoolSize otherwise.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
