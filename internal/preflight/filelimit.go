package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors is the descriptor limit below which a bleve-backed
// legacy store with many indexes may run out of files.
const MinFileDescriptors = 1024

// CheckFileDescriptors warns when the open-file limit is low.
func (c *Checker) CheckFileDescriptors() CheckResult {
	const name = "file_descriptors"

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return warn(name, fmt.Sprintf("failed to check file descriptor limit: %v", err), "")
	}

	msg := fmt.Sprintf("%d (minimum: %d)", rLimit.Cur, MinFileDescriptors)
	if rLimit.Cur < MinFileDescriptors {
		return warn(name, msg, "Run 'ulimit -n 10240' to increase the limit")
	}
	return pass(name, msg, false)
}
