package kernel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// HostInfo describes the machine schedcore believes it is booting on:
// the real host's kernel identity (useful context in a boot banner,
// the way any kernel prints a version string at startup) plus the
// simulated CPU count this boot configured for its scheduler loops
// (which need not match the real host's core count -- the whole point
// of a teaching kernel is to run with a small, fixed NCPU).
type HostInfo struct {
	KernelType    string
	KernelRelease string
	Machine       string
	SimulatedNCPU int
}

// Banner renders a one-line boot banner in the style of a real
// kernel's startup message.
func (h HostInfo) Banner() string {
	return fmt.Sprintf("schedcore booting: %s %s/%s, %d simulated CPU(s)",
		h.KernelType, h.KernelRelease, h.Machine, h.SimulatedNCPU)
}

// DescribeHost reads the real host's uname(2) identity via
// golang.org/x/sys/unix and pairs it with the simulated CPU count this
// boot is configured for.
func DescribeHost(simulatedNCPU int) HostInfo {
	var uts unix.Utsname
	info := HostInfo{
		KernelType:    "UNKNOWN",
		KernelRelease: "UNKNOWN",
		Machine:       "UNKNOWN",
		SimulatedNCPU: simulatedNCPU,
	}
	if err := unix.Uname(&uts); err != nil {
		return info
	}
	info.KernelType = cstr(uts.Sysname[:])
	info.KernelRelease = cstr(uts.Release[:])
	info.Machine = cstr(uts.Machine[:])
	return info
}

// cstr converts a NUL-padded byte array (as unix.Utsname fields are
// represented on Linux) into a Go string.
func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
