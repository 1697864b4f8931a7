package crabcan

import (
	"golang.org/x/sys/unix"

	seccomp "github.com/seccomp/libseccomp-golang"
)

// conditionalDeny is one (syscall, arg index, mask) rule from spec.md's
// §4.5 table. All of them share the same comparator: (arg & mask) == mask.
type conditionalDeny struct {
	name string
	arg  uint
	mask uint64
}

var conditionalDenies = []conditionalDeny{
	{"chmod", 1, unix.S_ISUID},
	{"chmod", 1, unix.S_ISGID},
	{"fchmod", 1, unix.S_ISUID},
	{"fchmod", 1, unix.S_ISGID},
	{"fchmodat", 2, unix.S_ISUID},
	{"fchmodat", 2, unix.S_ISGID},
	{"unshare", 0, unix.CLONE_NEWUSER},
	{"clone", 0, unix.CLONE_NEWUSER},
	{"ioctl", 1, unix.TIOCSTI},
}

var unconditionalDenies = []string{
	"keyctl", "add_key", "request_key", "mbind", "migrate_pages",
	"move_pages", "set_mempolicy", "userfaultfd", "perf_event_open",
}

// setSyscalls installs the default-allow seccomp-BPF filter described in
// spec.md §4.5 and loads it into the kernel. Must run last in the child
// setup pipeline, immediately before execve.
func setSyscalls() *CrabcanError {
	filter, err := seccomp.NewFilter(seccomp.ActAllow)
	if err != nil {
		return syscallsError(1, err)
	}
	defer filter.Release()

	for _, d := range conditionalDenies {
		call, resolveErr := seccomp.GetSyscallFromName(d.name)
		if resolveErr != nil {
			return syscallsError(2, resolveErr)
		}
		cond, condErr := seccomp.MakeCondition(d.arg, seccomp.CompareMaskedEqual, d.mask, d.mask)
		if condErr != nil {
			return syscallsError(2, condErr)
		}
		if ruleErr := filter.AddRuleConditional(call, seccomp.ActErrno.SetReturnCode(int16(unix.EPERM)), []seccomp.ScmpCondition{cond}); ruleErr != nil {
			return syscallsError(2, ruleErr)
		}
	}

	for _, name := range unconditionalDenies {
		call, resolveErr := seccomp.GetSyscallFromName(name)
		if resolveErr != nil {
			return syscallsError(2, resolveErr)
		}
		if ruleErr := filter.AddRule(call, seccomp.ActErrno.SetReturnCode(int16(unix.EPERM))); ruleErr != nil {
			return syscallsError(2, ruleErr)
		}
	}

	if err := filter.Load(); err != nil {
		return syscallsError(3, err)
	}
	return nil
}
