package crabcan

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	uidMapRangeSize      = 2000
	uidMapHostRangeStart = 10000
)

// userns runs on the child side (spec.md §4.6). It unshares the user
// namespace, tells the parent whether that succeeded, waits for the parent
// to finish writing the uid/gid maps, then drops to targetUID.
//
// The child MUST NOT call setresuid/setresgid before the parent's ack: both
// calls require the maps to already be written, or they fail outright.
func userns(childFd int, targetUID int) *CrabcanError {
	hasUserns := unix.Unshare(unix.CLONE_NEWUSER) == nil

	if err := sendBool(childFd, hasUserns); err != nil {
		return err
	}

	parentFailed, err := recvBool(childFd)
	if err != nil {
		return err
	}
	if parentFailed {
		return namespaceError(0, nil)
	}

	if err := unix.Setgroups([]int{targetUID}); err != nil {
		return namespaceError(1, err)
	}
	if err := unix.Setresgid(targetUID, targetUID, targetUID); err != nil {
		return namespaceError(2, err)
	}
	if err := unix.Setresuid(targetUID, targetUID, targetUID); err != nil {
		return namespaceError(3, err)
	}
	return nil
}

// handleUIDMap runs on the parent side (spec.md §4.6). It receives the
// child's has_userns flag, writes the fixed uid_map/gid_map pair mapping
// container [0, 2000) to host [10000, 12000) when requested, then releases
// the child with a final ack byte.
func handleUIDMap(childPID int, parentFd int) *CrabcanError {
	hasUserns, err := recvBool(parentFd)
	if err != nil {
		return err
	}

	var writeErr *CrabcanError
	if hasUserns {
		writeErr = writeIDMap(childPID, "uid_map")
		if writeErr == nil {
			writeErr = writeIDMap(childPID, "gid_map")
		}
	}

	if sendErr := sendBool(parentFd, writeErr != nil); sendErr != nil {
		return sendErr
	}
	return writeErr
}

func writeIDMap(pid int, file string) *CrabcanError {
	path := fmt.Sprintf("/proc/%d/%s", pid, file)
	mapping := fmt.Sprintf("0 %d %d", uidMapHostRangeStart, uidMapRangeSize)

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if file == "uid_map" {
			return namespaceError(4, err)
		}
		return namespaceError(6, err)
	}
	defer f.Close()

	if _, err := f.WriteString(mapping); err != nil {
		if file == "uid_map" {
			return namespaceError(5, err)
		}
		return namespaceError(7, err)
	}
	return nil
}
