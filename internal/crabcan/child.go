package crabcan

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/austinnorris/crabcan/internal/crablog"
)

// ChildMagic is the re-exec sentinel. main detects os.Args[1] == ChildMagic
// and dispatches to RunChild instead of parsing the normal CLI flags; Go has
// no fork-then-run-a-closure primitive, so the child side of clone(2) is the
// same binary re-invoked against /proc/self/exe with this marker.
const ChildMagic = "crabcan-child"

// childArgs builds the re-exec argv passed to /proc/self/exe: everything
// RunChild needs to reconstruct containerOpts on the other side of the
// clone, since the two processes no longer share memory once cmd.Start
// returns.
func childArgs(opts containerOpts) []string {
	args := []string{ChildMagic, opts.hostname, opts.mountDir, strconv.Itoa(opts.uid)}
	args = append(args, strconv.Itoa(len(opts.extra)))
	for _, m := range opts.extra {
		args = append(args, m.source+":"+m.dest)
	}
	args = append(args, "--")
	args = append(args, opts.argv...)
	return args
}

// parseChildArgs is childArgs's inverse for the arguments that follow the
// leading ChildMagic marker (RunChild passes os.Args[2:]), run by the
// re-exec'd process before it has any opts value of its own.
func parseChildArgs(args []string) (hostname, mountDir string, uid int, extra []extraMount, argv []string, err *CrabcanError) {
	if len(args) < 4 {
		return "", "", 0, nil, nil, childProcessError(0, fmt.Errorf("too few child args"))
	}
	hostname, mountDir = args[0], args[1]
	uid, convErr := strconv.Atoi(args[2])
	if convErr != nil {
		return "", "", 0, nil, nil, childProcessError(0, convErr)
	}
	n, convErr := strconv.Atoi(args[3])
	if convErr != nil {
		return "", "", 0, nil, nil, childProcessError(0, convErr)
	}

	rest := args[4:]
	if len(rest) < n {
		return "", "", 0, nil, nil, childProcessError(0, fmt.Errorf("missing extra-mount args"))
	}
	extra = make([]extraMount, 0, n)
	for i := 0; i < n; i++ {
		parts := strings.SplitN(rest[i], ":", 2)
		if len(parts) != 2 {
			return "", "", 0, nil, nil, childProcessError(0, fmt.Errorf("malformed extra mount %q", rest[i]))
		}
		extra = append(extra, extraMount{source: parts[0], dest: parts[1]})
	}

	rest = rest[n:]
	if len(rest) == 0 || rest[0] != "--" {
		return "", "", 0, nil, nil, childProcessError(0, fmt.Errorf("missing -- separator"))
	}
	argv = rest[1:]
	if len(argv) == 0 {
		return "", "", 0, nil, nil, invalidArgument("command")
	}
	return hostname, mountDir, uid, extra, argv, nil
}

// RunChild is the child entry function invoked after the re-exec'd process
// detects ChildMagic. It reconstructs its configuration from os.Args, runs
// the ordered setup pipeline of spec.md §4.9, and execve's the user
// program. fd 3 is the child's end of the IPC socket pair, inherited via
// ExtraFiles. It never returns on success; on failure it logs and returns
// an exit code for main to pass to os.Exit.
func RunChild() int {
	hostname, mountDir, uid, extra, argv, parseErr := parseChildArgs(os.Args[2:])
	if parseErr != nil {
		crablog.Error("child: %v", parseErr)
		return 1
	}
	childFd := 3

	if err := setContainerHostname(hostname); err != nil {
		crablog.Error("child: %v", err)
		return 1
	}

	if err := setMountpoint(mountDir, extra); err != nil {
		crablog.Error("child: %v", err)
		return 1
	}

	if err := userns(childFd, uid); err != nil {
		crablog.Error("child: %v", err)
		return 1
	}

	if err := setCapabilities(); err != nil {
		crablog.Error("child: %v", err)
		return 1
	}

	if err := setSyscalls(); err != nil {
		crablog.Error("child: %v", err)
		return 1
	}

	if err := closeFd(childFd); err != nil {
		crablog.Debug("child: closing ipc fd: %v", err)
	}

	env := []string{}
	if execErr := unix.Exec(resolveExecPath(argv[0]), argv, env); execErr != nil {
		crablog.Error("child: execve %s: %v", argv[0], execErr)
		return 1
	}
	return 0
}

// resolveExecPath finds an absolute path for argv[0] inside the new root,
// falling back to the raw value if it already looks absolute or cannot be
// resolved via PATH -- unix.Exec performs no PATH search of its own.
func resolveExecPath(path string) string {
	if strings.Contains(path, "/") {
		return path
	}
	if pathEnv, found := syscall.Getenv("PATH"); found {
		for _, dir := range strings.Split(pathEnv, ":") {
			candidate := dir + "/" + path
			if fi, statErr := os.Stat(candidate); statErr == nil && !fi.IsDir() {
				return candidate
			}
		}
	}
	return path
}
