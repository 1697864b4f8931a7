package crabcan

import (
	"os"
	"path/filepath"
	"strings"
)

// containerOpts is the immutable options record assembled by the
// orchestrator and handed into the child entry point (spec.md §3). It is
// cheap to copy: the child gets its own value, not a pointer into the
// parent's memory, since after clone/exec the two processes no longer
// share an address space.
type containerOpts struct {
	path     string
	argv     []string
	uid      int
	mountDir string
	childFd  int
	hostname string
	extra    []extraMount
}

// newContainerOpts validates and assembles a containerOpts from raw CLI
// input. command is whitespace-split into argv; an empty command is
// rejected up front per spec.md §6.
func newContainerOpts(command string, uid int, mountDir, hostname string, addPaths []string, childFd int) (containerOpts, *CrabcanError) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return containerOpts{}, invalidArgument("command")
	}

	// spec.md §3's invariant: the mount-root path must exist, be a
	// directory, and be absolute before the child starts.
	absMountDir, err := filepath.Abs(mountDir)
	if err != nil {
		return containerOpts{}, invalidArgument("mount")
	}
	fi, statErr := os.Stat(absMountDir)
	if statErr != nil || !fi.IsDir() {
		return containerOpts{}, invalidArgument("mount")
	}

	if hostname == "" {
		generated, genErr := generateHostname()
		if genErr != nil {
			return containerOpts{}, genErr
		}
		hostname = generated
	}

	extra := make([]extraMount, 0, len(addPaths))
	for _, raw := range addPaths {
		source, dest, splitErr := splitAddPath(raw)
		if splitErr != nil {
			return containerOpts{}, splitErr
		}
		m, canonErr := canonicalizeExtraMount(source, dest)
		if canonErr != nil {
			return containerOpts{}, canonErr
		}
		extra = append(extra, m)
	}

	return containerOpts{
		path:     argv[0],
		argv:     argv,
		uid:      uid,
		mountDir: absMountDir,
		childFd:  childFd,
		hostname: hostname,
		extra:    extra,
	}, nil
}

// splitAddPath parses one "-a/--add" element of the form
// "HOST_PATH:CONTAINER_PATH".
func splitAddPath(raw string) (source, dest string, err *CrabcanError) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", invalidArgument("add")
	}
	return parts[0], parts[1], nil
}
