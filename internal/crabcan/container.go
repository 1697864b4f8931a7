package crabcan

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	cgroup2 "github.com/containerd/cgroups/v3/cgroup2"
	"golang.org/x/sys/unix"

	"github.com/austinnorris/crabcan/internal/crablog"
)

// containerFlags is the fixed set of clone(2) namespace flags for the
// child (spec.md §4.9). CLONE_NEWUSER is deliberately absent: the child
// requests it itself via unshare inside userns, then reports the outcome
// to the parent as has_userns over the handshake.
const containerFlags = unix.CLONE_NEWNS |
	unix.CLONE_NEWCGROUP |
	unix.CLONE_NEWPID |
	unix.CLONE_NEWIPC |
	unix.CLONE_NEWNET |
	unix.CLONE_NEWUTS

const minKernelMajorMinor = 4.8

// containerState tracks the parent-side lifecycle of spec.md §3: Configured
// -> Spawned -> (Exited | Failing) -> Cleaned.
type containerState int

const (
	stateConfigured containerState = iota
	stateSpawned
	stateExited
	stateFailing
	stateCleaned
)

// Container is the parent-side handle for one launched container. Run
// drives it through the whole lifecycle; Cleanup is idempotent and safe to
// call multiple times or after a partial failure.
type Container struct {
	opts       containerOpts
	cmd        *exec.Cmd
	parentFd   int
	childFd    int
	cgroup     *cgroup2.Manager
	state      containerState
	cleanupErr *CrabcanError
}

// checkPlatform enforces spec.md §4.10 step 1: Linux x86_64, kernel >= 4.8.
func checkPlatform() *CrabcanError {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return notSupported(0)
	}

	release := charsToString(uname.Release[:])
	major, err := parseKernelVersion(release)
	if err != nil || major < minKernelMajorMinor {
		return notSupported(0)
	}

	machine := charsToString(uname.Machine[:])
	if machine != "x86_64" {
		return notSupported(1)
	}
	return nil
}

func charsToString(c []byte) string {
	n := 0
	for n < len(c) && c[n] != 0 {
		n++
	}
	return string(c[:n])
}

// parseKernelVersion extracts "<major>.<minor>" from the front of a
// uname release string like "4.8.0-generic" and parses it as a float.
func parseKernelVersion(release string) (float64, error) {
	fields := strings.SplitN(release, "-", 2)
	numeric := fields[0]
	parts := strings.Split(numeric, ".")
	if len(parts) < 2 {
		return 0, fmt.Errorf("unparseable kernel release %q", release)
	}
	return strconv.ParseFloat(parts[0]+"."+parts[1], 64)
}

// NewContainer builds the options record and socket pair for a launch, but
// does not yet spawn the child (spec.md §4.10 steps 1-3).
func NewContainer(command string, uid int, mountDir, hostname string, addPaths []string) (*Container, *CrabcanError) {
	if err := checkPlatform(); err != nil {
		return nil, err
	}

	parentFd, childFd, err := newSocketPair()
	if err != nil {
		return nil, err
	}

	opts, err := newContainerOpts(command, uid, mountDir, hostname, addPaths, childFd)
	if err != nil {
		closeFd(parentFd)
		closeFd(childFd)
		return nil, err
	}

	return &Container{
		opts:     opts,
		parentFd: parentFd,
		childFd:  childFd,
		state:    stateConfigured,
	}, nil
}

// Run spawns the child, restricts its resources, completes the uid_map
// handshake, waits for it to exit, and always runs cleanup (spec.md §4.10
// steps 4-8). It returns the first error encountered, if any.
func (c *Container) Run() *CrabcanError {
	runErr := c.run()
	cleanupErr := c.Cleanup()
	if runErr != nil {
		return runErr
	}
	return cleanupErr
}

func (c *Container) run() *CrabcanError {
	self, err := os.Executable()
	if err != nil {
		return childProcessError(1, err)
	}

	childFile := os.NewFile(uintptr(c.childFd), "ipc-child")
	cmd := &exec.Cmd{
		Path:       self,
		Args:       append([]string{self}, childArgs(c.opts)...),
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		ExtraFiles: []*os.File{childFile},
		SysProcAttr: &syscall.SysProcAttr{
			Cloneflags:   uintptr(containerFlags),
			Unshareflags: syscall.CLONE_NEWNS,
		},
	}

	if err := cmd.Start(); err != nil {
		return childProcessError(2, err)
	}
	c.cmd = cmd
	c.state = stateSpawned
	crablog.Debug("container: spawned child pid %d", cmd.Process.Pid)

	cgMgr, resErr := restrictResources(c.opts.hostname, cmd.Process.Pid)
	c.cgroup = cgMgr
	if resErr != nil {
		c.state = stateFailing
		return resErr
	}

	if err := handleUIDMap(cmd.Process.Pid, c.parentFd); err != nil {
		c.state = stateFailing
		return err
	}

	waitErr := cmd.Wait()
	if waitErr != nil {
		c.state = stateFailing
		return childProcessError(3, waitErr)
	}

	c.state = stateExited
	return nil
}

// Cleanup tears down both socket ends and the cgroup; it does not unmount
// or remove the host-side mount root. It is idempotent: calling it twice returns the same outcome both times, and
// every step runs even if an earlier one failed, per spec.md §7.
func (c *Container) Cleanup() *CrabcanError {
	if c.state == stateCleaned {
		return c.cleanupErr
	}

	var first *CrabcanError
	record := func(err *CrabcanError) {
		if err != nil && first == nil {
			first = err
		}
	}

	record(closeFd(c.parentFd))
	record(closeFd(c.childFd))
	record(cleanCgroup(c.cgroup))

	c.state = stateCleaned
	c.cleanupErr = first
	return first
}
