package crabcan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// randSuffix returns n alphanumeric characters derived from a fresh random
// UUID, used for the unpredictable new-root and old-root directory names in
// the mount pipeline below.
func randSuffix(n int) string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	for len(raw) < n {
		raw += strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	return raw[:n]
}

// extraMount is one user-supplied bind mount, source on the host and
// destination relative to the new root (leading slash already stripped).
type extraMount struct {
	source string
	dest   string
}

// setMountpoint runs the pipeline of spec.md §4.7: isolates mount
// propagation, bind-mounts mountDir as the new root, bind-mounts each extra
// path read-only, then pivots into the new root and detaches the old one.
func setMountpoint(mountDir string, extra []extraMount) *CrabcanError {
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return mountError(3, err)
	}

	newRoot := filepath.Join("/tmp", "crabcan."+randSuffix(12))
	if err := os.MkdirAll(newRoot, 0700); err != nil {
		return mountError(2, err)
	}
	if err := unix.Mount(mountDir, newRoot, "", unix.MS_BIND|unix.MS_PRIVATE, ""); err != nil {
		return mountError(3, err)
	}

	for _, m := range extra {
		dest := filepath.Join(newRoot, m.dest)
		if err := os.MkdirAll(dest, 0700); err != nil {
			return mountError(2, err)
		}
		if err := unix.Mount(m.source, dest, "", unix.MS_PRIVATE|unix.MS_BIND|unix.MS_RDONLY, ""); err != nil {
			return mountError(3, err)
		}
	}

	oldRootName := "oldroot." + randSuffix(6)
	putOld := filepath.Join(newRoot, oldRootName)
	if err := os.MkdirAll(putOld, 0700); err != nil {
		return mountError(2, err)
	}

	if err := unix.PivotRoot(newRoot, putOld); err != nil {
		return mountError(4, err)
	}

	if err := unix.Chdir("/"); err != nil {
		return mountError(5, err)
	}

	oldRootInNewRoot := filepath.Join("/", oldRootName)
	if err := unix.Unmount(oldRootInNewRoot, unix.MNT_DETACH); err != nil {
		return mountError(0, err)
	}
	if err := os.Remove(oldRootInNewRoot); err != nil {
		return mountError(1, err)
	}
	return nil
}

// canonicalizeExtraMount turns a user-supplied "source:dest" pair into an
// extraMount: source resolved to an absolute path and required to exist on
// the host (spec.md §8's "--add /nonexistent:/x -> canonicalization fails
// before child start" boundary case), dest stripped of any leading slash so
// it composes cleanly under the new root.
func canonicalizeExtraMount(source, dest string) (extraMount, *CrabcanError) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return extraMount{}, invalidArgument("add")
	}
	if _, statErr := os.Stat(abs); statErr != nil {
		return extraMount{}, invalidArgument("add")
	}
	return extraMount{source: abs, dest: strings.TrimPrefix(dest, "/")}, nil
}
