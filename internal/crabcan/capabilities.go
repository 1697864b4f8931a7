package crabcan

import (
	"github.com/syndtr/gocapability/capability"
)

// capabilitiesDrop is the fixed set of 21 capabilities removed from the
// bounding and inheritable sets before execve (spec.md S4.4). The
// justification for each is part of the contract and preserved here, as in
// original_source's capabilities.rs.
var capabilitiesDrop = []capability.Cap{
	capability.CAP_AUDIT_CONTROL,   // allows access to the kernel's audit system
	capability.CAP_AUDIT_READ,      // allows access to the kernel's audit system
	capability.CAP_AUDIT_WRITE,     // allows access to the kernel's audit system
	capability.CAP_BLOCK_SUSPEND,   // prevents the system from suspending (suspend is not namespaced)
	capability.CAP_DAC_READ_SEARCH, // allows access to arbitrary files by guessing inode numbers
	capability.CAP_DAC_OVERRIDE,    // allows bypass of file read/write/execute permission checks
	capability.CAP_FSETID,          // allows modifying a setuid executable without clearing the setuid bit
	capability.CAP_IPC_LOCK,        // allows bypassing the soft resource limit when locking memory
	capability.CAP_MAC_ADMIN,       // used by AppArmor/SELinux and not namespaced
	capability.CAP_MAC_OVERRIDE,    // same as above
	capability.CAP_MKNOD,           // allows (re)creating device files, even existing hardware
	capability.CAP_SETFCAP,         // allows setting capabilities on a file
	capability.CAP_SYSLOG,          // allows privileged syslog operations and kernel memory view
	capability.CAP_SYS_ADMIN,       // allows a wide range of administrative operations
	capability.CAP_SYS_BOOT,        // allows rebooting and loading new kernels
	capability.CAP_SYS_MODULE,      // allows loading or unloading kernel modules
	capability.CAP_SYS_NICE,        // allows raising scheduling priority above the default
	capability.CAP_SYS_RAWIO,       // allows raw access to I/O ports
	capability.CAP_SYS_RESOURCE,    // allows circumventing kernel-wide resource limits
	capability.CAP_SYS_TIME,        // allows setting the time (not namespaced)
	capability.CAP_WAKE_ALARM,      // allows interfering with suspend, like CAP_BLOCK_SUSPEND
}

// setCapabilities drops capabilitiesDrop from the calling process's
// bounding and inheritable sets, leaving permitted and effective untouched.
// The kernel enforces that effective capabilities at the next execve can
// never exceed the bounding set, so this is sufficient to keep the dropped
// capabilities out of the user program even though it runs setuid-root
// inside the container's user namespace.
func setCapabilities() *CrabcanError {
	caps, err := capability.NewPid2(0)
	if err != nil {
		return capabilitiesError(0, err)
	}
	if err := caps.Load(); err != nil {
		return capabilitiesError(0, err)
	}

	caps.Unset(capability.BOUNDING, capabilitiesDrop...)
	caps.Unset(capability.INHERITABLE, capabilitiesDrop...)

	if err := caps.Apply(capability.CAPS | capability.BOUNDING); err != nil {
		return capabilitiesError(0, err)
	}
	return nil
}
