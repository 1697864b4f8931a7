package crabcan

import "testing"

func TestCgroupLimitsAreFixed(t *testing.T) {
	if cgroupMemoryMax != 1<<30 {
		t.Errorf("cgroupMemoryMax = %d, want 1 GiB", cgroupMemoryMax)
	}
	if cgroupPidsMax != 64 {
		t.Errorf("cgroupPidsMax = %d, want 64", cgroupPidsMax)
	}
	if cgroupCPUWeight != 50 {
		t.Errorf("cgroupCPUWeight = %d, want 50", cgroupCPUWeight)
	}
	if cgroupIOWeight != 10 {
		t.Errorf("cgroupIOWeight = %d, want 10", cgroupIOWeight)
	}
}

// TestBuildResourcesWritesLiteralWeights guards against ToResources's
// OCI-shares-to-v2-weight conversion silently rewriting the fixed
// cpu.weight/io.weight values: it asserts on the assembled cgroup2.Resources
// actually handed to the manager, not just on the package constants above.
func TestBuildResourcesWritesLiteralWeights(t *testing.T) {
	resources := buildResources()

	if resources.Memory == nil || resources.Memory.Max == nil || *resources.Memory.Max != cgroupMemoryMax {
		t.Fatalf("Memory.Max = %v, want %d", resources.Memory, cgroupMemoryMax)
	}
	if resources.Pids == nil || resources.Pids.Max != cgroupPidsMax {
		t.Fatalf("Pids.Max = %v, want %d", resources.Pids, cgroupPidsMax)
	}
	if resources.CPU == nil || resources.CPU.Weight == nil || *resources.CPU.Weight != cgroupCPUWeight {
		t.Fatalf("CPU.Weight = %v, want %d", resources.CPU, cgroupCPUWeight)
	}
	if resources.IO == nil || resources.IO.Weight == nil || *resources.IO.Weight != cgroupIOWeight {
		t.Fatalf("IO.Weight = %v, want %d", resources.IO, cgroupIOWeight)
	}
}

func TestCleanCgroupNilManager(t *testing.T) {
	if err := cleanCgroup(nil); err != nil {
		t.Fatalf("cleanCgroup(nil) = %v, want nil", err)
	}
}

// restrictResources itself needs a real cgroup v2 hierarchy and root
// privileges to create controllers and move a PID, so it is not exercised
// by the tests in this package; it runs only from Container.Run.
