package crabcan

import "testing"

func TestConditionalDeniesTableShape(t *testing.T) {
	if len(conditionalDenies) != 9 {
		t.Fatalf("expected 9 conditional denial rules, got %d", len(conditionalDenies))
	}
	for _, d := range conditionalDenies {
		if d.name == "" {
			t.Errorf("rule with empty syscall name: %+v", d)
		}
		if d.mask == 0 {
			t.Errorf("rule %+v has zero mask", d)
		}
	}
}

func TestUnconditionalDeniesTableShape(t *testing.T) {
	if len(unconditionalDenies) != 9 {
		t.Fatalf("expected 9 unconditional denial rules, got %d", len(unconditionalDenies))
	}
	seen := map[string]bool{}
	for _, name := range unconditionalDenies {
		if seen[name] {
			t.Errorf("duplicate unconditional deny: %s", name)
		}
		seen[name] = true
	}
}

// setSyscalls itself is not exercised here: loading a seccomp-BPF program
// installs it for the remaining lifetime of the calling process, which
// would leak into every later test in this package. No test in this
// package loads it; it runs only inside the re-exec'd child (RunChild).
