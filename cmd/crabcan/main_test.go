package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNoArgumentsPrintsUsage mirrors original_source's cli.rs no_arguments
// test: invoking crabcan with none of its required flags set must fail and
// print usage information, not panic or silently succeed.
func TestNoArgumentsPrintsUsage(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	if err == nil {
		t.Fatalf("expected an error when required flags are missing")
	}
	if !strings.Contains(strings.ToLower(out.String()), "usage") {
		t.Fatalf("expected usage text in output, got %q", out.String())
	}
}

func TestEmptyCommandIsInvalidArgument(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--command=", "--uid=1000", "--mount=/tmp"})

	err := cmd.Execute()
	if err == nil {
		t.Fatalf("expected an error for empty --command")
	}
	if !strings.Contains(err.Error(), "command") {
		t.Fatalf("expected error to mention command, got %v", err)
	}
}
