package main

import (
	"errors"
	"testing"
)

func TestExitCodeFor_DistinguishesUsageFromRuntimeErrors(t *testing.T) {
	if got := exitCodeFor(usageErrorf("bad args")); got != exitUsage {
		t.Fatalf("expected usage exit code %d, got %d", exitUsage, got)
	}
	if got := exitCodeFor(errors.New("boom")); got != exitRuntime {
		t.Fatalf("expected runtime exit code %d, got %d", exitRuntime, got)
	}
}
