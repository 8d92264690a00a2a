package hwinfo

import (
	"context"
	"runtime"
	"testing"
)

func TestCollectNeverFails(t *testing.T) {
	summary := Collect(context.Background())
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if summary.Architecture != runtime.GOARCH {
		t.Fatalf("architecture = %q, want %q", summary.Architecture, runtime.GOARCH)
	}
}
