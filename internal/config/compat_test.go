package config_test

// Helpers standing in for testing.T.Context and testing.T.Chdir, which are
// not available in the Go toolchain this module is built with.

import (
	"context"
	"os"
	"testing"
)

// testContext returns a context that is canceled just before t's cleanup functions run.
func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return ctx
}

// testChdir changes the working directory to dir and restores it when t finishes.
func testChdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("testChdir: %v", err)
	}
	if err = os.Chdir(dir); err != nil {
		t.Fatalf("testChdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("testChdir: restore: %v", err)
		}
	})
}
