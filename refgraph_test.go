// ABOUTME: Tests for the root refgraph package
// ABOUTME: Verifies the version constant

package refgraph_test

import (
	"strings"
	"testing"

	"github.com/prateek/refgraph"
)

func TestVersion(t *testing.T) {
	if refgraph.Version == "" {
		t.Fatal("Version constant should not be empty")
	}
	if parts := strings.Split(refgraph.Version, "."); len(parts) != 3 {
		t.Errorf("Version should be major.minor.patch, got %q", refgraph.Version)
	}
}
