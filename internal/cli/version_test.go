package cli

import (
	"strings"
	"testing"
)

func TestBuildVersionCarriesBaseVersion(t *testing.T) {
	got := buildVersion()
	if got == "" {
		t.Fatal("empty version string")
	}
	// Test binaries carry no release version or vcs stamp, so the
	// link-time default must survive as the base.
	if !strings.HasPrefix(got, Version) {
		t.Errorf("version %q does not start with %q", got, Version)
	}
}
