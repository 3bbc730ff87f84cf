package cli

import (
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/buildinfo"
)

func TestRootCommand(t *testing.T) {
	root := New(io.Discard).RootCommand()
	want := []string{"render", "layout", "serve", "watch", "step", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil || root.PersistentFlags().ShorthandLookup("v") == nil {
		t.Error("missing persistent --config or -v flag")
	}
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, buildinfo.Version) || !strings.Contains(out, "commit:") {
		t.Errorf("version output = %q", out)
	}
}

func TestCompletionArgs(t *testing.T) {
	isolate(t)
	if _, err := runCLI(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}
