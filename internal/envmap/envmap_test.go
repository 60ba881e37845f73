package envmap

import (
	"reflect"
	"testing"
)

func TestFromEnvironSkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	m := FromEnviron([]string{"A=1", "B=x=y", "novalue", "=empty"})
	want := Map{"A": "1", "B": "x=y"}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("FromEnviron mismatch: got %v, want %v", m, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	base := Map{"A": "1"}
	clone := base.Clone()
	clone.Set("A", "2")
	clone.Set("B", "3")

	if base["A"] != "1" {
		t.Fatalf("clone mutated the original: %v", base)
	}
	if _, ok := base.Lookup("B"); ok {
		t.Fatal("new key leaked into the original map")
	}
}

func TestApplyExpandsAgainstReceiver(t *testing.T) {
	t.Parallel()

	m := Map{"PATH": "/usr/bin", "HOME": "/home/u"}
	m.Apply(map[string]string{
		"PATH":       "$HOME/.local/bin:$PATH",
		"PIPENV_DIR": "${HOME}/.venvs",
	})

	if got := m["PATH"]; got != "/home/u/.local/bin:/usr/bin" {
		t.Fatalf("PATH extension mismatch: %q", got)
	}
	if got := m["PIPENV_DIR"]; got != "/home/u/.venvs" {
		t.Fatalf("expansion mismatch: %q", got)
	}
}

func TestApplyUnknownVariableExpandsEmpty(t *testing.T) {
	t.Parallel()

	m := Map{}
	m.Apply(map[string]string{"X": "pre-$MISSING-post"})
	if got := m["X"]; got != "pre--post" {
		t.Fatalf("unknown variable expansion mismatch: %q", got)
	}
}

func TestEnvironIsSortedKeyValue(t *testing.T) {
	t.Parallel()

	m := Map{"B": "2", "A": "1"}
	got := m.Environ()
	want := []string{"A=1", "B=2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Environ mismatch: got %v, want %v", got, want)
	}
}

func TestPathContainsDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		dir  string
		want bool
	}{
		{name: "present", path: "/usr/bin:/opt/tool/bin", dir: "/opt/tool/bin", want: true},
		{name: "absent", path: "/usr/bin", dir: "/opt/tool/bin", want: false},
		{name: "trailing slash", path: "/usr/bin:/opt/tool/bin/", dir: "/opt/tool/bin", want: true},
		{name: "empty dir", path: "/usr/bin", dir: "", want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := PathContainsDir(tc.path, tc.dir); got != tc.want {
				t.Fatalf("PathContainsDir(%q, %q) = %v, want %v", tc.path, tc.dir, got, tc.want)
			}
		})
	}
}
