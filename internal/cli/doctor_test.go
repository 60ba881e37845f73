package cli

import (
	"strings"
	"testing"
)

func TestDoctorWithoutManifestWarnsButSucceeds(t *testing.T) {
	isolateHistory(t)
	chtemp(t)

	stdout, _, err := execRoot(t, "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	for _, want := range []string{
		"envboot doctor",
		"[OK] Run history: OK",
		"[WARN] Manifest: not found",
		"Hint: create one with `envboot init`",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("doctor output missing %q:\n%s", want, stdout)
		}
	}
}

func TestDoctorReportsManifestAndCommands(t *testing.T) {
	isolateHistory(t)
	chtemp(t)

	path := writeRunManifest(t, helperStepYAML(t, "resolves", "0")+
		"  - name: missing tool\n    command: [\"definitely-not-a-command-12345\"]\n")

	stdout, _, err := execRoot(t, "doctor", path)
	if err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	if !strings.Contains(stdout, "[OK] Manifest: valid (2 step(s))") {
		t.Fatalf("missing manifest line:\n%s", stdout)
	}
	if !strings.Contains(stdout, `[WARN] Step "missing tool": "definitely-not-a-command-12345" not found on PATH`) {
		t.Fatalf("missing unresolved-command warning:\n%s", stdout)
	}
}

func TestDoctorInvalidManifestFails(t *testing.T) {
	isolateHistory(t)
	chtemp(t)

	path := writeRunManifest(t, "  - name: broken\n")
	_, _, err := execRoot(t, "doctor", path)
	if err == nil {
		t.Fatal("expected doctor to fail on invalid manifest")
	}
}
