package blackbox

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

type cliResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

type harness struct {
	t       *testing.T
	binPath string
	rootDir string
	workDir string
	env     []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	binPath := resolveBinaryPath(t)
	rootDir := t.TempDir()
	workDir := filepath.Join(rootDir, "work")
	appData := filepath.Join(rootDir, "appdata")
	homeDir := filepath.Join(rootDir, "home")
	tmpDir := filepath.Join(rootDir, "tmp")
	for _, dir := range []string{workDir, appData, homeDir, tmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	env := append([]string{}, os.Environ()...)
	env = append(env,
		"APPDATA="+appData,
		"LOCALAPPDATA="+appData,
		"USERPROFILE="+homeDir,
		"HOME="+homeDir,
		"XDG_CONFIG_HOME="+appData,
		"XDG_DATA_HOME="+appData,
		"TEMP="+tmpDir,
		"TMP="+tmpDir,
		"TMPDIR="+tmpDir,
		"ENVBOOT_HISTORY_DB="+filepath.Join(appData, "envboot", "history.db"),
	)

	return &harness{
		t:       t,
		binPath: binPath,
		rootDir: rootDir,
		workDir: workDir,
		env:     env,
	}
}

func (h *harness) run(args ...string) cliResult {
	h.t.Helper()

	cmd := exec.Command(h.binPath, args...)
	cmd.Dir = h.workDir
	cmd.Env = h.env
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			code = exitErr.ExitCode()
		} else {
			h.t.Fatalf("run %v failed: %v", args, err)
		}
	}
	return cliResult{
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
}

func (h *harness) mustRun(args ...string) cliResult {
	h.t.Helper()
	res := h.run(args...)
	if res.ExitCode != 0 {
		h.t.Fatalf("expected success, got exit=%d\nargs=%v\nstdout=%s\nstderr=%s", res.ExitCode, args, res.Stdout, res.Stderr)
	}
	return res
}

// writeManifest drops a manifest into the working directory and returns
// its path.
func (h *harness) writeManifest(content string) string {
	h.t.Helper()

	path := filepath.Join(h.workDir, "envboot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.t.Fatalf("write manifest: %v", err)
	}
	return path
}

func (h *harness) exportLastMD() string {
	h.t.Helper()
	out := h.mustRun("export", "--last").Stdout
	path := parseReportPath(out)
	if path == "" {
		h.t.Fatalf("failed to parse report path from output: %s", out)
	}
	if _, err := os.Stat(path); err != nil {
		h.t.Fatalf("report does not exist: %s (%v)", path, err)
	}
	return path
}

func parseReportPath(output string) string {
	const prefix = "Exported report: "
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, prefix); idx >= 0 {
			return strings.TrimSpace(line[idx+len(prefix):])
		}
	}
	return ""
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file %s: %v", path, err)
	}
	return string(data)
}

// stepYAML renders one manifest step running the platform shell.
func stepYAML(name, script string) string {
	var argv []string
	if runtime.GOOS == "windows" {
		argv = []string{"cmd", "/c", script}
	} else {
		argv = []string{"sh", "-c", script}
	}
	quoted := make([]string, 0, len(argv))
	for _, a := range argv {
		quoted = append(quoted, fmt.Sprintf("%q", a))
	}
	return fmt.Sprintf("  - name: %q\n    command: [%s]\n", name, strings.Join(quoted, ", "))
}

func asExitError(err error, out **exec.ExitError) bool {
	e, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	*out = e
	return true
}
