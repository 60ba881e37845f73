// Package export renders completed bootstrap runs as markdown
// provisioning reports.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/embrace-call-for-code/envboot/internal/buildinfo"
	"github.com/embrace-call-for-code/envboot/internal/store"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// WriteMarkdown renders the run into <workingDir>/reports/ and returns the
// output path.
func WriteMarkdown(run *store.Run, steps []store.StepRecord, workingDir string) (string, error) {
	reportsDir := filepath.Join(workingDir, "reports")
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	outputPath := filepath.Join(reportsDir, ReportFilename(run))
	body := RenderMarkdown(run, steps)
	if err := os.WriteFile(outputPath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write markdown file: %w", err)
	}
	return outputPath, nil
}

func ReportFilename(run *store.Run) string {
	ts := run.StartedAt.UTC().Format("20060102-150405")
	return fmt.Sprintf("%s-%s.md", ts, slugify(reportTitle(run)))
}

func RenderMarkdown(run *store.Run, steps []store.StepRecord) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(reportTitle(run))
	b.WriteString("\n\n")

	summary := buildStepSummary(steps)

	b.WriteString("## Summary\n")
	b.WriteString(fmt.Sprintf("Status: %s\n", strings.ToUpper(run.Status)))
	b.WriteString(fmt.Sprintf("Manifest: %s\n", run.ManifestPath))
	b.WriteString(fmt.Sprintf("Started: %s (%s)\n", run.StartedAt.UTC().Format(time.RFC3339), humanize.Time(run.StartedAt)))
	b.WriteString(fmt.Sprintf("Executed %d step(s): OK %d | FAILED %d\n", len(steps), summary.ok, summary.failed))
	b.WriteString(fmt.Sprintf("Total duration: %d ms\n\n", summary.totalDurationMS))

	if run.Status == store.RunStatusFailed {
		b.WriteString("## Failure\n")
		b.WriteString(fmt.Sprintf("Step: %s\n", run.FailedStep))
		if run.FailedIndex != nil {
			b.WriteString(fmt.Sprintf("Index: %d\n", *run.FailedIndex))
		}
		if run.FailureClass != "" {
			b.WriteString(fmt.Sprintf("Class: %s\n", run.FailureClass))
		}
		if run.ExitCode != nil {
			b.WriteString(fmt.Sprintf("Exit code: %d\n", *run.ExitCode))
		}
		b.WriteString("Later steps did not run; side effects of completed steps were left in place.\n\n")
	}

	b.WriteString("## Steps\n")
	if len(steps) == 0 {
		b.WriteString("No steps were executed.\n\n")
	} else {
		for _, step := range steps {
			b.WriteString(fmt.Sprintf("%d. [%s] %s (%s)\n\n", step.Index+1, step.Status, step.Name, step.Kind))
			b.WriteString("```sh\n")
			b.WriteString(step.Command)
			b.WriteString("\n```\n")
			b.WriteString(fmt.Sprintf("Result: %s", step.Status))
			if step.Reason != "" {
				b.WriteString(fmt.Sprintf(" (%s)", step.Reason))
			}
			b.WriteString("\n")
			if step.ExitCode != nil {
				b.WriteString(fmt.Sprintf("Exit code: %d\n", *step.ExitCode))
			}
			if step.Dir != "" {
				b.WriteString(fmt.Sprintf("Workdir: %s\n", step.Dir))
			}
			b.WriteString(fmt.Sprintf("Duration: %d ms\n\n", step.DurationMS))
		}
	}

	b.WriteString("## Notes\n")
	b.WriteString(fmt.Sprintf("- Generated by envboot %s.\n", buildinfo.String()))

	return b.String()
}

func reportTitle(run *store.Run) string {
	if strings.TrimSpace(run.Description) != "" {
		return run.Description
	}
	return "Bootstrap run " + shortID(run.ID)
}

func shortID(id string) string {
	if utf8.RuneCountInString(id) <= 8 {
		return id
	}
	return id[:8]
}

type stepSummary struct {
	ok              int
	failed          int
	totalDurationMS int64
}

func buildStepSummary(steps []store.StepRecord) stepSummary {
	var s stepSummary
	for _, step := range steps {
		switch step.Status {
		case "OK":
			s.ok++
		case "FAILED":
			s.failed++
		}
		if step.DurationMS > 0 {
			s.totalDurationMS += step.DurationMS
		}
	}
	return s
}

func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "run"
	}
	const maxLen = 48
	if len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	return slug
}
