package policy

import (
	"strings"
	"testing"
)

func TestRedactCommand(t *testing.T) {
	t.Parallel()

	p := NewDefault()

	tests := []struct {
		name     string
		raw      string
		contains string
	}{
		{
			name:     "bearer token",
			raw:      `curl -H "Authorization: Bearer abc123" https://example.com/get-pipenv.py`,
			contains: "Authorization: Bearer [REDACTED]",
		},
		{
			name:     "long options",
			raw:      "pip install --token=abc --password hunter2 pipenv",
			contains: "--token=[REDACTED] --password [REDACTED]",
		},
		{
			name:     "assignment",
			raw:      "API_KEY=abcdef pipenv install",
			contains: "API_KEY=[REDACTED]",
		},
		{
			name:     "plain command untouched",
			raw:      "pipenv install --deploy",
			contains: "pipenv install --deploy",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := p.RedactCommand(tc.raw)
			if !strings.Contains(got, tc.contains) {
				t.Fatalf("redacted command %q does not contain %q", got, tc.contains)
			}
		})
	}
}

func TestRedactEnvMasksSecretNames(t *testing.T) {
	t.Parallel()

	p := NewDefault()
	got := p.RedactEnv(map[string]string{
		"LEGISCAN_API_KEY": "abc123",
		"DJANGO_SETTINGS":  "fixpol.settings",
		"DB_PASSWORD":      "hunter2",
	})

	if got["LEGISCAN_API_KEY"] != RedactedValue {
		t.Fatalf("API key not redacted: %q", got["LEGISCAN_API_KEY"])
	}
	if got["DB_PASSWORD"] != RedactedValue {
		t.Fatalf("password not redacted: %q", got["DB_PASSWORD"])
	}
	if got["DJANGO_SETTINGS"] != "fixpol.settings" {
		t.Fatalf("non-secret value altered: %q", got["DJANGO_SETTINGS"])
	}
}

func TestRedactEnvEmptyOverlay(t *testing.T) {
	t.Parallel()

	p := NewDefault()
	if got := p.RedactEnv(nil); got != nil {
		t.Fatalf("expected nil for empty overlay, got %v", got)
	}
}

func TestIsSecretName(t *testing.T) {
	t.Parallel()

	p := NewDefault()
	for name, want := range map[string]bool{
		"GITHUB_TOKEN":    true,
		"aws_secret_key":  true,
		"ACCESS_KEY_ID":   true,
		"PIPENV_VERBOSE":  false,
		"PYTHONUNBUFFERED": false,
	} {
		if got := p.IsSecretName(name); got != want {
			t.Fatalf("IsSecretName(%q) = %v, want %v", name, got, want)
		}
	}
}
