// Package policy sanitizes what envboot records about a bootstrap run.
// Manifests routinely carry tokens in env overlays and command flags;
// redaction applies to everything persisted, logged, or exported, never
// to what actually executes.
package policy

import (
	"regexp"
	"strings"
)

const RedactedValue = "[REDACTED]"

type redactor struct {
	re   *regexp.Regexp
	repl string
}

type Policy struct {
	secretKey *regexp.Regexp
	redact    []redactor
}

func NewDefault() *Policy {
	return &Policy{
		secretKey: regexp.MustCompile(`(?i)\b(?:token|secret|password|passwd|credential|api[_-]?key|apikey|access[_-]?key|private[_-]?key)\b`),
		redact: []redactor{
			{
				re:   regexp.MustCompile(`(?i)(authorization\s*:\s*bearer\s+)([^\s"']+)`),
				repl: `${1}` + RedactedValue,
			},
			{
				re:   regexp.MustCompile(`(?i)(--(?:token|password|passwd|api[_-]?key|apikey|secret|private[_-]?key)=)([^\s]+)`),
				repl: `${1}` + RedactedValue,
			},
			{
				re:   regexp.MustCompile(`(?i)(--(?:token|password|passwd|api[_-]?key|apikey|secret|private[_-]?key)\s+)([^\s]+)`),
				repl: `${1}` + RedactedValue,
			},
			{
				re:   regexp.MustCompile(`(?i)(\b(?:token|secret|password|passwd|api[_-]?key|apikey|private[_-]?key)\b\s*[:=]\s*)([^\s]+)`),
				repl: `${1}` + RedactedValue,
			},
		},
	}
}

// RedactCommand returns the command line with secret-bearing tokens masked.
func (p *Policy) RedactCommand(rawCommand string) string {
	sanitized := rawCommand
	for _, rule := range p.redact {
		sanitized = rule.re.ReplaceAllString(sanitized, rule.repl)
	}
	return sanitized
}

// RedactEnv returns a copy of the overlay with values of secret-named
// variables masked. Keys are never altered.
func (p *Policy) RedactEnv(overlay map[string]string) map[string]string {
	if len(overlay) == 0 {
		return nil
	}
	out := make(map[string]string, len(overlay))
	for k, v := range overlay {
		if p.IsSecretName(k) {
			out[k] = RedactedValue
			continue
		}
		out[k] = v
	}
	return out
}

// IsSecretName reports whether a variable name looks credential-bearing.
func (p *Policy) IsSecretName(key string) bool {
	return p.secretKey.MatchString(strings.TrimSpace(key))
}
