// Package manifest loads and validates the declarative bootstrap manifest.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const DefaultFilename = "envboot.yaml"

// StepKind classifies a provisioning step for failure reporting.
type StepKind string

const (
	KindDownload StepKind = "download"
	KindInstall  StepKind = "install"
	KindHandoff  StepKind = "handoff"
)

// Step is one provisioning action: an argument vector plus optional
// working-directory and environment overrides.
type Step struct {
	Name    string            `yaml:"name"`
	Kind    StepKind          `yaml:"kind,omitempty"`
	Command []string          `yaml:"command"`
	Workdir string            `yaml:"workdir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Manifest is the full bootstrap description.
type Manifest struct {
	Description string            `yaml:"description,omitempty"`
	Workdir     string            `yaml:"workdir,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	Steps       []Step            `yaml:"steps"`
	Handoff     *Step             `yaml:"handoff,omitempty"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	for i := range m.Steps {
		if m.Steps[i].Kind == "" {
			m.Steps[i].Kind = KindInstall
		}
	}
	if m.Handoff != nil {
		m.Handoff.Kind = KindHandoff
		if m.Handoff.Name == "" {
			m.Handoff.Name = "handoff"
		}
	}
}

// Validate checks step names, kinds, and argument vectors.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Steps)+1)

	check := func(s Step, label string) error {
		if s.Name == "" {
			return fmt.Errorf("%s: name is required", label)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("step %q: duplicate name", s.Name)
		}
		seen[s.Name] = struct{}{}

		if len(s.Command) == 0 || s.Command[0] == "" {
			return fmt.Errorf("step %q: command is required", s.Name)
		}
		switch s.Kind {
		case KindDownload, KindInstall, KindHandoff:
		default:
			return fmt.Errorf("step %q: unknown kind %q", s.Name, s.Kind)
		}
		for key := range s.Env {
			if key == "" {
				return fmt.Errorf("step %q: empty env variable name", s.Name)
			}
		}
		return nil
	}

	for i, s := range m.Steps {
		if err := check(s, fmt.Sprintf("step %d", i)); err != nil {
			return err
		}
		if s.Kind == KindHandoff {
			return fmt.Errorf("step %q: kind handoff is reserved for the handoff entry", s.Name)
		}
	}
	if m.Handoff != nil {
		if err := check(*m.Handoff, "handoff"); err != nil {
			return err
		}
	}
	return nil
}
