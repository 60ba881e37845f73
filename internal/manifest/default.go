package manifest

// Default returns the starter manifest written by `envboot init`. It mirrors
// the original fix-politics bootstrap: install pipenv, install the locked
// dependencies, then hand off to the Django management shell.
func Default() *Manifest {
	return &Manifest{
		Description: "Bootstrap the fix-politics development environment",
		Env: map[string]string{
			"PIPENV_VENV_IN_PROJECT": "1",
			"PATH":                   "$HOME/.local/bin:$PATH",
		},
		Steps: []Step{
			{
				Name:    "install pipenv",
				Kind:    KindDownload,
				Command: []string{"python3", "-m", "pip", "install", "--user", "pipenv"},
			},
			{
				Name:    "install locked dependencies",
				Kind:    KindInstall,
				Command: []string{"pipenv", "install", "--dev"},
			},
		},
		Handoff: &Step{
			Name:    "management shell",
			Kind:    KindHandoff,
			Command: []string{"pipenv", "run", "python", "manage.py", "shell"},
		},
	}
}

// DefaultYAML renders the starter manifest for `envboot init`.
func DefaultYAML() ([]byte, error) {
	return marshal(Default())
}
