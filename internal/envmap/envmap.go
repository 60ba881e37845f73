// Package envmap models the process environment as an explicit map so that
// overlay application and propagation between bootstrap steps stay testable.
// Callers take a snapshot of the inherited environment once and thread mutated
// copies through each step instead of touching global process state.
package envmap

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

type Map map[string]string

// FromEnviron parses KEY=VALUE pairs as produced by os.Environ.
// Malformed entries without '=' are skipped.
func FromEnviron(environ []string) Map {
	m := make(Map, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		m[key] = value
	}
	return m
}

// Inherited snapshots the current process environment.
func Inherited() Map {
	return FromEnviron(os.Environ())
}

func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m Map) Set(key, value string) {
	m[key] = value
}

func (m Map) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Map) Get(key string) string {
	return m[key]
}

// Apply folds an overlay into the map. Overlay values may reference
// variables with $VAR or ${VAR}; references resolve against the receiver
// before the overlay keys are set, so `PATH: /opt/tool/bin:$PATH` extends
// the search path rather than replacing it. Overlay keys are applied in
// sorted order to keep the result deterministic when one overlay key
// references another.
func (m Map) Apply(overlay map[string]string) {
	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		m[k] = m.Expand(overlay[k])
	}
}

// Expand resolves $VAR and ${VAR} references in value against the map.
// Unknown variables expand to the empty string, matching shell behavior.
func (m Map) Expand(value string) string {
	return os.Expand(value, func(key string) string {
		return m[key]
	})
}

// Environ renders the map as a sorted KEY=VALUE slice for exec.Cmd.Env.
func (m Map) Environ() []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// PathContainsDir reports whether dir is already an entry of a
// PATH-style list value.
func PathContainsDir(pathValue, dir string) bool {
	target := normalizePathForCompare(dir)
	if target == "" {
		return false
	}
	for _, part := range filepath.SplitList(pathValue) {
		if normalizePathForCompare(part) == target {
			return true
		}
	}
	return false
}

func normalizePathForCompare(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if runtime.GOOS == "windows" {
		p = strings.ToLower(filepath.ToSlash(p))
	}
	return p
}
