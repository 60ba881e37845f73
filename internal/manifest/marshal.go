package manifest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

func marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush manifest encoder: %w", err)
	}
	return buf.Bytes(), nil
}
