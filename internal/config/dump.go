package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

// Dump writes the effective configuration as YAML. Secrets are redacted.
func (c *Configuration) Dump(w io.Writer) error {
	out := *c
	if out.Sources.BLS.RegistrationKey != "" {
		out.Sources.BLS.RegistrationKey = redacted
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
