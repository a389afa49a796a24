package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bmcpi/bootctl/internal/config"
	"github.com/ghodss/yaml"
)

// writeStructured writes v in the configured structured format. It reports
// false when the output format is text.
func (t *commandTable) writeStructured(w io.Writer, v any) (bool, error) {
	switch t.conf.Output {
	case config.OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return true, encoder.Encode(v)
	case config.OutputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(data)
		return true, err
	default:
		return false, nil
	}
}
