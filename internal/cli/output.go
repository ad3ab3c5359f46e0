package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"go.yaml.in/yaml/v3"

	"github.com/agentflare-ai/jsondelta/internal/value"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func addOutputFlag(f *pflag.FlagSet, target *string) {
	f.StringVarP(target, "output", "o", outputJSON, "Output format: json or yaml")
}

func validateOutput(format string) error {
	switch format {
	case outputJSON, outputYAML:
		return nil
	}
	return usageError{err: fmt.Errorf("unsupported output format %q: expected json or yaml", format)}
}

// render encodes v in the requested format, ending in a newline.
func render(v any, format string) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	if format != outputYAML {
		return append(data, '\n'), nil
	}

	// YAML goes through the JSON form so field names and null handling match
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return out, nil
}

func writeOutput(w io.Writer, v any, format string) error {
	if value.IsAbsent(v) {
		v = nil
	}
	data, err := render(v, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
