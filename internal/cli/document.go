package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/itchyny/gojq"
	"go.yaml.in/yaml/v3"

	"github.com/agentflare-ai/jsondelta"
	"github.com/agentflare-ai/jsondelta/internal/value"
)

const stdinName = "-"

func isYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == stdinName {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

// readDocument loads a JSON or YAML file as a canonical tree.
func readDocument(stdin io.Reader, name string) (any, error) {
	data, err := readInput(stdin, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !isYAML(name) {
		doc, err := value.Normalize(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return doc, nil
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	doc, err := value.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return doc, nil
}

// readPatch loads a JSON or YAML patch file.
func readPatch(stdin io.Reader, name string) (jsondelta.Patch, error) {
	doc, err := readDocument(stdin, name)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch %s: %w", name, err)
	}
	var patch jsondelta.Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, fmt.Errorf("failed to decode patch %s: %w", name, err)
	}
	return patch, nil
}

// selectDocument runs a jq expression over doc. Several results are collected
// into an array.
func selectDocument(doc any, expression string) (any, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return doc, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, usageError{err: fmt.Errorf("invalid select expression: %w", err)}
	}

	iter := query.Run(doc)
	results := make([]any, 0, 1)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("failed to evaluate select expression: %w", err)
		}
		results = append(results, v)
	}

	var out any
	switch len(results) {
	case 0:
		out = value.Absent
	case 1:
		out = results[0]
	default:
		out = results
	}
	return value.Normalize(out)
}
