package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/heimdex/heimdex-timeline/internal/editor"
)

// YAML renders a project state as block-style YAML with the same field
// names and order as its JSON form.
func YAML(state editor.State) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	// JSON is a YAML subset, so parsing it keeps key order.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert state: %w", err)
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to write yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseState reads a project state from YAML or JSON and validates it.
func ParseState(data []byte) (editor.State, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return editor.State{}, fmt.Errorf("failed to parse state: %w", err)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return editor.State{}, fmt.Errorf("failed to parse state: %w", err)
	}

	var st editor.State
	if err := json.Unmarshal(asJSON, &st); err != nil {
		return editor.State{}, fmt.Errorf("failed to decode state: %w", err)
	}
	if st.ZoomLevel == 0 {
		st.ZoomLevel = editor.DefaultZoom
	}
	if err := st.Validate(); err != nil {
		return editor.State{}, err
	}
	return st, nil
}

// blockStyle drops the flow and quoting styles inherited from JSON. Strings
// stay quoted when the plain form would read back as another type.
func blockStyle(n *yaml.Node) {
	if n.Kind != yaml.ScalarNode || n.Tag != "!!str" || plainString(n.Value) {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func plainString(v string) bool {
	if v == "" {
		return false
	}
	var probe any
	if err := yaml.Unmarshal([]byte(v), &probe); err != nil {
		return false
	}
	s, ok := probe.(string)
	return ok && s == v
}
