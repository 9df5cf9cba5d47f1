package pricing

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

// Default returns the embedded school-year table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded pricing table: %v", err))
	}
	return t
}

// Load reads a YAML pricing table from path. An empty path yields Default.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pricing file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML pricing table. Unknown keys are rejected
// so that a typo in a course or fee name does not silently drop a price.
func Parse(data []byte) (*Table, error) {
	var d Data
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse pricing yaml: %w", err)
	}
	return New(d)
}
