package domain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadMapping reads a mapping file and builds the model. The format is
// chosen by extension: .yaml/.yml or .toml.
func LoadMapping(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping %s: %w", path, err)
	}

	var m Mapping
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		m, err = ParseYAML(data)
	case ".toml":
		m, err = ParseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported mapping format %q (use .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping %s: %w", path, err)
	}
	return NewModel(m)
}

// ParseYAML decodes a YAML mapping document, rejecting unknown fields.
func ParseYAML(data []byte) (Mapping, error) {
	var m Mapping
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Mapping{}, err
	}
	return m, nil
}

// ParseTOML decodes a TOML mapping document, rejecting unknown fields.
func ParseTOML(data []byte) (Mapping, error) {
	var m Mapping
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return Mapping{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Mapping{}, fmt.Errorf("unknown fields: %s", strings.Join(keys, ", "))
	}
	return m, nil
}
