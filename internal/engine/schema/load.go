package schema

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadSpec reads a schema spec in the given format ("yaml" or "toml").
//
// Node and mark entries are tables with the NodeSpec/MarkSpec field names.
// Attributes are a table of name to {default = value}; an attribute without
// a default key is required.
func LoadSpec(r io.Reader, format string) (Spec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Spec{}, fmt.Errorf("read schema: %w", err)
	}

	raw := make(map[string]any)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &raw)
	case "toml":
		err = toml.Unmarshal(data, &raw)
	default:
		return Spec{}, fmt.Errorf("schema format %q not supported", format)
	}
	if err != nil {
		return Spec{}, fmt.Errorf("parse schema %s: %w", format, err)
	}
	return DecodeSpec(raw)
}

// LoadSpecFile reads a schema spec file, picking the format from the
// extension.
func LoadSpecFile(path string) (Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spec{}, err
	}
	defer f.Close()

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	spec, err := LoadSpec(f, format)
	if err != nil {
		return Spec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// DecodeSpec converts a generic map, as produced by a YAML or TOML decoder,
// into a Spec.
func DecodeSpec(raw map[string]any) (Spec, error) {
	var spec Spec
	for key, v := range raw {
		switch key {
		case "topNode":
			s, ok := v.(string)
			if !ok {
				return Spec{}, fmt.Errorf("topNode: expected string, got %T", v)
			}
			spec.TopNode = s
		case "defaultBlock":
			s, ok := v.(string)
			if !ok {
				return Spec{}, fmt.Errorf("defaultBlock: expected string, got %T", v)
			}
			spec.DefaultBlock = s
		case "nodes", "marks":
		default:
			return Spec{}, fmt.Errorf("unknown schema key %q", key)
		}
	}

	nodes, err := entries(raw["nodes"], "nodes")
	if err != nil {
		return Spec{}, err
	}
	for i, entry := range nodes {
		var ns NodeSpec
		attrs, err := decodeEntry(entry, &ns)
		if err != nil {
			return Spec{}, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		ns.Attrs = attrs
		spec.Nodes = append(spec.Nodes, ns)
	}

	marks, err := entries(raw["marks"], "marks")
	if err != nil {
		return Spec{}, err
	}
	for i, entry := range marks {
		var ms MarkSpec
		attrs, err := decodeEntry(entry, &ms)
		if err != nil {
			return Spec{}, fmt.Errorf("marks[%d]: %w", i, err)
		}
		ms.Attrs = attrs
		spec.Marks = append(spec.Marks, ms)
	}
	return spec, nil
}

func entries(v any, key string) ([]map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected list, got %T", key, v)
	}
	out := make([]map[string]any, 0, len(list))
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected table, got %T", key, i, e)
		}
		out = append(out, m)
	}
	return out, nil
}

// decodeEntry decodes everything but attrs into target with mapstructure
// and returns the attrs separately, since an attribute's required-ness
// depends on whether the default key is present at all.
func decodeEntry(entry map[string]any, target any) (map[string]AttrSpec, error) {
	rest := make(map[string]any, len(entry))
	for k, v := range entry {
		if k != "attrs" {
			rest[k] = v
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(rest); err != nil {
		return nil, err
	}

	rawAttrs, ok := entry["attrs"]
	if !ok || rawAttrs == nil {
		return nil, nil
	}
	table, ok := rawAttrs.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("attrs: expected table, got %T", rawAttrs)
	}
	attrs := make(map[string]AttrSpec, len(table))
	for name, v := range table {
		if v == nil {
			attrs[name] = Required()
			continue
		}
		def, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("attrs.%s: expected table, got %T", name, v)
		}
		if d, has := def["default"]; has {
			attrs[name] = Attr(NormalizeValue(d))
		} else {
			attrs[name] = Required()
		}
	}
	return attrs, nil
}
