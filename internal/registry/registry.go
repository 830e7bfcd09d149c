// Package registry maps display feature labels to backend spec keys and
// declared value types, grouped by feature category. The default mapping
// ships embedded; deployments can load their own yaml.
package registry

import (
	_ "embed"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed features.yaml
var defaultMapping []byte

// FieldType is the declared type of a feature's backend value.
type FieldType string

const (
	TypeNumber  FieldType = "number"
	TypeString  FieldType = "string"
	TypeBoolean FieldType = "boolean"
)

// Feature binds one display label to its backend key and type.
type Feature struct {
	Label string    `yaml:"label"`
	Key   string    `yaml:"key"`
	Type  FieldType `yaml:"type"`
}

// Category groups features under one backend spec section.
type Category struct {
	Name     string    `yaml:"name"`
	Features []Feature `yaml:"features"`
}

// Registry is the full label to key mapping.
type Registry struct {
	Categories []Category `yaml:"categories"`

	byLabel map[string]labelEntry
}

type labelEntry struct {
	category string
	feature  Feature
}

// Load parses a yaml mapping and validates it.
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read mapping")
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, eris.Wrap(err, "registry: parse mapping")
	}

	reg.byLabel = make(map[string]labelEntry)
	for _, cat := range reg.Categories {
		if cat.Name == "" {
			return nil, eris.New("registry: category without a name")
		}
		for _, f := range cat.Features {
			switch f.Type {
			case TypeNumber, TypeString, TypeBoolean:
			default:
				return nil, eris.Errorf("registry: feature %q: unknown type %q", f.Label, f.Type)
			}
			if f.Label == "" || f.Key == "" {
				return nil, eris.Errorf("registry: category %s: feature missing label or key", cat.Name)
			}
			if _, dup := reg.byLabel[f.Label]; dup {
				return nil, eris.Errorf("registry: duplicate label %q", f.Label)
			}
			reg.byLabel[f.Label] = labelEntry{category: cat.Name, feature: f}
		}
	}
	return &reg, nil
}

// Default returns the embedded mapping. The embedded file is validated by
// tests, so a parse failure here is a build defect.
func Default() *Registry {
	reg, err := Load(strings.NewReader(string(defaultMapping)))
	if err != nil {
		panic(err)
	}
	return reg
}

// Lookup resolves a display label to its category and feature binding.
func (r *Registry) Lookup(label string) (category string, f Feature, ok bool) {
	e, ok := r.byLabel[label]
	if !ok {
		return "", Feature{}, false
	}
	return e.category, e.feature, true
}

// ParseTyped converts a raw string value into its typed backend form.
// The conversion is strictly type-directed:
//
//   - empty or whitespace-only input is nil for every type;
//   - number: strconv float parse, nil when unparseable;
//   - boolean: yes/true/1 map to 1 and no/false/0 map to 0 (the backend
//     stores booleans numerically), anything else is nil;
//   - string: the trimmed input verbatim.
func ParseTyped(raw string, typ FieldType) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}

	switch typ {
	case TypeNumber:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return n
	case TypeBoolean:
		switch strings.ToLower(v) {
		case "yes", "true", "1":
			return 1
		case "no", "false", "0":
			return 0
		}
		return nil
	case TypeString:
		return v
	default:
		return nil
	}
}
