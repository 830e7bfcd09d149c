package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg := Default()
	require.NotEmpty(t, reg.Categories)

	names := make([]string, 0, len(reg.Categories))
	for _, c := range reg.Categories {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Features, "category %s", c.Name)
	}
	assert.Equal(t, []string{
		"general", "battery_motor", "access_storage", "adas", "lights",
		"interior", "glasses", "safety_technical", "connectivity_features",
		"connectivity_packages",
	}, names)
}

func TestLookup(t *testing.T) {
	reg := Default()

	cat, f, ok := reg.Lookup("Battery capacity [kWh]")
	require.True(t, ok)
	assert.Equal(t, "battery_motor", cat)
	assert.Equal(t, "battery_capacity", f.Key)
	assert.Equal(t, TypeNumber, f.Type)

	_, _, ok = reg.Lookup("No such feature")
	assert.False(t, ok)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad type",
			yaml:    "categories:\n- name: general\n  features:\n  - {label: A, key: a, type: float}\n",
			wantErr: "unknown type",
		},
		{
			name:    "missing key",
			yaml:    "categories:\n- name: general\n  features:\n  - {label: A, type: string}\n",
			wantErr: "missing label or key",
		},
		{
			name:    "duplicate label",
			yaml:    "categories:\n- name: general\n  features:\n  - {label: A, key: a, type: string}\n  - {label: A, key: b, type: string}\n",
			wantErr: "duplicate label",
		},
		{
			name:    "unnamed category",
			yaml:    "categories:\n- features:\n  - {label: A, key: a, type: string}\n",
			wantErr: "without a name",
		},
		{
			name:    "not yaml",
			yaml:    "{{{{",
			wantErr: "parse mapping",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTyped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		typ  FieldType
		want any
	}{
		{"number", "95.5", TypeNumber, 95.5},
		{"integer number", "500", TypeNumber, 500.0},
		{"unparseable number", "ca. 500", TypeNumber, nil},
		{"boolean yes", "Yes", TypeBoolean, 1},
		{"boolean true", "true", TypeBoolean, 1},
		{"boolean one", "1", TypeBoolean, 1},
		{"boolean no", "NO", TypeBoolean, 0},
		{"boolean zero", "0", TypeBoolean, 0},
		{"boolean junk", "maybe", TypeBoolean, nil},
		{"string verbatim", "AWD", TypeString, "AWD"},
		{"string trimmed", "  AWD ", TypeString, "AWD"},
		{"empty", "", TypeNumber, nil},
		{"whitespace only", "   ", TypeString, nil},
		{"unknown type", "x", FieldType("date"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTyped(tt.raw, tt.typ))
		})
	}
}
