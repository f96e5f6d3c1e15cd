package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tracekit/dtracecol/internal/schema"
)

// TableConfig is the YAML description of one output table: the probe that
// feeds it, the wire capacities of its record struct, its declared fields
// and an optional row filter. It is produced by the probe compiler and
// must stay bit-for-bit consistent with the instrumentation program.
type TableConfig struct {
	Name       string           `yaml:"name"`
	Probe      ProbeConfig      `yaml:"probe"`
	Capacities CapacitiesConfig `yaml:"capacities"`
	Fields     []FieldConfig    `yaml:"fields"`
	Filter     string           `yaml:"filter,omitempty"`
}

// ProbeConfig locates the compiled instrumentation program and its
// attachment points.
type ProbeConfig struct {
	ObjectPath string         `yaml:"object_path"`
	Binary     string         `yaml:"binary"`
	PerfMap    string         `yaml:"perf_map"`
	Uprobes    []UprobeConfig `yaml:"uprobes"`
}

// UprobeConfig is one program/symbol attachment.
type UprobeConfig struct {
	Program string `yaml:"program"`
	Symbol  string `yaml:"symbol"`
	Ret     bool   `yaml:"ret,omitempty"`
}

// CapacitiesConfig sets the three fixed wire sizes. A zero value falls back
// to the generator default.
type CapacitiesConfig struct {
	String    int `yaml:"string"`
	ByteArray int `yaml:"byte_array"`
	Blob      int `yaml:"blob"`
}

// FieldConfig declares one visible record field. Blob entries are present
// only for struct_blob fields.
type FieldConfig struct {
	Name string            `yaml:"name"`
	Kind schema.ScalarKind `yaml:"kind"`
	Blob []BlobEntryConfig `yaml:"blob,omitempty"`
}

// BlobEntryConfig labels one scalar inside a struct-blob payload.
type BlobEntryConfig struct {
	Offset int               `yaml:"offset"`
	Kind   schema.ScalarKind `yaml:"kind"`
	Path   string            `yaml:"path"`
}

// LoadTableConfig reads and validates a table configuration file.
func LoadTableConfig(path string) (*TableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table config: %w", err)
	}

	var tc TableConfig
	if err := yaml.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("parsing table config %s: %w", path, err)
	}
	if tc.Name == "" {
		return nil, fmt.Errorf("table config %s: missing table name", path)
	}
	if len(tc.Fields) == 0 {
		return nil, fmt.Errorf("table config %s: no fields declared", path)
	}

	// Validate eagerly so a broken config fails at startup, not mid-drain.
	if _, err := tc.Schema(); err != nil {
		return nil, fmt.Errorf("table config %s: %w", path, err)
	}
	return &tc, nil
}

// Schema converts the configuration into the compiled record schema the
// decode pipeline consumes.
func (tc *TableConfig) Schema() (*schema.RecordSchema, error) {
	caps := schema.Capacities{
		String:    tc.Capacities.String,
		ByteArray: tc.Capacities.ByteArray,
		Blob:      tc.Capacities.Blob,
	}
	if caps.String == 0 {
		caps.String = schema.DefaultCapacities.String
	}
	if caps.ByteArray == 0 {
		caps.ByteArray = schema.DefaultCapacities.ByteArray
	}
	if caps.Blob == 0 {
		caps.Blob = schema.DefaultCapacities.Blob
	}

	visible := make([]schema.Field, len(tc.Fields))
	blobSpecs := make(map[int]schema.BlobSpec)
	for i, f := range tc.Fields {
		visible[i] = schema.Field{Name: f.Name, Kind: f.Kind}
		if len(f.Blob) > 0 {
			spec := make(schema.BlobSpec, len(f.Blob))
			for j, e := range f.Blob {
				spec[j] = schema.BlobEntry{Offset: e.Offset, Kind: e.Kind, Path: e.Path}
			}
			blobSpecs[i] = spec
		}
	}

	sc := schema.New(tc.Name, visible, caps, blobSpecs)
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}
