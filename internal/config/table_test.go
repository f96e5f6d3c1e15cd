package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracekit/dtracecol/internal/schema"
)

const sampleTableConfig = `
name: http_events
probe:
  object_path: /opt/probes/http_trace.o
  binary: /usr/local/bin/server
  perf_map: events
  uprobes:
    - program: probe_handle_request
      symbol: HandleRequest
    - program: probe_handle_request_ret
      symbol: HandleRequest
      ret: true
capacities:
  string: 64
  byte_array: 32
  blob: 128
fields:
  - name: status
    kind: int32
  - name: path
    kind: string
  - name: conn
    kind: struct_blob
    blob:
      - offset: 0
        kind: uint32
        path: conn.fd
      - offset: 4
        kind: int64
        path: conn.latency_ns
filter: cols.status >= 400
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTableConfig(t *testing.T) {
	tc, err := LoadTableConfig(writeConfig(t, sampleTableConfig))
	require.NoError(t, err)

	assert.Equal(t, "http_events", tc.Name)
	assert.Equal(t, "cols.status >= 400", tc.Filter)
	assert.Equal(t, "/opt/probes/http_trace.o", tc.Probe.ObjectPath)
	require.Len(t, tc.Probe.Uprobes, 2)
	assert.True(t, tc.Probe.Uprobes[1].Ret)

	sc, err := tc.Schema()
	require.NoError(t, err)
	assert.Equal(t, schema.Capacities{String: 64, ByteArray: 32, Blob: 128}, sc.Caps)

	// Prefix + three declared fields.
	require.Len(t, sc.Fields, schema.NumPrefixFields+3)
	assert.Equal(t, schema.Int32, sc.Fields[schema.NumPrefixFields].Kind)
	assert.Equal(t, schema.String, sc.Fields[schema.NumPrefixFields+1].Kind)
	assert.Equal(t, schema.StructBlob, sc.Fields[schema.NumPrefixFields+2].Kind)

	spec := sc.BlobSpec(schema.NumPrefixFields + 2)
	require.Len(t, spec, 2)
	assert.Equal(t, "conn.latency_ns", spec[1].Path)
	assert.Equal(t, schema.Int64, spec[1].Kind)

	assert.Equal(t, []string{"upid", "time_", "status", "path", "conn"}, sc.OutputColumns())
}

func TestLoadTableConfigDefaultsCapacities(t *testing.T) {
	tc, err := LoadTableConfig(writeConfig(t, `
name: t
fields:
  - name: x
    kind: int64
`))
	require.NoError(t, err)

	sc, err := tc.Schema()
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultCapacities, sc.Caps)
}

func TestLoadTableConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "fields:\n  - name: x\n    kind: int32\n"},
		{"no fields", "name: t\n"},
		{"bad kind", "name: t\nfields:\n  - name: x\n    kind: quaternion\n"},
		{"blob without spec", "name: t\nfields:\n  - name: x\n    kind: struct_blob\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTableConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadTableConfigMissingFile(t *testing.T) {
	_, err := LoadTableConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
