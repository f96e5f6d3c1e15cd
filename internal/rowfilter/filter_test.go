package rowfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracekit/dtracecol/internal/colval"
)

func TestCompileRejectsBadExpressions(t *testing.T) {
	tests := []string{
		`cols.value >`,     // syntax error
		`"not a boolean"`,  // wrong result type
		`undefined_var(1)`, // unknown identifier
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			assert.Error(t, err)
		})
	}
}

func TestKeep(t *testing.T) {
	f, err := Compile(`cols.latency > 1000 && cols.path != "/healthz"`)
	require.NoError(t, err)

	cols := []string{"latency", "path"}

	keep, err := f.Keep(cols, []colval.Value{colval.Int64(5000), colval.Str("/api")})
	require.NoError(t, err)
	assert.True(t, keep)

	keep, err = f.Keep(cols, []colval.Value{colval.Int64(5000), colval.Str("/healthz")})
	require.NoError(t, err)
	assert.False(t, keep)

	keep, err = f.Keep(cols, []colval.Value{colval.Int64(10), colval.Str("/api")})
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestKeepSoftFailsOnMissingColumn(t *testing.T) {
	f, err := Compile(`cols.nope > 1`)
	require.NoError(t, err)

	keep, err := f.Keep([]string{"other"}, []colval.Value{colval.Int64(1)})
	// Evaluation failure keeps the row; the error surfaces for logging.
	assert.True(t, keep)
	assert.Error(t, err)
}

func TestSource(t *testing.T) {
	f, err := Compile(`true`)
	require.NoError(t, err)
	assert.Equal(t, `true`, f.Source())
}
