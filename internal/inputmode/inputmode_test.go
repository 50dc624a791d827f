package inputmode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var c Controller = Nop{}

	assert.NoError(t, c.Suppress())
	assert.NoError(t, c.Restore())
}

func TestNew_NilFile(t *testing.T) {
	assert.Equal(t, Nop{}, New(nil, zerolog.Nop()))
}

func TestNew_RegularFileIsNotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	c := New(f, zerolog.Nop())

	assert.Equal(t, Nop{}, c)
	assert.NoError(t, c.Suppress())
	assert.NoError(t, c.Restore())
}
