package identity

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func seeded(b byte) *Generator {
	var seed [32]byte
	seed[0] = b
	return NewGenerator(rand.NewChaCha8(seed))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestGenerator_Shape(t *testing.T) {
	gen := NewGenerator(nil)

	for i := 0; i < 500; i++ {
		id, err := gen.New()
		require.NoError(t, err)
		require.Len(t, string(id), 36)
		require.Regexp(t, idPattern, string(id))
	}
}

func TestGenerator_VariantNibbleCoversRange(t *testing.T) {
	gen := seeded(7)
	seen := make(map[byte]bool)

	for i := 0; i < 400; i++ {
		id, err := gen.New()
		require.NoError(t, err)
		seen[id[19]] = true
		assert.Equal(t, byte('4'), id[14])
	}

	for _, c := range []byte("89ab") {
		assert.True(t, seen[c], "variant nibble %q never produced", c)
	}
	assert.Len(t, seen, 4)
}

func TestGenerator_Deterministic(t *testing.T) {
	a, err := seeded(1).New()
	require.NoError(t, err)
	b, err := seeded(1).New()
	require.NoError(t, err)
	c, err := seeded(2).New()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerator_Unique(t *testing.T) {
	gen := NewGenerator(nil)
	seen := make(map[ID]bool)

	for i := 0; i < 1000; i++ {
		id, err := gen.New()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate identifier %s", id)
		seen[id] = true
	}
}

func TestGenerator_EntropyFailure(t *testing.T) {
	gen := NewGenerator(failingReader{})

	id, err := gen.New()
	require.Error(t, err)
	assert.Empty(t, id)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestParse(t *testing.T) {
	valid, err := seeded(3).New()
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"generated", string(valid), false},
		{"empty", "", true},
		{"upper case", strings.ToUpper(string(valid)), true},
		{"version 1", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
		{"bad variant", "123e4567-e89b-42d3-c456-426614174000", true},
		{"braces", "{" + string(valid) + "}", true},
		{"not hex", "zzzzzzzz-zzzz-4zzz-8zzz-zzzzzzzzzzzz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Parse(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valid, id)
		})
	}
}

func TestID_Prefix(t *testing.T) {
	id := ID("abcdef12-0000-4000-8000-000000000000")

	assert.Equal(t, "abcd", id.Prefix(4))
	assert.Equal(t, "", id.Prefix(0))
	assert.Equal(t, "", id.Prefix(-1))
	assert.Equal(t, string(id), id.Prefix(100))
}

func TestIdentity(t *testing.T) {
	ident := NewIdentity("abc")
	assert.Equal(t, ID("abc"), ident.ID())
	assert.Equal(t, "abc", ident.ID().String())
}
