package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession(t *testing.T) {
	sid := []byte("run-42")
	s, err := New(sid, 1024)
	require.NoError(t, err)

	sid[0] = 'X'
	assert.Equal(t, []byte("run-42"), s.ID())
	assert.Len(t, s.Hash(), HashSize)

	other, err := New([]byte("run-43"), 1024)
	require.NoError(t, err)

	assert.NoError(t, s.Check(s.Hash()))
	assert.ErrorIs(t, s.Check(other.Hash()), ErrMismatch)
	assert.ErrorIs(t, s.Check(nil), ErrMismatch)
	assert.NotEqual(t, s.Context("a"), other.Context("a"))
}

func TestNewRejects(t *testing.T) {
	_, err := New(nil, 1024)
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = New([]byte("abcdef"), 4)
	assert.ErrorIs(t, err, ErrInvalidID)
}
