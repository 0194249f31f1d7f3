package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSource_DeliversUntilPaused(t *testing.T) {
	src := NewMockSource()
	var got [][]byte
	require.NoError(t, src.Start(func(c []byte) { got = append(got, c) }))
	assert.True(t, src.Started())

	assert.True(t, src.Emit([]byte{1}))
	require.NoError(t, src.Pause())
	assert.True(t, src.Paused())
	assert.False(t, src.Emit([]byte{2}), "paused source drops chunks")

	require.NoError(t, src.Resume())
	assert.False(t, src.Paused())
	assert.True(t, src.Emit([]byte{3}))

	assert.Equal(t, [][]byte{{1}, {3}}, got)
	assert.Equal(t, 1, src.Pauses())
	assert.Equal(t, 1, src.Resumes())
}

func TestMockSource_EmitCopies(t *testing.T) {
	src := NewMockSource()
	var got []byte
	require.NoError(t, src.Start(func(c []byte) { got = c }))

	buf := []byte{1, 2}
	src.Emit(buf)
	buf[0] = 9
	assert.Equal(t, []byte{1, 2}, got)
}

func TestMockSource_StartTwice(t *testing.T) {
	src := NewMockSource()
	require.NoError(t, src.Start(func([]byte) {}))
	assert.Error(t, src.Start(func([]byte) {}))
}

func TestMockSource_Closed(t *testing.T) {
	src := NewMockSource()
	require.NoError(t, src.Close())
	assert.True(t, src.Closed())
	assert.ErrorIs(t, src.Start(func([]byte) {}), ErrClosed)
	assert.False(t, src.Emit([]byte{1}))
}

func TestMockSource_ResumeError(t *testing.T) {
	src := NewMockSource()
	src.ResumeErr = errors.New("device busy")
	require.NoError(t, src.Pause())

	assert.Error(t, src.Resume())
	assert.True(t, src.Paused())
}
