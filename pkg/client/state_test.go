package client

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStatePreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	state, err := OpenState(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(path), state.GetStateDir())
	assert.Equal(t, "", state.GetLastNickname())
	assert.Equal(t, uint64(0), state.GetLastChannel())
	assert.False(t, state.GetMuted())

	require.NoError(t, state.SetLastNickname("alice"))
	require.NoError(t, state.SetLastChannel(7))
	require.NoError(t, state.SetMuted(true))
	require.NoError(t, state.Close())

	// Reopen to check values and migrations survive
	state, err = OpenState(path)
	require.NoError(t, err)
	defer state.Close()

	assert.Equal(t, "alice", state.GetLastNickname())
	assert.Equal(t, uint64(7), state.GetLastChannel())
	assert.True(t, state.GetMuted())

	require.NoError(t, state.SetMuted(false))
	assert.False(t, state.GetMuted())
}

func TestStateConfigMissingKey(t *testing.T) {
	state, err := OpenState(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer state.Close()

	v, err := state.GetConfig("nope")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, state.SetConfig("last_channel", "garbage"))
	assert.Equal(t, uint64(0), state.GetLastChannel())
}

func TestMockState(t *testing.T) {
	s := NewMockState()
	require.NoError(t, s.SetLastChannel(3))
	require.NoError(t, s.SetMuted(true))
	require.NoError(t, s.SetLastNickname("bob"))

	assert.Equal(t, uint64(3), s.GetLastChannel())
	assert.True(t, s.GetMuted())
	assert.Equal(t, "bob", s.GetLastNickname())
	assert.Len(t, s.GetAllConfig(), 3)

	boom := errors.New("boom")
	s.SetSetConfigError(boom)
	assert.ErrorIs(t, s.SetMuted(false), boom)
	s.SetGetConfigError(boom)
	assert.False(t, s.GetMuted())
}
