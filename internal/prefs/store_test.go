package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("device_name", "Scarlett 2i2"))
	got, err := s.Get("device_name")
	require.NoError(t, err)
	assert.Equal(t, "Scarlett 2i2", got)
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("step", "5"))
	require.NoError(t, s.Set("step", "10"))
	got, err := s.Get("step")
	require.NoError(t, err)
	assert.Equal(t, "10", got)
}

func TestTypedAccessorsWithFallbacks(t *testing.T) {
	s := openTestStore(t)

	assert.True(t, s.GetBool("missing", true))
	assert.InDelta(t, 5.0, s.GetFloat("missing", 5.0), 0.001)

	require.NoError(t, s.SetBool("gain_allowed", true))
	assert.True(t, s.GetBool("gain_allowed", false))

	require.NoError(t, s.SetFloat("step_percent", 7.5))
	assert.InDelta(t, 7.5, s.GetFloat("step_percent", 0), 0.001)

	// Unparseable stored values fall back rather than error.
	require.NoError(t, s.Set("gain_allowed", "definitely"))
	assert.False(t, s.GetBool("gain_allowed", false))
}

func TestShortcutLifecycle(t *testing.T) {
	s := openTestStore(t)

	sc := Shortcut{Action: "toggle-monitor", KeyCode: 46, Modifiers: 0x100}
	require.NoError(t, s.SaveShortcut(sc))

	got, err := s.Shortcut("toggle-monitor")
	require.NoError(t, err)
	assert.Equal(t, sc, got)

	// Re-recording replaces the binding.
	sc.KeyCode = 11
	require.NoError(t, s.SaveShortcut(sc))
	got, err = s.Shortcut("toggle-monitor")
	require.NoError(t, err)
	assert.Equal(t, 11, got.KeyCode)

	require.NoError(t, s.DeleteShortcut("toggle-monitor"))
	_, err = s.Shortcut("toggle-monitor")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShortcutsListing(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveShortcut(Shortcut{Action: "volume-up", KeyCode: 1}))
	require.NoError(t, s.SaveShortcut(Shortcut{Action: "mute", KeyCode: 2}))

	all, err := s.Shortcuts()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "mute", all[0].Action) // ordered by action
	assert.Equal(t, "volume-up", all[1].Action)
}

func TestDeleteMissingShortcutIsQuiet(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.DeleteShortcut("never-recorded"))
}
