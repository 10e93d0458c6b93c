package localstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceIDGeneratedExactlyOnce(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenDir(dir)
	require.NoError(t, err)
	id1, err := s.DeviceID()
	require.NoError(t, err)
	_, err = uuid.Parse(id1)
	require.NoError(t, err, "device id is a uuid")

	id2, err := s.DeviceID()
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// A new Store over the same directory models a process restart.
	s2, err := OpenDir(dir)
	require.NoError(t, err)
	id3, err := s2.DeviceID()
	require.NoError(t, err)
	assert.Equal(t, id1, id3, "device id survives restarts")
}

func TestDraftRoundTrip(t *testing.T) {
	s, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	type snapshot struct {
		OrderID string `json:"order_id"`
		Total   string `json:"total"`
	}

	var got snapshot
	ok, err := s.LoadDraft(&got)
	require.NoError(t, err)
	assert.False(t, ok, "no draft yet")

	require.NoError(t, s.SaveDraft(snapshot{OrderID: "ord-1", Total: "3000"}))
	ok, err = s.LoadDraft(&got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ord-1", got.OrderID)

	require.NoError(t, s.ClearDraft())
	require.NoError(t, s.ClearDraft(), "clearing an absent draft is fine")
	ok, err = s.LoadDraft(&got)
	require.NoError(t, err)
	assert.False(t, ok)
}
