package service

import (
	"testing"

	"upager-license-server/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupSnapshot(t *testing.T) {
	lifecycle, _ := newTestLifecycle(t)

	key := mustCreate(t, lifecycle, "a@x.com", model.TierProAnnual, 2)
	mustCreate(t, lifecycle, "b@x.com", model.TierProLifetime, 1)
	_, err := lifecycle.Activate(key, "a@x.com", "M1", "1.2.3.4")
	require.NoError(t, err)

	snapshot, err := lifecycle.BackupSnapshot()
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.Counts.Licenses)
	assert.Equal(t, 1, snapshot.Counts.Activations)
	assert.Len(t, snapshot.Licenses, 2)
	assert.Len(t, snapshot.Activations, 1)
	assert.False(t, snapshot.BackupDate.IsZero())
}

func TestRestoreSnapshotReplacesData(t *testing.T) {
	lifecycle, _ := newTestLifecycle(t)

	key := mustCreate(t, lifecycle, "a@x.com", model.TierProAnnual, 2)
	_, err := lifecycle.Activate(key, "a@x.com", "M1", "1.2.3.4")
	require.NoError(t, err)

	snapshot, err := lifecycle.BackupSnapshot()
	require.NoError(t, err)

	// Data written after the snapshot disappears on restore.
	extraKey := mustCreate(t, lifecycle, "late@x.com", model.TierFree, 1)

	counts, err := lifecycle.RestoreSnapshot(snapshot)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Licenses)
	assert.Equal(t, 1, counts.Activations)

	_, err = lifecycle.GetLicense(extraKey)
	assert.ErrorIs(t, err, ErrInvalidKey)

	// The restored license still verifies on its machine.
	result, err := lifecycle.Verify(key, "M1", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestRestoreSnapshotNil(t *testing.T) {
	lifecycle, _ := newTestLifecycle(t)
	_, err := lifecycle.RestoreSnapshot(nil)
	assert.ErrorIs(t, err, ErrValidation)
}
