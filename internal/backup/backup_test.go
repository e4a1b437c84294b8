package backup_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethervault/ethervault/internal/backup"
	"github.com/ethervault/ethervault/internal/store"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

// seedWallet writes fake artifacts directly; backup operates on file
// bytes and never decrypts them.
func seedWallet(t *testing.T, home string, withRecord bool) *store.Store {
	t.Helper()
	require.NoError(t, os.MkdirAll(home, 0o700))

	st := store.New(home)
	require.NoError(t, os.WriteFile(st.KeystorePath(), []byte(`{"version":3}`), 0o600))
	if withRecord {
		require.NoError(t, os.WriteFile(st.RecordPath(), []byte("b64blob"), 0o600))
	}
	return st
}

func TestBackup_CreateVerifyRestore(t *testing.T) {
	home := filepath.Join(t.TempDir(), "vault")
	st := seedWallet(t, home, true)
	backupDir := t.TempDir()

	svc := backup.NewService(backupDir, st)
	path, err := svc.Create("0xabc", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, backupDir, filepath.Dir(path))

	manifest, err := svc.Verify(path)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", manifest.Address)
	assert.True(t, manifest.HasRecord)

	// Restore into a fresh home.
	freshHome := filepath.Join(t.TempDir(), "restored")
	freshStore := store.New(freshHome)
	freshSvc := backup.NewService(backupDir, freshStore)

	require.NoError(t, freshSvc.Restore(path, "hunter2"))
	assert.True(t, freshStore.HasKeystore())
	assert.True(t, freshStore.HasRecord())

	restored, err := os.ReadFile(freshStore.KeystorePath())
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":3}`), restored)
}

func TestBackup_RestoreWrongPassword(t *testing.T) {
	st := seedWallet(t, filepath.Join(t.TempDir(), "vault"), false)
	svc := backup.NewService(t.TempDir(), st)

	path, err := svc.Create("0xabc", "hunter2")
	require.NoError(t, err)

	freshStore := store.New(filepath.Join(t.TempDir(), "restored"))
	freshSvc := backup.NewService(t.TempDir(), freshStore)
	err = freshSvc.Restore(path, "wrong")
	assert.ErrorIs(t, err, walleterr.ErrAuthentication)
	assert.False(t, freshStore.HasKeystore())
}

func TestBackup_RestoreRefusesOverwrite(t *testing.T) {
	st := seedWallet(t, filepath.Join(t.TempDir(), "vault"), false)
	svc := backup.NewService(t.TempDir(), st)

	path, err := svc.Create("0xabc", "hunter2")
	require.NoError(t, err)

	// Same store still holds a wallet.
	err = svc.Restore(path, "hunter2")
	assert.ErrorIs(t, err, walleterr.ErrWalletExists)
}

func TestBackup_VerifyDetectsTamper(t *testing.T) {
	st := seedWallet(t, filepath.Join(t.TempDir(), "vault"), false)
	svc := backup.NewService(t.TempDir(), st)

	path, err := svc.Create("0xabc", "hunter2")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var b backup.Backup
	require.NoError(t, json.Unmarshal(raw, &b))
	b.Data[0] ^= 0x01
	tampered, err := json.Marshal(&b)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, tampered, 0o600))

	_, err = svc.Verify(path)
	assert.ErrorIs(t, err, walleterr.ErrBackupCorrupted)
}

func TestBackup_MissingFile(t *testing.T) {
	st := store.New(t.TempDir())
	svc := backup.NewService(t.TempDir(), st)

	_, err := svc.Verify(filepath.Join(t.TempDir(), "nope.evbak"))
	assert.ErrorIs(t, err, walleterr.ErrBackupNotFound)
}

func TestBackup_CreateWithoutWallet(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "empty"))
	svc := backup.NewService(t.TempDir(), st)

	_, err := svc.Create("0xabc", "hunter2")
	assert.ErrorIs(t, err, walleterr.ErrWalletNotFound)
}

func TestBackup_List(t *testing.T) {
	st := seedWallet(t, filepath.Join(t.TempDir(), "vault"), false)
	backupDir := t.TempDir()
	svc := backup.NewService(backupDir, st)

	names, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = svc.Create("0xabc", "hunter2")
	require.NoError(t, err)

	names, err = svc.List()
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Contains(t, names[0], backup.Extension)
}
