package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethervault/ethervault/internal/config"
	"github.com/ethervault/ethervault/internal/store"
	"github.com/ethervault/ethervault/internal/wallet"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newLifecycle(t *testing.T) (*wallet.Lifecycle, *config.Config, string) {
	t.Helper()
	home := filepath.Join(t.TempDir(), "vault")
	cfg, err := config.Load(home)
	require.NoError(t, err)
	return wallet.New(store.New(home), cfg, config.NullLogger()), cfg, home
}

func TestLifecycle_CreateUnlockErase(t *testing.T) {
	lc, cfg, _ := newLifecycle(t)
	assert.Equal(t, wallet.Uninitialized, lc.State())

	km, err := lc.Create("", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, wallet.Active, lc.State())
	assert.Equal(t, km.Address, cfg.Address)

	// Unlock with the right password yields the same account.
	unlocked, err := lc.Unlock("hunter2")
	require.NoError(t, err)
	assert.Equal(t, km.Address, unlocked.Address)

	// A wrong password is an authentication failure, not a crash.
	_, err = lc.Unlock("wrong")
	assert.ErrorIs(t, err, walleterr.ErrAuthentication)

	require.NoError(t, lc.Erase())
	assert.Equal(t, wallet.Uninitialized, lc.State())

	_, err = lc.Unlock("hunter2")
	assert.ErrorIs(t, err, walleterr.ErrWalletNotFound)
}

func TestLifecycle_CreateRefusesWhenActive(t *testing.T) {
	lc, _, _ := newLifecycle(t)
	_, err := lc.Create("", "hunter2")
	require.NoError(t, err)

	_, err = lc.Create("", "hunter2")
	assert.ErrorIs(t, err, walleterr.ErrWalletExists)

	_, err = lc.Restore(testMnemonic, "", "hunter2")
	assert.ErrorIs(t, err, walleterr.ErrWalletExists)
}

func TestLifecycle_RestoreIsDeterministic(t *testing.T) {
	lc1, _, _ := newLifecycle(t)
	km1, err := lc1.Restore(testMnemonic, "", "pw-one")
	require.NoError(t, err)

	lc2, _, _ := newLifecycle(t)
	km2, err := lc2.Restore(testMnemonic, "", "pw-two")
	require.NoError(t, err)

	// The wallet password encrypts at rest; it does not influence
	// derivation.
	assert.Equal(t, km1.Address, km2.Address)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", km1.Address)
}

func TestLifecycle_RestoreRecordKeepsMnemonic(t *testing.T) {
	lc, _, _ := newLifecycle(t)
	_, err := lc.Restore(testMnemonic, "", "hunter2")
	require.NoError(t, err)

	rec, err := lc.DecryptRecord("hunter2")
	require.NoError(t, err)
	require.NotNil(t, rec.MnemonicSecret)
	assert.Equal(t, testMnemonic, *rec.MnemonicSecret)
	require.NotNil(t, rec.DerivationPath)
	assert.Equal(t, "m/44'/60'/0'/0/0", *rec.DerivationPath)
	assert.Nil(t, rec.Passphrase)
}

func TestLifecycle_ImportWritesNoRecord(t *testing.T) {
	lc, cfg, _ := newLifecycle(t)

	km, err := lc.Import("0x4c0883a69102937d6231471b5dbb6204fe512961708279feb1be6ae5538da033", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, wallet.Active, lc.State())
	assert.Equal(t, km.Address, cfg.Address)
	assert.Empty(t, km.Mnemonic)

	// No recovery record exists for an imported key.
	_, err = lc.DecryptRecord("hunter2")
	assert.ErrorIs(t, err, walleterr.ErrNotFound)

	// But unlock and export still work.
	exported, err := lc.Export("hunter2")
	require.NoError(t, err)
	assert.Equal(t, "0x4c0883a69102937d6231471b5dbb6204fe512961708279feb1be6ae5538da033", exported)
}

func TestLifecycle_ImportInvalidKey(t *testing.T) {
	lc, _, _ := newLifecycle(t)
	_, err := lc.Import("0xdeadbeef", "hunter2")
	assert.ErrorIs(t, err, walleterr.ErrInvalidKey)
	assert.Equal(t, wallet.Uninitialized, lc.State())
}

func TestLifecycle_EraseWithoutWallet(t *testing.T) {
	lc, _, _ := newLifecycle(t)
	err := lc.Erase()
	assert.ErrorIs(t, err, walleterr.ErrWalletNotFound)
}
