// Package wallet orchestrates key material and persistence into the
// wallet lifecycle: a single account moves between Uninitialized (no
// keystore on disk) and Active (keystore exists). Every operation is a
// single command invocation; nothing is retried automatically.
package wallet

import (
	"github.com/ethervault/ethervault/internal/config"
	"github.com/ethervault/ethervault/internal/keys"
	"github.com/ethervault/ethervault/internal/store"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

// State is the wallet's lifecycle state.
type State int

const (
	// Uninitialized means no keystore exists on disk.
	Uninitialized State = iota
	// Active means a keystore exists and spend operations are available.
	Active
)

// String returns the state name.
func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "uninitialized"
}

// Lifecycle drives wallet state transitions against a persistence
// store and the shared configuration.
type Lifecycle struct {
	store *store.Store
	cfg   *config.Config
	log   *config.Logger
}

// New creates a Lifecycle. All collaborators are injected; there is no
// ambient global state.
func New(st *store.Store, cfg *config.Config, logger *config.Logger) *Lifecycle {
	if logger == nil {
		logger = config.NullLogger()
	}
	return &Lifecycle{store: st, cfg: cfg, log: logger}
}

// State reports the current lifecycle state from disk.
func (l *Lifecycle) State() State {
	if l.store.HasKeystore() {
		return Active
	}
	return Uninitialized
}

// Create generates a fresh wallet and persists the keystore, the
// wallet record, and the active address. Fails when a wallet already
// exists; the caller must erase first.
//
// The keystore and record writes are independently consistent but not
// jointly atomic. A failure between the two leaves the keystore in
// place without a record, which unlock tolerates.
func (l *Lifecycle) Create(passphrase, password string) (*keys.KeyMaterial, error) {
	if err := l.requireUninitialized(); err != nil {
		return nil, err
	}

	km, err := keys.Generate(passphrase)
	if err != nil {
		return nil, err
	}

	if err := l.persist(km, password, true); err != nil {
		return nil, err
	}

	l.log.Debug("wallet created, address=%s", km.Address)
	return km, nil
}

// Restore rebuilds the wallet from an existing mnemonic. The same
// mnemonic and passphrase always restore the same address.
func (l *Lifecycle) Restore(mnemonic, passphrase, password string) (*keys.KeyMaterial, error) {
	if err := l.requireUninitialized(); err != nil {
		return nil, err
	}

	km, err := keys.Restore(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}

	if err := l.persist(km, password, true); err != nil {
		return nil, err
	}

	l.log.Debug("wallet restored, address=%s", km.Address)
	return km, nil
}

// Import initializes the wallet from a raw private key. No recovery
// material exists, so only the keystore is written.
func (l *Lifecycle) Import(privateKeyHex, password string) (*keys.KeyMaterial, error) {
	if err := l.requireUninitialized(); err != nil {
		return nil, err
	}

	km, err := keys.ImportHex(privateKeyHex)
	if err != nil {
		return nil, err
	}

	if err := l.persist(km, password, false); err != nil {
		return nil, err
	}

	l.log.Debug("wallet imported, address=%s", km.Address)
	return km, nil
}

// Unlock decrypts the keystore and returns the key material. This is
// the entry point for every signing operation.
func (l *Lifecycle) Unlock(password string) (*keys.KeyMaterial, error) {
	if l.State() != Active {
		return nil, notInitialized()
	}
	return l.store.ReadKeystore(password)
}

// Export unlocks the wallet and returns only the raw private key hex.
func (l *Lifecycle) Export(password string) (string, error) {
	km, err := l.Unlock(password)
	if err != nil {
		return "", err
	}
	return km.PrivateKeyHex(), nil
}

// DecryptRecord decrypts the full wallet record including the recovery
// mnemonic. Wallets initialized via Import have no record.
func (l *Lifecycle) DecryptRecord(password string) (*store.Record, error) {
	if l.State() != Active {
		return nil, notInitialized()
	}
	if !l.store.HasRecord() {
		return nil, walleterr.WithSuggestion(walleterr.ErrNotFound,
			"this wallet was imported from a raw key, so no recovery record exists")
	}
	return l.store.ReadRecord(password)
}

// Erase deletes all persisted wallet state and returns the wallet to
// Uninitialized. Fails when there is nothing to erase so the caller
// can distinguish "erased" from "was already empty".
func (l *Lifecycle) Erase() error {
	erased, err := l.store.EraseAll()
	if err != nil {
		return err
	}
	if !erased {
		return walleterr.ErrWalletNotFound
	}

	l.log.Debug("wallet erased")
	return nil
}

// persist writes the keystore, optionally the wallet record, and the
// active address, in that order.
func (l *Lifecycle) persist(km *keys.KeyMaterial, password string, withRecord bool) error {
	if err := l.store.WriteKeystore(km, password); err != nil {
		return err
	}

	if withRecord {
		if err := l.store.WriteRecord(recordFrom(km), password); err != nil {
			return err
		}
	}

	return l.cfg.SetAddress(km.Address)
}

func (l *Lifecycle) requireUninitialized() error {
	if l.State() == Active {
		return walleterr.WithSuggestion(walleterr.ErrWalletExists,
			"erase the existing wallet first if you really mean to replace it")
	}
	return nil
}

func notInitialized() error {
	return walleterr.WithSuggestion(walleterr.ErrWalletNotFound,
		"initialize one with create, restore, or import")
}

// recordFrom builds the persisted wallet record for key material that
// carries recovery data.
func recordFrom(km *keys.KeyMaterial) *store.Record {
	rec := &store.Record{
		Address:    km.Address,
		PrivateKey: km.PrivateKeyHex(),
	}
	if km.Mnemonic != "" {
		mnemonic := km.Mnemonic
		rec.MnemonicSecret = &mnemonic
	}
	if km.Passphrase != "" {
		passphrase := km.Passphrase
		rec.Passphrase = &passphrase
	}
	if km.Path != "" {
		path := km.Path
		rec.DerivationPath = &path
	}
	return rec
}
