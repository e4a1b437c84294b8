// Package store persists the wallet's on-disk artifacts: the
// password-encrypted keystore, the cipher-encrypted wallet record, and
// nothing else. All writes go through atomic temp-then-rename.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/ethervault/ethervault/internal/cipher"
	"github.com/ethervault/ethervault/internal/fileutil"
	"github.com/ethervault/ethervault/internal/keys"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const (
	keystoreFile = "keystore.json"
	recordFile   = "wallet.json"

	filePerm = 0o600
	dirPerm  = 0o700
)

// Record is the full wallet record kept alongside the keystore. Unlike
// the keystore it preserves the recovery material, so it exists only
// for wallets created or restored from a mnemonic.
type Record struct {
	Address        string  `json:"address"`
	PrivateKey     string  `json:"private_key"`
	MnemonicSecret *string `json:"mnemonic_secret"`
	Passphrase     *string `json:"passphrase"`
	DerivationPath *string `json:"derivation_path"`
}

// Store reads and writes wallet artifacts under a single home directory.
type Store struct {
	home string
}

// New creates a Store rooted at home. The directory is created lazily
// on first write.
func New(home string) *Store {
	return &Store{home: home}
}

// Home returns the data directory the store operates on.
func (s *Store) Home() string {
	return s.home
}

// KeystorePath returns the path of the encrypted keystore file.
func (s *Store) KeystorePath() string {
	return filepath.Join(s.home, keystoreFile)
}

// RecordPath returns the path of the encrypted wallet record file.
func (s *Store) RecordPath() string {
	return filepath.Join(s.home, recordFile)
}

// HasKeystore reports whether a keystore exists on disk. This is the
// single source of truth for the wallet's initialized state.
func (s *Store) HasKeystore() bool {
	info, err := os.Stat(s.KeystorePath())
	return err == nil && !info.IsDir()
}

// HasRecord reports whether a wallet record exists on disk.
func (s *Store) HasRecord() bool {
	info, err := os.Stat(s.RecordPath())
	return err == nil && !info.IsDir()
}

// WriteKeystore encrypts the signing key under password using the Web3
// Secret Storage format and writes it atomically.
func (s *Store) WriteKeystore(km *keys.KeyMaterial, password string) error {
	raw := km.PrivateKeyBytes()
	defer cipher.ZeroBytes(raw)

	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return walleterr.Wrap(err, "loading signing key")
	}

	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}

	blob, err := keystore.EncryptKey(key, password, keystore.StandardScryptN, keystore.StandardScryptP)
	if err != nil {
		return walleterr.Wrap(err, "encrypting keystore")
	}

	if err := s.ensureHome(); err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(s.KeystorePath(), blob, filePerm); err != nil {
		return ioError(err, "writing keystore")
	}
	return nil
}

// ReadKeystore decrypts the keystore with password and returns the key
// material. The result carries no recovery material; callers that need
// the mnemonic must read the wallet record instead.
func (s *Store) ReadKeystore(password string) (*keys.KeyMaterial, error) {
	blob, err := os.ReadFile(s.KeystorePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, walleterr.WithDetails(walleterr.ErrNotFound, map[string]string{
				"artifact": "keystore",
			})
		}
		return nil, ioError(err, "reading keystore")
	}

	key, err := keystore.DecryptKey(blob, password)
	if err != nil {
		// DecryptKey does not distinguish a wrong password from a
		// damaged file, so every failure reads as authentication.
		return nil, walleterr.ErrAuthentication
	}

	raw := crypto.FromECDSA(key.PrivateKey)
	defer cipher.ZeroBytes(raw)
	return keys.Import(raw)
}

// WriteRecord encrypts the wallet record under password and writes it
// atomically.
func (s *Store) WriteRecord(rec *Record, password string) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return walleterr.Wrap(err, "encoding wallet record")
	}
	defer cipher.ZeroBytes(payload)

	blob, err := cipher.Encrypt(password, payload)
	if err != nil {
		return walleterr.Wrap(err, "encrypting wallet record")
	}

	if err := s.ensureHome(); err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(s.RecordPath(), []byte(blob), filePerm); err != nil {
		return ioError(err, "writing wallet record")
	}
	return nil
}

// ReadRecord decrypts and parses the wallet record. A wrong password
// surfaces as an authentication failure; a record that decrypts but
// does not parse surfaces as corrupt data.
func (s *Store) ReadRecord(password string) (*Record, error) {
	blob, err := os.ReadFile(s.RecordPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, walleterr.WithDetails(walleterr.ErrNotFound, map[string]string{
				"artifact": "wallet record",
			})
		}
		return nil, ioError(err, "reading wallet record")
	}

	payload, err := cipher.Decrypt(password, string(blob))
	if err != nil {
		if errors.Is(err, cipher.ErrDecryptionFailed) {
			return nil, walleterr.ErrAuthentication
		}
		return nil, err
	}
	defer cipher.ZeroBytes(payload)

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrCorruptData, map[string]string{
			"artifact": "wallet record",
		})
	}
	return &rec, nil
}

// EraseAll removes the data directory and everything under it. It
// succeeds when nothing exists and reports whether anything was
// actually erased.
func (s *Store) EraseAll() (bool, error) {
	if _, err := os.Stat(s.home); os.IsNotExist(err) {
		return false, nil
	}

	if err := os.RemoveAll(s.home); err != nil {
		return false, ioError(err, "erasing wallet data")
	}
	return true, nil
}

func (s *Store) ensureHome() error {
	if err := os.MkdirAll(s.home, dirPerm); err != nil {
		return ioError(err, "creating data directory "+s.home)
	}
	return nil
}

// ioError maps a filesystem failure into the IO_ERROR taxonomy entry
// while preserving the cause chain.
func ioError(cause error, msg string) error {
	return &walleterr.WalletError{
		Code:     walleterr.ErrIO.Code,
		Message:  fmt.Sprintf("%s: %v", msg, cause),
		Cause:    cause,
		ExitCode: walleterr.ErrIO.ExitCode,
	}
}
