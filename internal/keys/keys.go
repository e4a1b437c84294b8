// Package keys provides keypair derivation and signing for the wallet.
// A KeyMaterial is derived from a freshly generated BIP39 mnemonic, a
// restored mnemonic, or an imported raw private key, and holds the
// secp256k1 signing key in memory for the duration of one command.
package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const (
	// mnemonicEntropyBits yields a 24-word mnemonic.
	mnemonicEntropyBits = 256

	// DerivationPath is the BIP44 path for the wallet's single account:
	// purpose 44', Ethereum coin type 60', first account, external
	// chain, first address index.
	DerivationPath = "m/44'/60'/0'/0/0"

	// privateKeyLen is the required signing key length in bytes.
	privateKeyLen = 32
)

// KeyMaterial holds an unlocked keypair and, when derived from a
// mnemonic, the full recovery material. It is never persisted in
// plaintext and lives only for the invoking command.
type KeyMaterial struct {
	privateKey *ecdsa.PrivateKey

	// Address is the EIP-55 checksummed account address.
	Address string

	// Mnemonic is the BIP39 phrase, empty for imported keys.
	Mnemonic string

	// Passphrase is the BIP39 passphrase, empty for imported keys.
	Passphrase string

	// Path is the derivation path, empty for imported keys.
	Path string
}

// Generate draws a new 24-word mnemonic and derives the account keypair.
func Generate(passphrase string) (*KeyMaterial, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return nil, fmt.Errorf("generating entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("building mnemonic: %w", err)
	}

	return derive(mnemonic, passphrase)
}

// Restore derives the account keypair from a caller-supplied mnemonic.
// The same mnemonic and passphrase always yield the same keypair.
func Restore(mnemonic, passphrase string) (*KeyMaterial, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, invalidMnemonicError(mnemonic)
	}
	return derive(mnemonic, passphrase)
}

// Import wraps a raw 32-byte private key. No recovery material exists
// for imported keys.
func Import(raw []byte) (*KeyMaterial, error) {
	if len(raw) != privateKeyLen {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidKey, map[string]string{
			"reason": fmt.Sprintf("private key must be %d bytes, got %d", privateKeyLen, len(raw)),
		})
	}

	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidKey, map[string]string{
			"reason": "not a valid secp256k1 scalar",
		})
	}

	return newKeyMaterial(priv, "", "", "")
}

// ImportHex decodes a hex-encoded private key (with or without the 0x
// prefix) and imports it.
func ImportHex(s string) (*KeyMaterial, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidKey, map[string]string{
			"reason": "private key is not valid hex",
		})
	}
	return Import(raw)
}

// Sign signs the transaction with the held key using EIP-155 replay
// protection. The signature is deterministic for a given transaction.
func (k *KeyMaterial) Sign(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.NewEIP155Signer(chainID)
	signed, err := types.SignTx(tx, signer, k.privateKey)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// PrivateKeyBytes returns a copy of the raw 32-byte signing key.
// The caller should zero the copy after use.
func (k *KeyMaterial) PrivateKeyBytes() []byte {
	return crypto.FromECDSA(k.privateKey)
}

// PrivateKeyHex returns the signing key as a 0x-prefixed hex string.
func (k *KeyMaterial) PrivateKeyHex() string {
	return "0x" + hex.EncodeToString(crypto.FromECDSA(k.privateKey))
}

// derive runs the BIP39 seed and BIP44 child key derivation for the
// wallet's fixed path.
func derive(mnemonic, passphrase string) (*KeyMaterial, error) {
	seed := bip39.NewSeed(mnemonic, passphrase)

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	// m/44'/60'/0'/0/0
	steps := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
		0,
	}

	key := master
	for _, step := range steps {
		key, err = key.NewChildKey(step)
		if err != nil {
			return nil, fmt.Errorf("deriving child key: %w", err)
		}
	}

	priv, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, fmt.Errorf("parsing derived key: %w", err)
	}

	return newKeyMaterial(priv, mnemonic, passphrase, DerivationPath)
}

// newKeyMaterial constructs a KeyMaterial, enforcing the 32-byte
// signing key invariant. A violation here is a construction bug, not a
// recoverable user error.
func newKeyMaterial(priv *ecdsa.PrivateKey, mnemonic, passphrase, path string) (*KeyMaterial, error) {
	raw := crypto.FromECDSA(priv)
	if len(raw) != privateKeyLen {
		return nil, fmt.Errorf("derived signing key is %d bytes, want %d", len(raw), privateKeyLen)
	}

	return &KeyMaterial{
		privateKey: priv,
		Address:    crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		Mnemonic:   mnemonic,
		Passphrase: passphrase,
		Path:       path,
	}, nil
}
