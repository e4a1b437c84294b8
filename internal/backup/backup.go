// Package backup creates and restores portable wallet backups. A
// backup bundles the on-disk artifacts (keystore and, when present,
// the wallet record) into a single age-encrypted file with a plaintext
// manifest for verification without the password.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethervault/ethervault/internal/fileutil"
	"github.com/ethervault/ethervault/internal/store"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const (
	// Extension is the backup file extension.
	Extension = ".evbak"

	manifestVersion = 1

	dirPerm  = 0o700
	filePerm = 0o600
)

// Manifest describes a backup without revealing its contents.
type Manifest struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Address   string    `json:"address"`
	HasRecord bool      `json:"has_record"`

	// Checksum is the hex SHA-256 of the encrypted payload.
	Checksum string `json:"checksum"`
}

// Backup is the on-disk backup file layout.
type Backup struct {
	Manifest Manifest `json:"manifest"`
	Data     []byte   `json:"data"`
}

// payload is what gets encrypted: the raw artifact bytes.
type payload struct {
	Keystore []byte `json:"keystore"`
	Record   []byte `json:"record,omitempty"`
}

// Service performs backup operations against a wallet store.
type Service struct {
	dir   string
	store *store.Store
}

// NewService creates a Service writing backups under dir.
func NewService(dir string, st *store.Store) *Service {
	return &Service{dir: dir, store: st}
}

// Create backs up the current wallet, encrypting the payload with
// password. Returns the path of the written backup file.
func (s *Service) Create(address, password string) (string, error) {
	if !s.store.HasKeystore() {
		return "", walleterr.ErrWalletNotFound
	}

	keystoreBytes, err := os.ReadFile(s.store.KeystorePath())
	if err != nil {
		return "", walleterr.Wrap(err, "reading keystore")
	}

	p := payload{Keystore: keystoreBytes}
	if s.store.HasRecord() {
		recordBytes, err := os.ReadFile(s.store.RecordPath())
		if err != nil {
			return "", walleterr.Wrap(err, "reading wallet record")
		}
		p.Record = recordBytes
	}

	plain, err := json.Marshal(p)
	if err != nil {
		return "", walleterr.Wrap(err, "encoding backup payload")
	}

	encrypted, err := encrypt(plain, password)
	if err != nil {
		return "", walleterr.Wrap(err, "encrypting backup")
	}

	sum := sha256.Sum256(encrypted)
	b := &Backup{
		Manifest: Manifest{
			Version:   manifestVersion,
			CreatedAt: time.Now().UTC(),
			Address:   address,
			HasRecord: p.Record != nil,
			Checksum:  hex.EncodeToString(sum[:]),
		},
		Data: encrypted,
	}

	out, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", walleterr.Wrap(err, "encoding backup file")
	}

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return "", walleterr.Wrap(err, "creating backup directory")
	}

	name := fmt.Sprintf("ethervault-%s%s", b.Manifest.CreatedAt.Format("20060102-150405"), Extension)
	path := filepath.Join(s.dir, name)
	if err := fileutil.WriteAtomic(path, out, filePerm); err != nil {
		return "", walleterr.Wrap(err, "writing backup")
	}
	return path, nil
}

// Verify checks a backup's structure and payload checksum without
// decrypting it.
func (s *Service) Verify(path string) (*Manifest, error) {
	b, err := s.read(path)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(b.Data)
	if hex.EncodeToString(sum[:]) != b.Manifest.Checksum {
		return nil, walleterr.WithDetails(walleterr.ErrBackupCorrupted, map[string]string{
			"file":   path,
			"reason": "payload checksum mismatch",
		})
	}
	return &b.Manifest, nil
}

// Restore decrypts a backup and writes its artifacts back into the
// store. It refuses to overwrite an existing wallet.
func (s *Service) Restore(path, password string) error {
	if s.store.HasKeystore() {
		return walleterr.WithSuggestion(walleterr.ErrWalletExists,
			"erase the existing wallet before restoring a backup")
	}

	if _, err := s.Verify(path); err != nil {
		return err
	}
	b, err := s.read(path)
	if err != nil {
		return err
	}

	plain, err := decrypt(b.Data, password)
	if err != nil {
		return walleterr.ErrAuthentication
	}

	var p payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return walleterr.WithDetails(walleterr.ErrBackupCorrupted, map[string]string{
			"file":   path,
			"reason": "payload does not parse",
		})
	}

	if err := os.MkdirAll(s.store.Home(), dirPerm); err != nil {
		return walleterr.Wrap(err, "creating data directory")
	}
	if err := fileutil.WriteAtomic(s.store.KeystorePath(), p.Keystore, filePerm); err != nil {
		return walleterr.Wrap(err, "restoring keystore")
	}
	if p.Record != nil {
		if err := fileutil.WriteAtomic(s.store.RecordPath(), p.Record, filePerm); err != nil {
			return walleterr.Wrap(err, "restoring wallet record")
		}
	}
	return nil
}

// List returns the backup files under the backup directory, newest
// name last.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, walleterr.Wrap(err, "listing backups")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), Extension) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Service) read(path string) (*Backup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, walleterr.WithDetails(walleterr.ErrBackupNotFound, map[string]string{
				"file": path,
			})
		}
		return nil, walleterr.Wrap(err, "reading backup")
	}

	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrBackupCorrupted, map[string]string{
			"file":   path,
			"reason": "file does not parse",
		})
	}
	if b.Manifest.Version != manifestVersion || len(b.Data) == 0 {
		return nil, walleterr.WithDetails(walleterr.ErrBackupCorrupted, map[string]string{
			"file":   path,
			"reason": "unsupported or empty backup",
		})
	}
	return &b, nil
}
