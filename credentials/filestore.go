package credentials

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileStore persists one account's cookie set under a file whose name is
// derived deterministically from the account identity and a fixed client
// signature, so repeated runs for the same account reuse the same session.
type FileStore struct {
	path string
}

// NewFileStore builds a store rooted at dir. The file name is the hex SHA-1
// of identity, secret and clientSignature joined by NUL bytes, matching the
// naming scheme the service's other clients use for their cookie jars.
func NewFileStore(dir, identity, secret, clientSignature string) *FileStore {
	h := sha1.New()
	h.Write([]byte(identity))
	h.Write([]byte{0})
	h.Write([]byte(secret))
	h.Write([]byte{0})
	h.Write([]byte(clientSignature))
	return &FileStore{path: filepath.Join(dir, hex.EncodeToString(h.Sum(nil)))}
}

// Path returns the location of the credential blob.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted cookie set. A missing file yields an empty set.
func (s *FileStore) Load() (Set, error) {
	contents, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Set{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.Load] reading cookie file")
	}
	return ParseSet(bytes.NewReader(contents))
}

// Save replaces the persisted cookie set. The file is written with owner-only
// permissions since it holds live session credentials.
func (s *FileStore) Save(set Set) error {
	var buf bytes.Buffer
	if err := WriteSet(&buf, set); err != nil {
		return errors.Wrap(err, "[FileStore.Save] serializing cookies")
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.Save] writing cookie file")
	}
	return nil
}

// Delete removes the persisted cookie set.
func (s *FileStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Delete] removing cookie file")
	}
	return nil
}
