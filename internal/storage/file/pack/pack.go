package pack

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/drakos74/wndchrm/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
)

// BlobStorage stores every key as a msgpack file under <path>/<table>.
// It is meant for large binary snapshots where the text format is too slow to parse.
type BlobStorage struct {
	table string
	path  string
}

// NewPackBlob creates a msgpack blob store under the default storage directory.
func NewPackBlob(table string) *BlobStorage {
	return &BlobStorage{
		table: table,
		path:  storage.DefaultDir,
	}
}

// WithPath overrides the root directory of the store.
func (s *BlobStorage) WithPath(path string) *BlobStorage {
	s.path = path
	return s
}

func (s BlobStorage) file(k storage.Key) string {
	return filepath.Join(s.path, s.table, fmt.Sprintf("%s.msgpack", k.Path()))
}

// Store encodes the value into a temporary file and renames it into place.
func (s BlobStorage) Store(k storage.Key, value interface{}) error {
	dir := filepath.Join(s.path, s.table)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not make dir: %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "snapshot-*")
	if err != nil {
		return fmt.Errorf("could not create temp file in '%s': %w", dir, err)
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(value); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not encode key '%+v': %w", k, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), s.file(k))
}

// Load decodes the value stored under the key.
func (s BlobStorage) Load(k storage.Key, value interface{}) error {
	p := s.file(k)
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("could not open file '%s' %s: %w", p, err.Error(), storage.NotFoundErr)
	}
	defer f.Close()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("could not decode '%s' %s: %w", p, err.Error(), storage.CouldNotLoadErr)
	}
	return nil
}
