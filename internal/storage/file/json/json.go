package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/drakos74/wndchrm/internal/storage"
	"github.com/rs/zerolog/log"
)

// BlobStorage stores every key as a json file under <path>/<table>/<shard>.
type BlobStorage struct {
	table string
	shard string
	path  string
	debug bool
}

// NewJsonBlob creates a json blob store under the default storage directory.
// table has the same schema, shard is a logical split.
func NewJsonBlob(table, shard string, debug bool) *BlobStorage {
	return &BlobStorage{
		table: table,
		shard: shard,
		path:  storage.DefaultDir,
		debug: debug,
	}
}

// WithPath overrides the root directory of the store.
func (s *BlobStorage) WithPath(path string) *BlobStorage {
	s.path = path
	return s
}

func (s BlobStorage) Store(k storage.Key, value interface{}) error {
	p := filepath.Join(s.path, s.table, s.shard)
	err := Save(p, k.Path(), value)
	if err == nil && s.debug {
		log.Info().Str("path", p).Str("file", k.Path()).Msg("stored json file")
	}
	return err
}

func (s BlobStorage) Load(k storage.Key, value interface{}) error {
	return Load(filepath.Join(s.path, s.table, s.shard), k.Path(), value)
}

// Save saves the given json struct into the given path with the provided filename.
func Save(filePath string, fileName string, value interface{}) error {
	// check if filepath exists
	info, err := os.Stat(filePath)
	if err != nil {
		err := os.MkdirAll(filePath, os.ModePerm)
		if err != nil {
			return fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("path given is not a directory: %s", filePath)
	}

	// output file
	p := filepath.Join(filePath, fmt.Sprintf("%s.json", fileName))
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("could not save key '%+v': %w", p, err)
	}

	// write the file
	if err := os.WriteFile(p, b, 0644); err != nil {
		return fmt.Errorf("could not write bytes to file '%s': %w", p, err)
	}

	return nil
}

// Load loads the payload from the given filePath and fileName.
func Load(filePath string, fileName string, value interface{}) error {

	p := filepath.Join(filePath, fmt.Sprintf("%s.json", fileName))

	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("could not read file '%s' %s: %w", p, err.Error(), storage.NotFoundErr)
	}

	err = json.Unmarshal(data, value)
	if err != nil {
		return fmt.Errorf("could not unmarshal key '%s': %w", err, storage.CouldNotLoadErr)
	}

	return nil
}
