package storage

import (
	"errors"
	"fmt"
)

var (
	// DefaultDir is the root directory of the file based stores.
	DefaultDir = "file-storage"
)

const (
	SetsDir    = "sets"
	ReportsDir = "reports"
)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
)

// Key is the storage key of a persisted object.
type Key struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Path returns the file name for the key.
func (k Key) Path() string {
	if k.Label == "" {
		return k.Name
	}
	return fmt.Sprintf("%s_%s", k.Name, k.Label)
}

// Persistence stores and loads values by key.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
