// Package keystore provides secure storage for API keys.
package keystore

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Keystore defines the interface for secure key storage.
type Keystore interface {
	// Set stores a key-value pair.
	Set(name, value string) error
	// Get retrieves a value by name. Returns error if not found.
	Get(name string) (string, error)
	// Delete removes a key by name.
	Delete(name string) error
	// List returns all stored key names.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// MasterKeySource supplies the master key material that file encryption
// keys are derived from.
type MasterKeySource interface {
	GetMasterKey() ([]byte, error)
}

// EnvKeySource reads master key material from an environment variable.
type EnvKeySource struct {
	Var string
}

func (s EnvKeySource) GetMasterKey() ([]byte, error) {
	value := os.Getenv(s.Var)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s is not set", s.Var)
	}
	return []byte(value), nil
}

// DefaultKeystorePath returns the default keystore file path.
// - macOS/Linux: ~/.lumen/keys.enc
// - Windows: %USERPROFILE%\.lumen\keys.enc
func DefaultKeystorePath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "keys.enc"
	}

	return filepath.Join(homeDir, ".lumen", "keys.enc")
}

// NewKeystore creates a new keystore using file-based encrypted storage.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath())
}
