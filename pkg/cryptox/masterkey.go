package cryptox

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// masterKeySize is the amount of random material written to a new key file.
const masterKeySize = 32

// LoadMasterKey returns the sealing key material. envValue wins when set;
// otherwise the file at path is read, and created with fresh random material
// if it does not exist. Both empty yields nil, which NewSealer turns into an
// ephemeral key.
func LoadMasterKey(envValue, path string) ([]byte, error) {
	if envValue != "" {
		return []byte(envValue), nil
	}
	if path == "" {
		return nil, nil
	}

	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			return nil, fmt.Errorf("master key file %s is empty", path)
		}
		return data, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read master key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create master key directory: %w", err)
	}

	raw := make([]byte, masterKeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	encoded := []byte(base64.RawURLEncoding.EncodeToString(raw))

	// O_EXCL: if another process created the file first, use its key.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return LoadMasterKey("", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create master key file: %w", err)
	}
	if _, err := f.Write(encoded); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write master key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write master key file: %w", err)
	}
	return encoded, nil
}
