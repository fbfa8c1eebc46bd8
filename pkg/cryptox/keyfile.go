package cryptox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreateKeyFile returns the master key stored at path. When the file does
// not exist a new random key is generated and written with mode 0600, creating
// parent directories as needed.
//
// The file holds the key base64url-encoded on a single line.
func LoadOrCreateKeyFile(path string) ([]byte, error) {
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		key, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("cryptox: malformed key file %s: %w", path, err)
		}
		if len(key) < MinKeyMaterial {
			return nil, fmt.Errorf("cryptox: key file %s holds %d bytes, want at least %d", path, len(key), MinKeyMaterial)
		}
		return key, nil

	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("cryptox: failed to read key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("cryptox: failed to create key directory: %w", err)
	}

	encoded, err := GenerateToken(TokenSize256)
	if err != nil {
		return nil, err
	}

	if err := publishKeyFile(path, encoded+"\n"); errors.Is(err, fs.ErrExist) {
		return LoadOrCreateKeyFile(path)
	} else if err != nil {
		return nil, err
	}

	return base64.RawURLEncoding.DecodeString(encoded)
}

// publishKeyFile writes contents to a temp file next to path and links it into
// place, so path is either absent or complete. It returns fs.ErrExist when
// another process published first.
func publishKeyFile(path, contents string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cryptox: failed to create key file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cryptox: failed to create key file: %w", err)
	}
	if _, err := tmp.WriteString(contents); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cryptox: failed to write key file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cryptox: failed to write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cryptox: failed to write key file: %w", err)
	}

	// Link fails when path exists, so a racing writer never clobbers a key
	// that is already in use.
	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fs.ErrExist
		}
		return fmt.Errorf("cryptox: failed to publish key file: %w", err)
	}
	return nil
}
