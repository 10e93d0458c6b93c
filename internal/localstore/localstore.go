// Package localstore is the chat client's on-disk state: the device id
// that makes an anonymous client recognizable across runs, and a fallback
// copy of the current order for when the server can't be reached.
package localstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	deviceFile = "device_id"
	draftFile  = "draft_order.json"
)

type Store struct {
	dir string
}

// Open roots the store under the user config dir, e.g.
// ~/.config/<app>/ on Linux.
func Open(app string) (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return OpenDir(filepath.Join(base, app))
}

func OpenDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// DeviceID returns the stable device identifier, generating and persisting
// it exactly once on first call. Every later call, across process
// restarts, returns the same value.
func (s *Store) DeviceID() (string, error) {
	p := filepath.Join(s.dir, deviceFile)
	b, err := os.ReadFile(p)
	if err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	id := uuid.NewString()
	if err := os.WriteFile(p, []byte(id+"\n"), 0o600); err != nil {
		return "", err
	}
	return id, nil
}

// SaveDraft mirrors the latest known current-order snapshot.
func (s *Store) SaveDraft(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, draftFile), b, 0o600)
}

// LoadDraft reads the mirrored snapshot into v; the bool reports whether
// one existed.
func (s *Store) LoadDraft(v any) (bool, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, draftFile))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, err
	}
	return true, nil
}

// ClearDraft removes the snapshot; clearing an absent draft is fine.
func (s *Store) ClearDraft() error {
	err := os.Remove(filepath.Join(s.dir, draftFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
