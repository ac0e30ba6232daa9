package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/keychain"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/keys"
	"github.com/dmitrijs2005/gophauth/internal/shared"
)

// KeyService persists keychain entries sealed under a master key. The key id
// is bound into each envelope as additional data, so a sealed value copied
// to another id does not open.
type KeyService struct {
	mu     sync.RWMutex
	repo   keys.Repository
	master []byte
}

// NewKeyService returns a KeyService sealing entries of repo under a copy of
// master. An empty master fails with common.ErrInvalidKey.
func NewKeyService(repo keys.Repository, master []byte) (*KeyService, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("%w: empty master key", common.ErrInvalidKey)
	}
	return &KeyService{repo: repo, master: bytes.Clone(master)}, nil
}

func (s *KeyService) seal(id string, key []byte) ([]byte, error) {
	return cryptox.Seal(s.master, key, []byte(id))
}

func (s *KeyService) open(master []byte, id string, sealed []byte) ([]byte, error) {
	key, err := cryptox.Open(master, sealed, []byte(id))
	if err != nil {
		return nil, fmt.Errorf("key %q: %w", id, err)
	}
	return key, nil
}

// Save stores key under id.
func (s *KeyService) Save(ctx context.Context, id string, key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sealed, err := s.seal(id, key)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, id, sealed)
}

func (s *KeyService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SaveAll replaces the stored set with the current contents of kc.
func (s *KeyService) SaveAll(ctx context.Context, kc *keychain.Keychain) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make(map[string][]byte, kc.Len())
	for _, id := range kc.IDs() {
		key, ok := kc.GetKey(id)
		if !ok {
			continue
		}
		sealed, err := s.seal(id, key)
		shared.WipeByteArray(key)
		if err != nil {
			return err
		}
		entries[id] = sealed
	}
	return s.repo.SaveAll(ctx, entries)
}

// Load adds every stored key to kc and returns how many were loaded. Nothing
// is added when any entry fails to open.
func (s *KeyService) Load(ctx context.Context, kc *keychain.Keychain) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	opened := make(map[string][]byte, len(stored))
	defer func() {
		for _, key := range opened {
			shared.WipeByteArray(key)
		}
	}()
	for id, sealed := range stored {
		key, err := s.open(s.master, id, sealed)
		if err != nil {
			return 0, err
		}
		opened[id] = key
	}

	for id, key := range opened {
		kc.AddKey(id, key)
	}
	return len(opened), nil
}

// Rotate re-seals every stored key under newMaster and switches the service
// to it. Backends without transactions (S3) can fail part-way through
// writing, leaving some entries sealed under each master; Rotate then writes
// the previously stored entries back so the store stays readable with the
// old master, which the service keeps using. If that restore fails too, the
// returned error wraps both failures and the store must be repaired by
// re-running Rotate from a key source that still opens every entry.
func (s *KeyService) Rotate(ctx context.Context, newMaster []byte) error {
	if len(newMaster) == 0 {
		return fmt.Errorf("%w: empty master key", common.ErrInvalidKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	resealed := make(map[string][]byte, len(stored))
	for id, sealed := range stored {
		key, err := s.open(s.master, id, sealed)
		if err != nil {
			return err
		}
		out, err := cryptox.Seal(newMaster, key, []byte(id))
		shared.WipeByteArray(key)
		if err != nil {
			return err
		}
		resealed[id] = out
	}

	if err := s.repo.SaveAll(ctx, resealed); err != nil {
		if rerr := s.repo.SaveAll(ctx, stored); rerr != nil {
			return fmt.Errorf("error saving re-sealed keys: %w; restoring previous keys: %w", err, rerr)
		}
		return fmt.Errorf("error saving re-sealed keys: %w", err)
	}

	shared.WipeByteArray(s.master)
	s.master = bytes.Clone(newMaster)
	return nil
}
