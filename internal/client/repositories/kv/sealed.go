package kv

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/profilekeeper/internal/cryptox"
)

// SaltKey holds the key derivation salt of a SealedRepository in plain
// form. It is hidden from List and survives Clear.
const SaltKey = "sealed/salt"

const saltSize = 16

// SealedRepository encrypts every value before handing it to the wrapped
// repository. The key name is bound to the ciphertext so a value copied to
// another key does not open.
type SealedRepository struct {
	inner Repository
	key   []byte
	salt  []byte
}

// NewSealedRepository derives the sealing key from secret and the salt
// stored in inner, creating the salt on first use.
func NewSealedRepository(ctx context.Context, inner Repository, secret []byte) (*SealedRepository, error) {
	salt, err := inner.Get(ctx, SaltKey)
	if err != nil {
		return nil, fmt.Errorf("load salt: %w", err)
	}
	if salt == nil {
		if salt, err = cryptox.NewSalt(saltSize); err != nil {
			return nil, err
		}
		if err := inner.Set(ctx, SaltKey, salt); err != nil {
			return nil, fmt.Errorf("store salt: %w", err)
		}
	}
	return &SealedRepository{
		inner: inner,
		key:   cryptox.DeriveMasterKey(secret, salt),
		salt:  salt,
	}, nil
}

func (r *SealedRepository) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := r.inner.Get(ctx, key)
	if err != nil || sealed == nil {
		return nil, err
	}
	v, err := cryptox.Open(sealed, r.key, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func (r *SealedRepository) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(value, r.key, []byte(key))
	if err != nil {
		return err
	}
	return r.inner.Set(ctx, key, sealed)
}

func (r *SealedRepository) SetAll(ctx context.Context, values map[string][]byte) error {
	sealed := make(map[string][]byte, len(values))
	for k, v := range values {
		s, err := cryptox.Seal(v, r.key, []byte(k))
		if err != nil {
			return err
		}
		sealed[k] = s
	}
	return r.inner.SetAll(ctx, sealed)
}

func (r *SealedRepository) Delete(ctx context.Context, key string) error {
	return r.inner.Delete(ctx, key)
}

func (r *SealedRepository) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	sealed, err := r.inner.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(sealed))
	for k, s := range sealed {
		if k == SaltKey {
			continue
		}
		v, err := cryptox.Open(s, r.key, []byte(k))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func (r *SealedRepository) Clear(ctx context.Context) error {
	if err := r.inner.Clear(ctx); err != nil {
		return err
	}
	return r.inner.Set(ctx, SaltKey, r.salt)
}
