package stores

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/profilekeeper/internal/client/notify"
	"github.com/dmitrijs2005/profilekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// Scheme is a resolved colour scheme.
type Scheme string

const (
	SchemeLight Scheme = "light"
	SchemeDark  Scheme = "dark"
)

func ParseThemeMode(s string) (ThemeMode, error) {
	switch m := ThemeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ThemeLight, ThemeDark, ThemeSystem:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown theme %q", common.ErrorValidation, s)
}

// ThemeStore holds the theme preference and persists it across restarts.
type ThemeStore struct {
	repo kv.Repository
	log  logging.Logger
	// system reports the platform scheme; nil or "" means unknown.
	system func() Scheme

	mu   sync.Mutex
	mode ThemeMode
	obs  notify.Observers[ThemeMode]
}

// NewThemeStore loads the saved preference, defaulting to ThemeSystem.
func NewThemeStore(ctx context.Context, repo kv.Repository, system func() Scheme, log logging.Logger) (*ThemeStore, error) {
	if log == nil {
		log = logging.NewNop()
	}
	s := &ThemeStore{repo: repo, system: system, log: log.With("module", "theme"), mode: ThemeSystem}

	raw, err := repo.Get(ctx, common.KeyThemePreference)
	if err != nil {
		return nil, fmt.Errorf("load theme preference: %w", err)
	}
	if raw != nil {
		if m, err := ParseThemeMode(strings.Trim(string(raw), `"`)); err == nil {
			s.mode = m
		} else {
			s.log.Warn(ctx, "ignoring saved theme preference", "value", string(raw))
		}
	}
	return s, nil
}

func (s *ThemeStore) Mode() ThemeMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Scheme resolves the mode. System mode follows the platform and falls
// back to dark when the platform does not say.
func (s *ThemeStore) Scheme() Scheme {
	switch s.Mode() {
	case ThemeLight:
		return SchemeLight
	case ThemeDark:
		return SchemeDark
	}
	if s.system != nil {
		if sc := s.system(); sc == SchemeLight || sc == SchemeDark {
			return sc
		}
	}
	return SchemeDark
}

// SetMode stores and persists mode.
func (s *ThemeStore) SetMode(ctx context.Context, mode ThemeMode) error {
	if _, err := ParseThemeMode(string(mode)); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, common.KeyThemePreference, []byte(mode)); err != nil {
		return fmt.Errorf("save theme preference: %w", err)
	}

	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	s.log.Debug(ctx, "theme changed", "mode", mode)
	s.obs.Notify(mode)
	return nil
}

// Toggle switches between light and dark, resolving system mode first.
func (s *ThemeStore) Toggle(ctx context.Context) error {
	if s.Scheme() == SchemeDark {
		return s.SetMode(ctx, ThemeLight)
	}
	return s.SetMode(ctx, ThemeDark)
}

func (s *ThemeStore) Subscribe(fn func(ThemeMode)) (unsubscribe func()) {
	return s.obs.Subscribe(fn)
}
