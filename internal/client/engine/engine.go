// Package engine wires the client stores, the query layer, the coordinator
// and the editor into one running profile sync engine.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/coordinator"
	"github.com/dmitrijs2005/profilekeeper/internal/client/editor"
	"github.com/dmitrijs2005/profilekeeper/internal/client/identity"
	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/query"
	"github.com/dmitrijs2005/profilekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/profilekeeper/internal/client/screen"
	"github.com/dmitrijs2005/profilekeeper/internal/client/services"
	"github.com/dmitrijs2005/profilekeeper/internal/client/stores"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
)

// Deps are the collaborators and settings of an Engine. Provider, Store
// and Persistence are required.
type Deps struct {
	Provider    identity.Provider
	Store       docstore.Store
	Persistence kv.Repository

	Clock        timex.Clock
	Logger       logging.Logger
	Query        query.Options
	Debounce     time.Duration
	SystemScheme func() stores.Scheme
}

// Engine owns every client component. Create it with New, then Start it.
type Engine struct {
	Auth     *stores.AuthStore
	Profiles *stores.ProfileStore
	Theme    *stores.ThemeStore
	Queries  *query.ProfileQueries
	Screens  *screen.Watcher
	Editor   *editor.Editor
	Access   services.AccessService

	coord *coordinator.Coordinator
	log   logging.Logger

	mu      sync.Mutex
	started bool
	stopGC  func()
}

func New(ctx context.Context, d Deps) (*Engine, error) {
	if d.Provider == nil || d.Store == nil || d.Persistence == nil {
		return nil, errors.New("engine: provider, store and persistence are required")
	}
	if d.Clock == nil {
		d.Clock = timex.RealClock()
	}
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	opts := d.Query
	if opts.PacingDuration <= 0 {
		opts.PacingDuration = query.DefaultOptions().PacingDuration
	}

	profiles := stores.NewProfileStore()
	queries := query.NewProfileQueries(d.Store, profiles, query.Config{
		Options:     opts,
		Clock:       d.Clock,
		Logger:      d.Logger,
		Persistence: d.Persistence,
	})
	if err := queries.Restore(ctx); err != nil {
		d.Logger.Warn(ctx, "query cache not restored", "error", err)
	}

	theme, err := stores.NewThemeStore(ctx, d.Persistence, d.SystemScheme, d.Logger)
	if err != nil {
		return nil, err
	}

	auth := stores.NewAuthStore(d.Provider, d.Logger)

	return &Engine{
		Auth:     auth,
		Profiles: profiles,
		Theme:    theme,
		Queries:  queries,
		Screens:  screen.NewWatcher(auth, profiles, d.Logger),
		Editor: editor.New(auth, profiles, queries, editor.Config{
			Debounce: d.Debounce,
			Clock:    d.Clock,
			Logger:   d.Logger,
		}),
		Access: services.NewAccessService(auth, profiles, d.Clock, opts.PacingDuration, d.Logger),
		coord:  coordinator.New(auth, profiles, queries, d.Logger),
		log:    d.Logger.With("module", "engine"),
	}, nil
}

// Start connects the coordinator to the auth store and starts listening to
// the identity provider. Calls after the first are no-ops.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true

	e.coord.Start()
	e.Auth.Start()
	e.stopGC = e.Queries.StartGC(ctx)
	e.log.Debug(ctx, "engine started")
}

// Wait blocks until profile loads started so far have finished.
func (e *Engine) Wait() {
	e.coord.Wait()
}

// Screen returns the screen to show.
func (e *Engine) Screen() screen.Screen {
	return e.Screens.Current()
}

// CreationState reports whether the profile of id is known to exist remotely.
func (e *Engine) CreationState(id string) coordinator.CreationState {
	return e.coord.CreationState(id)
}

// CompleteOnboarding saves the onboarding answers of the signed-in user.
func (e *Engine) CompleteOnboarding(ctx context.Context, data models.OnboardingData) (models.UserProfile, error) {
	id := e.Auth.Snapshot().IdentityID()
	if id == "" {
		return models.UserProfile{}, common.ErrNotAuthenticated
	}
	return e.Queries.CompleteOnboarding(ctx, id, data)
}

// Reload drops the cached profile of the signed-in user and loads it again.
func (e *Engine) Reload(ctx context.Context) error {
	snap := e.Auth.Snapshot()
	if snap.Identity == nil {
		return common.ErrNotAuthenticated
	}
	e.Queries.Invalidate(ctx, snap.Identity.ID)
	return e.coord.HandleAuthenticated(ctx, *snap.Identity)
}

// Close stops every component. Pending editor commits are dropped.
func (e *Engine) Close() {
	e.Editor.Close()
	e.coord.Close()
	e.Screens.Close()
	e.Auth.Close()

	e.mu.Lock()
	stop := e.stopGC
	e.stopGC = nil
	e.mu.Unlock()
	if stop != nil {
		stop()
	}
}
