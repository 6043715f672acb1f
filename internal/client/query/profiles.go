package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/notify"
	"github.com/dmitrijs2005/profilekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
	"golang.org/x/sync/errgroup"
)

// PacingFlags is the part of the profile store the onboarding write drives.
type PacingFlags interface {
	BeginAddingProfileInfo() uint64
	EndAddingProfileInfo(token uint64)
}

// EventKind says what happened to a cached profile.
type EventKind int

const (
	// EventLoaded follows a fetch that hit the remote store.
	EventLoaded EventKind = iota + 1
	// EventCreated follows a successful CreateProfile.
	EventCreated
	// EventCommitted follows a successful UpdateProfile.
	EventCommitted
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventCreated:
		return "created"
	case EventCommitted:
		return "committed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event reports a change of the cached profile of one identity.
type Event struct {
	Kind       EventKind
	IdentityID string
	// Profile is the cached profile after the change; nil for a confirmed absence.
	Profile *models.UserProfile
	// Patch is the committed update for EventCommitted.
	Patch models.ProfilePatch
}

type Config struct {
	Options
	Clock  timex.Clock
	Logger logging.Logger
	// Persistence enables the on-disk query cache; nil keeps it in memory.
	Persistence kv.Repository
}

// ProfileQueries reads and writes user profiles split across the public
// and private documents, through a cache keyed by identity id.
type ProfileQueries struct {
	store  docstore.Store
	flags  PacingFlags
	cache  *Cache[models.UserProfile]
	clock  timex.Clock
	opts   Options
	log    logging.Logger
	events notify.Observers[Event]
}

func NewProfileQueries(store docstore.Store, flags PacingFlags, cfg Config) *ProfileQueries {
	if cfg.Clock == nil {
		cfg.Clock = timex.RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	opts := cfg.Options.withDefaults()
	log := cfg.Logger.With("module", "query")

	cache := NewCache[models.UserProfile](cfg.Clock, opts.StaleTime, opts.CacheTime, log)
	if cfg.Persistence != nil {
		cache.Persist(cfg.Persistence, common.KeyQueryCache)
	}

	return &ProfileQueries{
		store: store,
		flags: flags,
		cache: cache,
		clock: cfg.Clock,
		opts:  opts,
		log:   log,
	}
}

// Restore rehydrates the persisted cache.
func (q *ProfileQueries) Restore(ctx context.Context) error {
	n, err := q.cache.Restore(ctx)
	if err != nil {
		return err
	}
	q.log.Debug(ctx, "query cache restored", "entries", n)
	return nil
}

// StartGC starts the periodic eviction of unused profiles.
func (q *ProfileQueries) StartGC(ctx context.Context) (stop func()) {
	return q.cache.StartGC(ctx, q.opts.GCInterval)
}

// Subscribe registers fn for cache change events.
func (q *ProfileQueries) Subscribe(fn func(Event)) (unsubscribe func()) {
	return q.events.Subscribe(fn)
}

// Cached returns the last known remote profile of id without fetching.
func (q *ProfileQueries) Cached(id string) (models.UserProfile, bool) {
	p, ok := q.cache.Peek(id)
	if !ok {
		return models.UserProfile{}, false
	}
	return p.Clone(), true
}

// Invalidate forces the next FetchProfile of id to hit the remote store.
func (q *ProfileQueries) Invalidate(ctx context.Context, id string) {
	q.cache.Invalidate(ctx, id)
}

// FetchProfile returns the profile of id. found is false when either
// document is missing.
func (q *ProfileQueries) FetchProfile(ctx context.Context, id string) (models.UserProfile, bool, error) {
	if id == "" {
		return models.UserProfile{}, false, common.ErrNotAuthenticated
	}
	p, found, err := q.cache.Fetch(ctx, id, func(ctx context.Context) (models.UserProfile, bool, error) {
		return q.load(ctx, id)
	})
	if err != nil {
		return models.UserProfile{}, false, err
	}
	return p.Clone(), found, nil
}

type docResult struct {
	fields   docstore.Fields
	found    bool
	attempts int
	err      error
}

func (q *ProfileQueries) read(ctx context.Context, path string) docResult {
	var r docResult
	r.attempts, r.err = do(ctx, q.opts.QueryAttempts, q.opts.RetryBaseDelay, func(ctx context.Context) error {
		var err error
		r.fields, r.found, err = q.store.Get(ctx, path)
		return err
	})
	return r
}

func (q *ProfileQueries) load(ctx context.Context, id string) (models.UserProfile, bool, error) {
	pubPath, privPath := docstore.PublicPath(id), docstore.PrivatePath(id)

	var pub, priv docResult
	var g errgroup.Group
	g.Go(func() error { pub = q.read(ctx, pubPath); return nil })
	g.Go(func() error { priv = q.read(ctx, privPath); return nil })
	_ = g.Wait()

	switch {
	case pub.err == nil && !pub.found && priv.err != nil:
		return models.UserProfile{}, false, &common.AmbiguousAbsenceError{
			IdentityID: id, MissingPath: pubPath, Err: readError(privPath, priv),
		}
	case priv.err == nil && !priv.found && pub.err != nil:
		return models.UserProfile{}, false, &common.AmbiguousAbsenceError{
			IdentityID: id, MissingPath: privPath, Err: readError(pubPath, pub),
		}
	case pub.err != nil:
		return models.UserProfile{}, false, readError(pubPath, pub)
	case priv.err != nil:
		return models.UserProfile{}, false, readError(privPath, priv)
	}

	if !pub.found || !priv.found {
		q.log.Debug(ctx, "profile absent", "identity", id, "public", pub.found, "private", priv.found)
		q.events.Notify(Event{Kind: EventLoaded, IdentityID: id})
		return models.UserProfile{}, false, nil
	}

	now := q.clock.Now()
	pubDoc, err := models.DecodePublic(pub.fields, now)
	if err != nil {
		return models.UserProfile{}, false, &common.ReadError{Path: pubPath, Attempts: pub.attempts, Err: err}
	}
	privDoc, err := models.DecodePrivate(priv.fields, now)
	if err != nil {
		return models.UserProfile{}, false, &common.ReadError{Path: privPath, Attempts: priv.attempts, Err: err}
	}

	p := models.Combine(pubDoc, privDoc)
	q.log.Debug(ctx, "profile fetched", "identity", id, "onboarded", p.HasCompletedOnboarding)
	out := p.Clone()
	q.events.Notify(Event{Kind: EventLoaded, IdentityID: id, Profile: &out})
	return p, true, nil
}

func readError(path string, r docResult) error {
	var re *common.ReadError
	if errors.As(r.err, &re) {
		return r.err
	}
	return &common.ReadError{Path: path, Attempts: r.attempts, Err: r.err}
}

func (q *ProfileQueries) write(ctx context.Context, path string, fields docstore.Fields, merge bool) error {
	attempts, err := do(ctx, q.opts.MutationAttempts, q.opts.RetryBaseDelay, func(ctx context.Context) error {
		return q.store.Set(ctx, path, fields, docstore.SetOptions{Merge: merge})
	})
	if err != nil {
		return &common.WriteError{Path: path, Attempts: attempts, Err: err}
	}
	return nil
}

// CreateProfile writes the default profile for identity, with overrides
// applied, to both documents and caches it. It does not check whether a
// profile already exists.
func (q *ProfileQueries) CreateProfile(ctx context.Context, identity models.Identity, overrides *models.ProfilePatch) (models.UserProfile, error) {
	if identity.ID == "" {
		return models.UserProfile{}, common.ErrNotAuthenticated
	}

	p := models.NewProfile(identity, q.clock.Now())
	if overrides != nil {
		p = overrides.Apply(p)
	}
	pub, priv := models.SplitProfile(p)

	if err := q.write(ctx, docstore.PublicPath(identity.ID), pub.Fields(), false); err != nil {
		return models.UserProfile{}, err
	}
	if err := q.write(ctx, docstore.PrivatePath(identity.ID), priv.Fields(), false); err != nil {
		return models.UserProfile{}, err
	}

	q.cache.Set(ctx, identity.ID, p)
	q.log.Info(ctx, "profile created", "identity", identity.ID)

	out := p.Clone()
	q.events.Notify(Event{Kind: EventCreated, IdentityID: identity.ID, Profile: &out})
	return p.Clone(), nil
}

// UpdateProfile writes the present fields of patch, display name and bio to
// the public document and the rest to the private one, stamping updatedAt.
// The cache is only touched after every write succeeded.
func (q *ProfileQueries) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.UserProfile, error) {
	if id == "" {
		return models.UserProfile{}, common.ErrNotAuthenticated
	}

	base, ok := q.cache.Peek(id)
	if !ok {
		var found bool
		var err error
		base, found, err = q.FetchProfile(ctx, id)
		if err != nil {
			return models.UserProfile{}, err
		}
		if !found {
			return models.UserProfile{}, common.ErrNoProfile
		}
	}
	if f := patch.HasCompletedOnboarding; f != nil && !*f {
		// Onboarding never reverts.
		patch.HasCompletedOnboarding = nil
	}
	if patch.IsEmpty() {
		return base.Clone(), nil
	}

	now := q.clock.Now().UTC()
	if now.Before(base.UpdatedAt) {
		now = base.UpdatedAt
	}

	pub, priv := models.SplitPatch(patch, now)
	if pub != nil {
		if err := q.write(ctx, docstore.PublicPath(id), pub, true); err != nil {
			q.log.Warn(ctx, "profile update failed", "identity", id, "error", err)
			return models.UserProfile{}, err
		}
	}
	if priv != nil {
		if err := q.write(ctx, docstore.PrivatePath(id), priv, true); err != nil {
			q.log.Warn(ctx, "profile update failed", "identity", id, "error", err)
			return models.UserProfile{}, err
		}
	}

	merged := q.cache.Update(ctx, id, func(old models.UserProfile, ok bool) models.UserProfile {
		if !ok {
			old = base
		}
		out := patch.Apply(old)
		if now.After(out.UpdatedAt) {
			out.UpdatedAt = now
		}
		return out
	})
	q.log.Debug(ctx, "profile updated", "identity", id, "fields", patch.Fields())

	out := merged.Clone()
	q.events.Notify(Event{Kind: EventCommitted, IdentityID: id, Profile: &out, Patch: patch})
	return merged.Clone(), nil
}

// CompleteOnboarding saves the onboarding answers and marks onboarding as
// complete. addingProfileInfo is raised before the write and lowered
// PacingDuration after it resolves, whatever the outcome.
func (q *ProfileQueries) CompleteOnboarding(ctx context.Context, id string, data models.OnboardingData) (models.UserProfile, error) {
	patch, err := data.Patch()
	if err != nil {
		return models.UserProfile{}, err
	}

	token := q.flags.BeginAddingProfileInfo()
	p, err := q.UpdateProfile(ctx, id, patch)
	q.clock.AfterFunc(q.opts.PacingDuration, func() {
		q.flags.EndAddingProfileInfo(token)
	})
	if err != nil {
		q.log.Error(ctx, "onboarding completion failed", "identity", id, "error", err)
		return models.UserProfile{}, err
	}
	q.log.Info(ctx, "onboarding completed", "identity", id)
	return p, nil
}
