// Package editor implements profile editing with optimistic local updates
// and debounced per-field commits to the remote store.
package editor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/notify"
	"github.com/dmitrijs2005/profilekeeper/internal/client/stores"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
)

// DefaultDebounce is how long a field must stay unchanged before it is
// committed.
const DefaultDebounce = time.Second

// Queries is the part of the query layer the editor uses.
type Queries interface {
	Cached(id string) (models.UserProfile, bool)
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.UserProfile, error)
}

// Notice is a failed commit shown to the user until dismissed. Field is
// empty for a failed Save.
type Notice struct {
	ID    uint64
	Field models.Field
	Err   error
	At    time.Time
}

func (n Notice) Message() string {
	if n.Field == "" {
		return fmt.Sprintf("could not save profile: %v", n.Err)
	}
	return fmt.Sprintf("could not save %s: %v", n.Field, n.Err)
}

type Config struct {
	Debounce time.Duration
	Clock    timex.Clock
	Logger   logging.Logger
}

// Editor applies profile edits to the profile store immediately and
// commits each edited field once it has been stable for the debounce
// interval. A field edited back to its remote value is not committed.
type Editor struct {
	auth     *stores.AuthStore
	profiles *stores.ProfileStore
	queries  Queries
	clock    timex.Clock
	log      logging.Logger
	sched    *Scheduler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	noticeSeq  uint64
	notices    []Notice
	noticesObs notify.Observers[[]Notice]
}

func New(auth *stores.AuthStore, profiles *stores.ProfileStore, queries Queries, cfg Config) *Editor {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = timex.RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Editor{
		auth:     auth,
		profiles: profiles,
		queries:  queries,
		clock:    cfg.Clock,
		log:      cfg.Logger.With("module", "editor"),
		sched:    NewScheduler(cfg.Clock, cfg.Debounce),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close cancels pending commits and waits for running ones.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.sched.CancelAll()
	e.cancel()
	e.wg.Wait()
}

// Pending returns the fields waiting for their debounce timer.
func (e *Editor) Pending() []models.Field {
	return e.sched.Pending()
}

func (e *Editor) SetDisplayName(v string) error {
	return e.edit(models.FieldDisplayName, func(models.UserProfile) (models.ProfilePatch, error) {
		return models.ProfilePatch{}.WithDisplayName(v), nil
	})
}

func (e *Editor) SetBio(v string) error {
	return e.edit(models.FieldBio, func(models.UserProfile) (models.ProfilePatch, error) {
		return models.ProfilePatch{}.WithBio(v), nil
	})
}

func (e *Editor) SetCommunicationStyle(v models.CommunicationStyle) error {
	return e.edit(models.FieldCommunicationStyle, func(models.UserProfile) (models.ProfilePatch, error) {
		if _, ok := models.ParseCommunicationStyle(string(v)); !ok {
			return models.ProfilePatch{}, fmt.Errorf("%w: unknown communication style %q", common.ErrorValidation, v)
		}
		return models.ProfilePatch{}.WithCommunicationStyle(v), nil
	})
}

func (e *Editor) SetInterests(v []string) error {
	return e.edit(models.FieldInterests, func(models.UserProfile) (models.ProfilePatch, error) {
		return models.ProfilePatch{}.WithInterests(v), nil
	})
}

// AddInterest appends a trimmed interest. Blank and duplicate interests
// are ignored.
func (e *Editor) AddInterest(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return e.edit(models.FieldInterests, func(p models.UserProfile) (models.ProfilePatch, error) {
		if slices.ContainsFunc(p.Interests, func(s string) bool { return strings.EqualFold(s, v) }) {
			return models.ProfilePatch{}, errUnchanged
		}
		return models.ProfilePatch{}.WithInterests(append(slices.Clone(p.Interests), v)), nil
	})
}

func (e *Editor) RemoveInterest(v string) error {
	return e.edit(models.FieldInterests, func(p models.UserProfile) (models.ProfilePatch, error) {
		i := slices.Index(p.Interests, v)
		if i < 0 {
			return models.ProfilePatch{}, errUnchanged
		}
		return models.ProfilePatch{}.WithInterests(slices.Delete(slices.Clone(p.Interests), i, i+1)), nil
	})
}

func (e *Editor) SetGoals(v models.Goals) error {
	return e.edit(models.FieldGoals, func(models.UserProfile) (models.ProfilePatch, error) {
		return models.ProfilePatch{}.WithGoals(v), nil
	})
}

// AddGoal creates a goal in category c and returns it.
func (e *Editor) AddGoal(c models.GoalCategory, title, description string) (models.Goal, error) {
	if strings.TrimSpace(title) == "" {
		return models.Goal{}, fmt.Errorf("%w: goal title is required", common.ErrorValidation)
	}
	goal, err := models.NewGoal(title, description)
	if err != nil {
		return models.Goal{}, err
	}
	err = e.edit(models.FieldGoals, func(p models.UserProfile) (models.ProfilePatch, error) {
		return models.ProfilePatch{}.WithGoals(p.Goals.Add(c, goal)), nil
	})
	if err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

func (e *Editor) ToggleGoal(c models.GoalCategory, id string) error {
	return e.edit(models.FieldGoals, func(p models.UserProfile) (models.ProfilePatch, error) {
		goals, ok := p.Goals.Toggle(c, id)
		if !ok {
			return models.ProfilePatch{}, fmt.Errorf("goal %s: %w", id, common.ErrorNotFound)
		}
		return models.ProfilePatch{}.WithGoals(goals), nil
	})
}

func (e *Editor) DeleteGoal(c models.GoalCategory, id string) error {
	return e.edit(models.FieldGoals, func(p models.UserProfile) (models.ProfilePatch, error) {
		goals, ok := p.Goals.Remove(c, id)
		if !ok {
			return models.ProfilePatch{}, fmt.Errorf("goal %s: %w", id, common.ErrorNotFound)
		}
		return models.ProfilePatch{}.WithGoals(goals), nil
	})
}

// errUnchanged tells edit that the edit is a no-op.
var errUnchanged = errors.New("unchanged")

// edit builds a patch for field f from the current local profile, applies
// it to the profile store and re-arms or cancels the field's commit.
func (e *Editor) edit(f models.Field, build func(models.UserProfile) (models.ProfilePatch, error)) error {
	id := e.auth.Snapshot().IdentityID()
	if id == "" {
		return common.ErrNotAuthenticated
	}
	local := e.profiles.Snapshot().Profile
	if local == nil {
		return common.ErrNoProfile
	}

	patch, err := build(*local)
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.profiles.UpdateProfile(patch); err != nil {
		return err
	}

	edited := patch.Apply(*local)
	if remote, ok := e.queries.Cached(id); ok && models.Equal(edited, remote, f) {
		if e.sched.Cancel(f) {
			e.log.Debug(e.ctx, "edit reverted, commit cancelled", "field", string(f))
		}
		return nil
	}

	e.sched.Arm(f, func() { e.commitField(id, f) })
	return nil
}

// commitField sends the value of f as it is in the profile store now.
func (e *Editor) commitField(id string, f models.Field) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()
	defer e.wg.Done()

	if e.auth.Snapshot().IdentityID() != id {
		e.log.Debug(e.ctx, "identity changed, dropping commit", "field", string(f))
		return
	}
	local := e.profiles.Snapshot().Profile
	if local == nil {
		return
	}

	if _, err := e.queries.UpdateProfile(e.ctx, id, models.FieldOf(*local, f)); err != nil {
		e.log.Warn(e.ctx, "field commit failed", "field", string(f), "error", err)
		e.addNotice(f, err)
		return
	}
	e.log.Debug(e.ctx, "field committed", "field", string(f))
}

// Save cancels pending field commits and sends every field that differs
// from the remote profile in one update. With no cached remote profile all
// editable fields are sent.
func (e *Editor) Save(ctx context.Context) (models.UserProfile, error) {
	id := e.auth.Snapshot().IdentityID()
	if id == "" {
		return models.UserProfile{}, common.ErrNotAuthenticated
	}
	local := e.profiles.Snapshot().Profile
	if local == nil {
		return models.UserProfile{}, common.ErrNoProfile
	}

	e.sched.CancelAll()

	remote, cached := e.queries.Cached(id)
	var patch models.ProfilePatch
	for _, f := range models.EditableFields {
		if cached && models.Equal(*local, remote, f) {
			continue
		}
		patch = patch.Merge(models.FieldOf(*local, f))
	}
	if patch.IsEmpty() {
		return remote, nil
	}

	p, err := e.queries.UpdateProfile(ctx, id, patch)
	if err != nil {
		e.log.Warn(ctx, "profile save failed", "error", err)
		e.addNotice("", err)
		return models.UserProfile{}, err
	}
	e.log.Info(ctx, "profile saved", "fields", len(patch.Fields()))
	return p, nil
}

func (e *Editor) addNotice(f models.Field, err error) {
	e.mu.Lock()
	e.noticeSeq++
	e.notices = append(e.notices, Notice{ID: e.noticeSeq, Field: f, Err: err, At: e.clock.Now()})
	snap := slices.Clone(e.notices)
	e.mu.Unlock()
	e.noticesObs.Notify(snap)
}

// Notices returns the undismissed notices, oldest first.
func (e *Editor) Notices() []Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.notices)
}

// Dismiss removes notice id. It reports whether the notice existed.
func (e *Editor) Dismiss(id uint64) bool {
	e.mu.Lock()
	i := slices.IndexFunc(e.notices, func(n Notice) bool { return n.ID == id })
	if i < 0 {
		e.mu.Unlock()
		return false
	}
	e.notices = slices.Delete(e.notices, i, i+1)
	snap := slices.Clone(e.notices)
	e.mu.Unlock()
	e.noticesObs.Notify(snap)
	return true
}

func (e *Editor) SubscribeNotices(fn func([]Notice)) (unsubscribe func()) {
	return e.noticesObs.Subscribe(fn)
}
