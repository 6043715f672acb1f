// Package coordinator keeps the profile store in step with the auth store:
// it loads the profile of every identity that signs in, creates it on a
// confirmed first miss and clears local state on sign-out.
package coordinator

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/query"
	"github.com/dmitrijs2005/profilekeeper/internal/client/stores"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

// CreationState tracks remote profile creation for one identity.
type CreationState int

const (
	// CreationAbsent means no profile has been confirmed or created yet.
	CreationAbsent CreationState = iota
	// CreationInFlight means a CreateProfile call is running.
	CreationInFlight
	// CreationPresent means the profile is known to exist remotely.
	CreationPresent
)

func (s CreationState) String() string {
	switch s {
	case CreationAbsent:
		return "absent"
	case CreationInFlight:
		return "creating"
	case CreationPresent:
		return "present"
	}
	return "unknown"
}

// Queries is the part of the query layer the coordinator uses.
type Queries interface {
	FetchProfile(ctx context.Context, id string) (models.UserProfile, bool, error)
	CreateProfile(ctx context.Context, identity models.Identity, overrides *models.ProfilePatch) (models.UserProfile, error)
	Subscribe(fn func(query.Event)) (unsubscribe func())
}

// Coordinator reacts to auth state changes.
//
// Every authenticated transition starts a new generation; results of a
// load that belongs to an older generation, or to another identity, are
// discarded.
type Coordinator struct {
	auth     *stores.AuthStore
	profiles *stores.ProfileStore
	queries  Queries
	log      logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// applyMu is held while a load result is written to the profile store.
	// It is taken before mu.
	applyMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	current    string
	creation   map[string]CreationState
	unsubs     []func()
}

func New(auth *stores.AuthStore, profiles *stores.ProfileStore, queries Queries, log logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		auth:     auth,
		profiles: profiles,
		queries:  queries,
		log:      log.With("module", "coordinator"),
		ctx:      ctx,
		cancel:   cancel,
		creation: make(map[string]CreationState),
	}
}

// Start subscribes to the auth store and to committed profile writes, then
// reacts to the current auth state.
func (c *Coordinator) Start() {
	unsubAuth := c.auth.Subscribe(c.onAuth)
	unsubQueries := c.queries.Subscribe(c.onQueryEvent)

	c.mu.Lock()
	c.unsubs = append(c.unsubs, unsubAuth, unsubQueries)
	c.mu.Unlock()

	c.onAuth(c.auth.Snapshot())
}

// Close unsubscribes, cancels in-flight loads and waits for them.
func (c *Coordinator) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
	c.cancel()
	c.wg.Wait()
}

// Wait blocks until every load started so far has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// CreationState reports the creation state of identity id.
func (c *Coordinator) CreationState(id string) CreationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creation[id]
}

func (c *Coordinator) onAuth(st stores.AuthState) {
	switch {
	case st.Loading:
		return
	case st.IsAuthenticated && st.Identity != nil:
		id := *st.Identity
		c.mu.Lock()
		same := c.current == id.ID
		c.mu.Unlock()
		if same {
			return
		}
		gen, prev := c.begin(id.ID)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.load(c.ctx, id, gen, prev); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Warn(c.ctx, "profile load failed", "identity", id.ID, "error", err)
			}
		}()
	default:
		c.HandleSignedOut()
	}
}

// begin starts a new generation for identity id and returns it together
// with the previously current identity.
func (c *Coordinator) begin(id string) (gen uint64, prev string) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	prev, c.current = c.current, id
	return c.generation, prev
}

func (c *Coordinator) isCurrent(gen uint64, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen && c.current == id
}

func (c *Coordinator) isCurrentIdentity(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == id
}

// HandleAuthenticated loads the profile of identity into the profile store,
// creating it when the remote store confirms it does not exist. A failed
// load keeps the profile store's profile and records the error on it.
func (c *Coordinator) HandleAuthenticated(ctx context.Context, identity models.Identity) error {
	gen, prev := c.begin(identity.ID)
	return c.load(ctx, identity, gen, prev)
}

func (c *Coordinator) load(ctx context.Context, identity models.Identity, gen uint64, prev string) error {
	current := func() bool { return c.isCurrent(gen, identity.ID) }
	if !c.applyIf(current, func() {
		if prev != identity.ID {
			c.profiles.SetProfile(nil)
		}
		c.profiles.SetLoading(true)
	}) {
		return nil
	}

	profile, found, err := c.queries.FetchProfile(ctx, identity.ID)
	var applied bool
	switch {
	case err != nil:
		applied = c.applyIf(current, func() { c.profiles.SetLoadError(err) })
	case found:
		c.setCreation(identity.ID, CreationPresent)
		applied = c.applyIf(current, func() {
			c.profiles.SetProfile(&profile)
			c.profiles.SetLoading(false)
		})
	default:
		applied = current()
	}
	if !applied {
		c.log.Debug(ctx, "discarding stale profile load", "identity", identity.ID)
		return nil
	}
	if err != nil {
		var amb *common.AmbiguousAbsenceError
		if errors.As(err, &amb) {
			c.log.Warn(ctx, "profile presence unknown, not creating", "identity", identity.ID, "missing", amb.MissingPath)
		}
		return err
	}
	if found {
		return nil
	}

	if !c.claimCreation(identity.ID) {
		// The claiming handler applies the created profile.
		c.log.Debug(ctx, "profile creation already claimed", "identity", identity.ID)
		return nil
	}

	sameIdentity := func() bool { return c.isCurrentIdentity(identity.ID) }
	c.log.Info(ctx, "creating profile", "identity", identity.ID)
	created, err := c.queries.CreateProfile(ctx, identity, nil)
	if err != nil {
		c.setCreation(identity.ID, CreationAbsent)
		c.applyIf(sameIdentity, func() { c.profiles.SetLoadError(err) })
		return err
	}
	c.setCreation(identity.ID, CreationPresent)

	c.applyIf(sameIdentity, func() {
		c.profiles.SetProfile(&created)
		c.profiles.SetLoading(false)
	})
	return nil
}

// applyIf runs fn against the profile store if current reports true.
// Generation changes and sign-out wait for fn to return, so a result that
// passed the check cannot land after them.
func (c *Coordinator) applyIf(current func() bool, fn func()) bool {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if !current() {
		return false
	}
	fn()
	return true
}

// HandleSignedOut clears the local profile state. Remote documents and the
// query cache are kept.
func (c *Coordinator) HandleSignedOut() {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.mu.Lock()
	c.generation++
	c.current = ""
	c.mu.Unlock()
	c.profiles.Clear()
}

// claimCreation marks id as in-flight. It reports false when another
// handler is already creating the profile.
func (c *Coordinator) claimCreation(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creation[id] == CreationInFlight {
		return false
	}
	c.creation[id] = CreationInFlight
	return true
}

func (c *Coordinator) setCreation(id string, s CreationState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creation[id] = s
}

// onQueryEvent mirrors writes the profile store has not applied
// optimistically, onboarding completion in particular, for the current
// identity only.
func (c *Coordinator) onQueryEvent(e query.Event) {
	if e.IdentityID == "" || !c.isCurrentIdentity(e.IdentityID) {
		return
	}

	switch e.Kind {
	case query.EventCreated:
		c.setCreation(e.IdentityID, CreationPresent)
	case query.EventCommitted:
		if e.Patch.HasCompletedOnboarding == nil {
			return
		}
		c.applyIf(func() bool { return c.isCurrentIdentity(e.IdentityID) }, func() {
			if err := c.profiles.UpdateProfile(e.Patch); err != nil && e.Profile != nil {
				c.profiles.SetProfile(e.Profile)
			}
			c.profiles.MarkOnboardingComplete()
		})
	}
}
