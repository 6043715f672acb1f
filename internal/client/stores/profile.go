package stores

import (
	"sync"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/notify"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
)

// ProfileState is a snapshot of the profile store.
type ProfileState struct {
	Profile *models.UserProfile
	Loading bool
	// HasCompletedOnboarding equals Profile.HasCompletedOnboarding whenever
	// a profile is set.
	HasCompletedOnboarding bool
	InitiatingAccess       bool
	AddingProfileInfo      bool
	// LoadError is the last failed profile load; cleared by SetProfile.
	LoadError error
}

func (s ProfileState) clone() ProfileState {
	if s.Profile != nil {
		p := s.Profile.Clone()
		s.Profile = &p
	}
	return s
}

// ProfileStore is the in-memory mirror of the signed-in user's profile and
// the flags gating the loading screens.
//
// The pacing flags are raised with Begin*, which returns a token, and
// lowered by End* with that token. A token issued before Clear, or
// superseded by a newer Begin*, no longer lowers the flag.
type ProfileStore struct {
	mu          sync.Mutex
	state       ProfileState
	seq         uint64
	accessToken uint64
	infoToken   uint64
	obs         notify.Observers[ProfileState]
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

func (s *ProfileStore) Snapshot() ProfileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *ProfileStore) Subscribe(fn func(ProfileState)) (unsubscribe func()) {
	return s.obs.Subscribe(fn)
}

// mutate applies fn under the lock and notifies subscribers if fn reports
// a change.
func (s *ProfileStore) mutate(fn func(st *ProfileState) bool) {
	s.mu.Lock()
	changed := fn(&s.state)
	snap := s.state.clone()
	s.mu.Unlock()
	if changed {
		s.obs.Notify(snap)
	}
}

// SetProfile replaces the profile; nil removes it.
func (s *ProfileStore) SetProfile(p *models.UserProfile) {
	s.mutate(func(st *ProfileState) bool {
		if p == nil {
			st.Profile = nil
			st.HasCompletedOnboarding = false
		} else {
			c := p.Clone()
			st.Profile = &c
			st.HasCompletedOnboarding = c.HasCompletedOnboarding
		}
		st.LoadError = nil
		return true
	})
}

// UpdateProfile merges patch into the current profile locally.
func (s *ProfileStore) UpdateProfile(patch models.ProfilePatch) error {
	var err error
	s.mutate(func(st *ProfileState) bool {
		if st.Profile == nil {
			err = common.ErrNoProfile
			return false
		}
		p := patch.Apply(*st.Profile)
		st.Profile = &p
		st.HasCompletedOnboarding = p.HasCompletedOnboarding
		return true
	})
	return err
}

func (s *ProfileStore) SetLoading(loading bool) {
	s.mutate(func(st *ProfileState) bool {
		if st.Loading == loading {
			return false
		}
		st.Loading = loading
		return true
	})
}

// SetLoadError records a failed load and ends loading. The profile is kept.
func (s *ProfileStore) SetLoadError(err error) {
	s.mutate(func(st *ProfileState) bool {
		st.LoadError = err
		st.Loading = false
		return true
	})
}

// MarkOnboardingComplete sets the onboarding flag on the store and on the
// profile. It never clears it.
func (s *ProfileStore) MarkOnboardingComplete() {
	s.mutate(func(st *ProfileState) bool {
		if st.HasCompletedOnboarding && (st.Profile == nil || st.Profile.HasCompletedOnboarding) {
			return false
		}
		st.HasCompletedOnboarding = true
		if st.Profile != nil {
			st.Profile.HasCompletedOnboarding = true
		}
		return true
	})
}

// Clear resets every field to its initial value and invalidates
// outstanding pacing tokens.
func (s *ProfileStore) Clear() {
	s.mutate(func(st *ProfileState) bool {
		*st = ProfileState{}
		s.accessToken = 0
		s.infoToken = 0
		return true
	})
}

func (s *ProfileStore) BeginInitiatingAccess() uint64 {
	var token uint64
	s.mutate(func(st *ProfileState) bool {
		s.seq++
		token = s.seq
		s.accessToken = token
		st.InitiatingAccess = true
		return true
	})
	return token
}

func (s *ProfileStore) EndInitiatingAccess(token uint64) {
	s.mutate(func(st *ProfileState) bool {
		if token == 0 || token != s.accessToken {
			return false
		}
		s.accessToken = 0
		st.InitiatingAccess = false
		return true
	})
}

func (s *ProfileStore) BeginAddingProfileInfo() uint64 {
	var token uint64
	s.mutate(func(st *ProfileState) bool {
		s.seq++
		token = s.seq
		s.infoToken = token
		st.AddingProfileInfo = true
		return true
	})
	return token
}

func (s *ProfileStore) EndAddingProfileInfo(token uint64) {
	s.mutate(func(st *ProfileState) bool {
		if token == 0 || token != s.infoToken {
			return false
		}
		s.infoToken = 0
		st.AddingProfileInfo = false
		return true
	})
}
