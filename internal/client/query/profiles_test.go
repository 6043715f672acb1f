package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore/docstoretest"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransport = errors.New("connection reset")

type fakeFlags struct {
	mu     sync.Mutex
	token  uint64
	active bool
	ended  []uint64
}

func (f *fakeFlags) BeginAddingProfileInfo() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token++
	f.active = true
	return f.token
}

func (f *fakeFlags) EndAddingProfileInfo(token uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, token)
	if token == f.token {
		f.active = false
	}
}

func (f *fakeFlags) isActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

type fixture struct {
	spy   *docstoretest.Spy
	flags *fakeFlags
	clock *timex.FakeClock
	q     *ProfileQueries
}

func newFixture(t *testing.T, repo kv.Repository) *fixture {
	t.Helper()
	f := &fixture{
		spy:   docstoretest.New(nil),
		flags: &fakeFlags{},
		clock: timex.NewFakeClock(epoch),
	}
	f.q = NewProfileQueries(f.spy, f.flags, Config{
		Options: Options{
			RetryBaseDelay: time.Nanosecond,
		},
		Clock:       f.clock,
		Persistence: repo,
	})
	return f
}

var ann = models.Identity{ID: "u1", Email: "ann@example.com", DisplayName: "Ann"}

func (f *fixture) seed(t *testing.T, id string, pub, priv docstore.Fields) {
	t.Helper()
	ctx := context.Background()
	if pub != nil {
		require.NoError(t, f.spy.Set(ctx, docstore.PublicPath(id), pub, docstore.SetOptions{}))
	}
	if priv != nil {
		require.NoError(t, f.spy.Set(ctx, docstore.PrivatePath(id), priv, docstore.SetOptions{}))
	}
	f.spy.Reset()
}

func TestFetchProfile_AbsentWhenEitherDocumentMissing(t *testing.T) {
	tests := []struct {
		name      string
		pub, priv docstore.Fields
	}{
		{"none", nil, nil},
		{"public only", docstore.Fields{"displayName": "Ann"}, nil},
		{"private only", nil, docstore.Fields{"email": "a@b.c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.seed(t, "u1", tt.pub, tt.priv)

			_, found, err := f.q.FetchProfile(context.Background(), "u1")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestFetchProfile_MergesDocuments(t *testing.T) {
	f := newFixture(t, nil)
	created := epoch.Add(-time.Hour)
	f.seed(t, "u1",
		docstore.Fields{"displayName": "Ann", "bio": "hi", "createdAt": models.EncodeTime(created), "updatedAt": models.EncodeTime(created)},
		docstore.Fields{
			"email": "ann@example.com", "interests": []any{"go"}, "communicationStyle": "funny",
			"goals":                  map[string]any{"personal": []any{}, "professional": []any{map[string]any{"id": "p", "title": "T"}}},
			"hasCompletedOnboarding": true, "createdAt": models.EncodeTime(created), "updatedAt": models.EncodeTime(epoch),
		},
	)

	got, found, err := f.q.FetchProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, found)

	want := models.UserProfile{
		DisplayName:            "Ann",
		Bio:                    "hi",
		Email:                  "ann@example.com",
		Interests:              []string{"go"},
		CommunicationStyle:     models.StyleFunny,
		Goals:                  models.Goals{Personal: []models.Goal{}, Professional: []models.Goal{{ID: "p", Title: "T"}}},
		CreatedAt:              created,
		UpdatedAt:              epoch,
		HasCompletedOnboarding: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchProfile() mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchProfile_CachedUntilStale(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)
	f.spy.Reset()

	_, found, err := f.q.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, f.spy.Gets())

	f.clock.Advance(5 * time.Minute)
	_, _, err = f.q.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, f.spy.Gets(), 2)
}

func TestFetchProfile_RetriesTransientReads(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)
	f.q.Invalidate(ctx, "u1")
	f.spy.Reset()

	f.spy.FailNext(docstoretest.OpGet, docstore.PrivatePath("u1"), errTransport, errTransport)
	_, found, err := f.q.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, f.spy.Gets(docstore.PrivatePath("u1")), 3)
}

func TestFetchProfile_ReadErrorAfterThreeAttempts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)
	f.q.Invalidate(ctx, "u1")

	f.spy.FailAlways(docstoretest.OpGet, docstore.PrivatePath("u1"), errTransport)
	_, _, err = f.q.FetchProfile(ctx, "u1")

	var re *common.ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, docstore.PrivatePath("u1"), re.Path)
	assert.Equal(t, 3, re.Attempts)
	assert.ErrorIs(t, err, errTransport)
}

func TestFetchProfile_AmbiguousAbsence(t *testing.T) {
	f := newFixture(t, nil)
	f.spy.FailAlways(docstoretest.OpGet, docstore.PrivatePath("u1"), errTransport)

	_, found, err := f.q.FetchProfile(context.Background(), "u1")
	assert.False(t, found)

	var amb *common.AmbiguousAbsenceError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "u1", amb.IdentityID)
	assert.Equal(t, docstore.PublicPath("u1"), amb.MissingPath)

	var re *common.ReadError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, 0, f.q.cache.Len(), "failures are not cached")
}

func TestFetchProfile_RequiresIdentity(t *testing.T) {
	f := newFixture(t, nil)
	_, _, err := f.q.FetchProfile(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestCreateProfile_WritesBothDocuments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	p, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.DisplayName)
	assert.False(t, p.HasCompletedOnboarding)

	sets := f.spy.Sets()
	require.Len(t, sets, 2)
	assert.Equal(t, docstore.PublicPath("u1"), sets[0].Path)
	assert.Equal(t, docstore.PrivatePath("u1"), sets[1].Path)
	for _, s := range sets {
		assert.False(t, s.Merge)
	}
	assert.ElementsMatch(t, []string{"displayName", "bio", "createdAt", "updatedAt"}, keys(sets[0].Fields))
	assert.NotContains(t, sets[1].Fields, "displayName")
	assert.NotContains(t, sets[1].Fields, "bio")
	assert.Equal(t, "ann@example.com", sets[1].Fields["email"])

	cached, ok := f.q.Cached("u1")
	require.True(t, ok)
	assert.Equal(t, p, cached)
}

func TestCreateProfile_Overrides(t *testing.T) {
	f := newFixture(t, nil)
	over := models.ProfilePatch{}.WithBio("from signup").WithOnboardingComplete()

	p, err := f.q.CreateProfile(context.Background(), models.Identity{ID: "u2"}, &over)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDisplayName, p.DisplayName)
	assert.Equal(t, "from signup", p.Bio)
	assert.True(t, p.HasCompletedOnboarding)
}

func TestCreateProfile_WriteFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.spy.FailAlways(docstoretest.OpSet, docstore.PrivatePath("u1"), errTransport)

	_, err := f.q.CreateProfile(context.Background(), ann, nil)
	var we *common.WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, 2, we.Attempts)
	_, ok := f.q.Cached("u1")
	assert.False(t, ok)
}

func TestUpdateProfile_SplitWrite(t *testing.T) {
	styles := models.StyleConcise
	tests := []struct {
		name        string
		patch       models.ProfilePatch
		wantPublic  []string
		wantPrivate []string
	}{
		{
			name:       "display name",
			patch:      models.ProfilePatch{}.WithDisplayName("Annie"),
			wantPublic: []string{"displayName", "updatedAt"},
		},
		{
			name:       "bio",
			patch:      models.ProfilePatch{}.WithBio("new"),
			wantPublic: []string{"bio", "updatedAt"},
		},
		{
			name:        "interests and style",
			patch:       models.ProfilePatch{}.WithInterests([]string{"go"}).WithCommunicationStyle(styles),
			wantPrivate: []string{"interests", "communicationStyle", "updatedAt"},
		},
		{
			name:        "everything",
			patch:       models.ProfilePatch{}.WithDisplayName("A").WithBio("B").WithGoals(models.Goals{}).WithOnboardingComplete(),
			wantPublic:  []string{"displayName", "bio", "updatedAt"},
			wantPrivate: []string{"goals", "hasCompletedOnboarding", "updatedAt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			_, err := f.q.CreateProfile(ctx, ann, nil)
			require.NoError(t, err)
			f.spy.Reset()

			_, err = f.q.UpdateProfile(ctx, "u1", tt.patch)
			require.NoError(t, err)

			pub := f.spy.Sets(docstore.PublicPath("u1"))
			priv := f.spy.Sets(docstore.PrivatePath("u1"))
			if tt.wantPublic == nil {
				assert.Empty(t, pub)
			} else {
				require.Len(t, pub, 1)
				assert.True(t, pub[0].Merge)
				assert.ElementsMatch(t, tt.wantPublic, keys(pub[0].Fields))
			}
			if tt.wantPrivate == nil {
				assert.Empty(t, priv)
			} else {
				require.Len(t, priv, 1)
				assert.True(t, priv[0].Merge)
				assert.ElementsMatch(t, tt.wantPrivate, keys(priv[0].Fields))
			}
			assert.Len(t, f.spy.Sets(), len(pub)+len(priv), "no writes to other paths")
		})
	}
}

func TestUpdateProfile_MergesIntoCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	created, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	got, err := f.q.UpdateProfile(ctx, "u1", models.ProfilePatch{}.WithBio("hello"))
	require.NoError(t, err)

	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, created.DisplayName, got.DisplayName)
	assert.True(t, epoch.Add(time.Minute).Equal(got.UpdatedAt))
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	cached, ok := f.q.Cached("u1")
	require.True(t, ok)
	assert.Equal(t, got, cached)

	f.q.Invalidate(ctx, "u1")
	remote, found, err := f.q.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", remote.Bio)
	assert.True(t, got.UpdatedAt.Equal(remote.UpdatedAt))
}

func TestUpdateProfile_UpdatedAtNeverDecreases(t *testing.T) {
	f := newFixture(t, nil)
	future := epoch.Add(time.Hour)
	f.seed(t, "u1",
		docstore.Fields{"displayName": "Ann", "updatedAt": models.EncodeTime(future)},
		docstore.Fields{"updatedAt": models.EncodeTime(future)},
	)

	got, err := f.q.UpdateProfile(context.Background(), "u1", models.ProfilePatch{}.WithBio("x"))
	require.NoError(t, err)
	assert.True(t, future.Equal(got.UpdatedAt), "got %v", got.UpdatedAt)
}

func TestUpdateProfile_FailureLeavesCacheUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	before, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)
	f.spy.Reset()

	f.spy.FailAlways(docstoretest.OpSet, docstore.PrivatePath("u1"), errTransport)
	_, err = f.q.UpdateProfile(ctx, "u1", models.ProfilePatch{}.WithInterests([]string{"go"}))

	var we *common.WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, docstore.PrivatePath("u1"), we.Path)
	assert.Equal(t, 2, we.Attempts, "mutations retry once")
	assert.Len(t, f.spy.Sets(docstore.PrivatePath("u1")), 2)

	cached, ok := f.q.Cached("u1")
	require.True(t, ok)
	assert.Equal(t, before, cached)
}

func TestUpdateProfile_NoProfile(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.q.UpdateProfile(context.Background(), "u1", models.ProfilePatch{}.WithBio("x"))
	assert.ErrorIs(t, err, common.ErrNoProfile)
	assert.Empty(t, f.spy.Sets())
}

func TestUpdateProfile_EmptyPatchWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)
	f.spy.Reset()

	_, err = f.q.UpdateProfile(ctx, "u1", models.ProfilePatch{})
	require.NoError(t, err)
	assert.Empty(t, f.spy.Sets())
}

func TestUpdateProfile_EmitsCommitted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)

	var events []Event
	unsub := f.q.Subscribe(func(e Event) { events = append(events, e) })
	defer unsub()

	patch := models.ProfilePatch{}.WithBio("x")
	_, err = f.q.UpdateProfile(ctx, "u1", patch)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, EventCommitted, events[0].Kind)
	assert.Equal(t, "u1", events[0].IdentityID)
	assert.Equal(t, patch.Fields(), events[0].Patch.Fields())
	require.NotNil(t, events[0].Profile)
	assert.Equal(t, "x", events[0].Profile.Bio)
}

func TestUpdateProfile_OnboardingNeverReverts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)
	_, err = f.q.UpdateProfile(ctx, "u1", models.ProfilePatch{}.WithOnboardingComplete())
	require.NoError(t, err)
	f.spy.Reset()

	var events []Event
	unsub := f.q.Subscribe(func(e Event) {
		if e.Kind == EventCommitted {
			events = append(events, e)
		}
	})
	defer unsub()

	no := false
	got, err := f.q.UpdateProfile(ctx, "u1", models.ProfilePatch{HasCompletedOnboarding: &no})
	require.NoError(t, err)
	assert.True(t, got.HasCompletedOnboarding)
	assert.Empty(t, f.spy.Sets())
	assert.Empty(t, events)

	remote, found, err := f.spy.Get(ctx, docstore.PrivatePath("u1"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, true, remote["hasCompletedOnboarding"])

	f.q.Invalidate(ctx, "u1")
	refetched, found, err := f.q.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, refetched.HasCompletedOnboarding)

	// Mixed with other fields, the false flag is dropped and the rest is written.
	got, err = f.q.UpdateProfile(ctx, "u1", models.ProfilePatch{HasCompletedOnboarding: &no}.WithBio("x"))
	require.NoError(t, err)
	assert.True(t, got.HasCompletedOnboarding)
	assert.Empty(t, f.spy.Sets(docstore.PrivatePath("u1")))
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Patch.HasCompletedOnboarding)
}

func TestCompleteOnboarding_PacingContract(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)

	flagDuringWrite := false
	f.spy.BeforeSet(func(context.Context, string) { flagDuringWrite = f.flags.isActive() })

	p, err := f.q.CompleteOnboarding(ctx, "u1", models.OnboardingData{DisplayName: "Ann B", Interests: []string{"go"}})
	require.NoError(t, err)
	assert.True(t, p.HasCompletedOnboarding)
	assert.True(t, flagDuringWrite, "flag raised before the write")

	assert.True(t, f.flags.isActive())
	f.clock.Advance(2499 * time.Millisecond)
	assert.True(t, f.flags.isActive())
	f.clock.Advance(time.Millisecond)
	assert.False(t, f.flags.isActive())
	assert.Equal(t, []uint64{1}, f.flags.ended)
}

func TestCompleteOnboarding_PacingOnFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)
	f.spy.FailAlways(docstoretest.OpSet, docstore.PrivatePath("u1"), errTransport)

	_, err = f.q.CompleteOnboarding(ctx, "u1", models.OnboardingData{DisplayName: "Ann"})
	var we *common.WriteError
	require.ErrorAs(t, err, &we)

	assert.True(t, f.flags.isActive())
	f.clock.Advance(2500 * time.Millisecond)
	assert.False(t, f.flags.isActive())

	cached, _ := f.q.Cached("u1")
	assert.False(t, cached.HasCompletedOnboarding)
}

func TestCompleteOnboarding_InvalidDataTouchesNothing(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.q.CompleteOnboarding(context.Background(), "u1", models.OnboardingData{})
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.False(t, f.flags.isActive())
	assert.Equal(t, 0, f.clock.Pending())
}

func TestProfileQueries_RestoreFromPersistence(t *testing.T) {
	repo := kv.NewMemoryRepository()
	ctx := context.Background()

	first := newFixture(t, repo)
	created, err := first.q.CreateProfile(ctx, ann, nil)
	require.NoError(t, err)

	second := newFixture(t, repo)
	require.NoError(t, second.q.Restore(ctx))

	cached, ok := second.q.Cached("u1")
	require.True(t, ok)
	if diff := cmp.Diff(created, cached); diff != "" {
		t.Errorf("restored profile mismatch (-want +got):\n%s", diff)
	}

	_, found, err := second.q.FetchProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, second.spy.Gets(), "restored entry is still fresh")
}

func keys(f docstore.Fields) []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	return out
}
