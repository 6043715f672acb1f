package models

import (
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0  = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	t1  = t0.Add(time.Hour)
	now = t0.Add(48 * time.Hour)
)

func TestCombine_FieldMapping(t *testing.T) {
	pubFields := docstore.Fields{
		"displayName": "Ann",
		"bio":         "public bio",
		"createdAt":   EncodeTime(t0),
		"updatedAt":   EncodeTime(t0),
	}
	privFields := docstore.Fields{
		"email":                  "ann@example.com",
		"interests":              []any{"go", "chess"},
		"communicationStyle":     "concise",
		"goals":                  map[string]any{"personal": []any{map[string]any{"id": "g1", "title": "run", "completed": true}}},
		"hasCompletedOnboarding": true,
		"createdAt":              EncodeTime(t0),
		"updatedAt":              EncodeTime(t1),
	}

	pub, err := DecodePublic(pubFields, now)
	require.NoError(t, err)
	priv, err := DecodePrivate(privFields, now)
	require.NoError(t, err)

	want := UserProfile{
		DisplayName:            "Ann",
		Bio:                    "public bio",
		Email:                  "ann@example.com",
		Interests:              []string{"go", "chess"},
		CommunicationStyle:     StyleConcise,
		Goals:                  Goals{Personal: []Goal{{ID: "g1", Title: "run", Completed: true}}, Professional: []Goal{}},
		CreatedAt:              t0,
		UpdatedAt:              t1,
		HasCompletedOnboarding: true,
	}
	if diff := cmp.Diff(want, Combine(pub, priv)); diff != "" {
		t.Errorf("Combine() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Defaults(t *testing.T) {
	pub, err := DecodePublic(docstore.Fields{}, now)
	require.NoError(t, err)
	priv, err := DecodePrivate(docstore.Fields{"communicationStyle": "shouty", "bio": "legacy"}, now)
	require.NoError(t, err)

	p := Combine(pub, priv)
	assert.Equal(t, DefaultDisplayName, p.DisplayName)
	assert.Equal(t, "legacy", p.Bio)
	assert.Equal(t, StyleDescriptive, p.CommunicationStyle)
	assert.Equal(t, []string{}, p.Interests)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
	assert.False(t, p.HasCompletedOnboarding)
}

func TestDecodePrivate_LegacyGoalArray(t *testing.T) {
	priv, err := DecodePrivate(docstore.Fields{
		"goals": []any{map[string]any{"id": "a", "title": "A"}, "junk"},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, []Goal{{ID: "a", Title: "A"}}, priv.Goals.Personal)
	assert.Empty(t, priv.Goals.Professional)
}

func TestDecodePrivate_InvalidGoals(t *testing.T) {
	_, err := DecodePrivate(docstore.Fields{"goals": "nope"}, now)
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
}

func TestDecodeTime(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"time", t0.In(time.FixedZone("x", 3600)), t0},
		{"rfc3339", "2024-01-02T03:04:05Z", t0},
		{"millis", float64(t0.UnixMilli()), t0},
		{"int64", t0.UnixMilli(), t0},
		{"seconds map", map[string]any{"seconds": float64(t0.Unix()), "nanos": float64(0)}, t0},
		{"firestore map", map[string]any{"_seconds": float64(t0.Unix())}, t0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := DecodeTime("yesterday")
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
	_, err = DecodeTime(true)
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
	_, err = DecodePublic(docstore.Fields{"createdAt": "bad"}, now)
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
}

func TestSplitProfile_RoundTrip(t *testing.T) {
	p := UserProfile{
		DisplayName:        "Ann",
		Bio:                "b",
		Email:              "ann@example.com",
		Interests:          []string{"go"},
		CommunicationStyle: StyleFunny,
		Goals:              Goals{Personal: []Goal{}, Professional: []Goal{{ID: "p1", Title: "lead"}}},
		CreatedAt:          t0,
		UpdatedAt:          t1,
	}
	pubDoc, privDoc := SplitProfile(p)

	pubFields, privFields := pubDoc.Fields(), privDoc.Fields()
	assert.NotContains(t, privFields, "displayName")
	assert.NotContains(t, privFields, "bio")
	assert.NotContains(t, pubFields, "interests")

	// Through a JSON-normalising store, as the transport would.
	pubN, err := docstore.Normalize(pubFields)
	require.NoError(t, err)
	privN, err := docstore.Normalize(privFields)
	require.NoError(t, err)

	pub, err := DecodePublic(pubN, now)
	require.NoError(t, err)
	priv, err := DecodePrivate(privN, now)
	require.NoError(t, err)

	if diff := cmp.Diff(p, Combine(pub, priv)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitPatch(t *testing.T) {
	t.Run("public only", func(t *testing.T) {
		pub, priv := SplitPatch(ProfilePatch{}.WithDisplayName("Ann"), t1)
		assert.Equal(t, docstore.Fields{"displayName": "Ann", "updatedAt": EncodeTime(t1)}, pub)
		assert.Nil(t, priv)
	})
	t.Run("private only", func(t *testing.T) {
		pub, priv := SplitPatch(ProfilePatch{}.WithInterests([]string{"go"}).WithOnboardingComplete(), t1)
		assert.Nil(t, pub)
		assert.Equal(t, docstore.Fields{
			"interests":              []any{"go"},
			"hasCompletedOnboarding": true,
			"updatedAt":              EncodeTime(t1),
		}, priv)
	})
	t.Run("both", func(t *testing.T) {
		pub, priv := SplitPatch(ProfilePatch{}.WithBio("b").WithCommunicationStyle(StyleConcise), t1)
		assert.Equal(t, []string{"bio", "updatedAt"}, sortedKeys(pub))
		assert.Equal(t, []string{"communicationStyle", "updatedAt"}, sortedKeys(priv))
	})
	t.Run("empty", func(t *testing.T) {
		pub, priv := SplitPatch(ProfilePatch{}, t1)
		assert.Nil(t, pub)
		assert.Nil(t, priv)
	})
	t.Run("onboarding false is not written", func(t *testing.T) {
		no := false
		pub, priv := SplitPatch(ProfilePatch{HasCompletedOnboarding: &no}, t1)
		assert.Nil(t, pub)
		assert.Nil(t, priv)

		pub, priv = SplitPatch(ProfilePatch{HasCompletedOnboarding: &no}.WithBio("b"), t1)
		assert.Equal(t, []string{"bio", "updatedAt"}, sortedKeys(pub))
		assert.Nil(t, priv)
	})
}

func sortedKeys(f docstore.Fields) []string {
	return slices.Sorted(maps.Keys(f))
}
