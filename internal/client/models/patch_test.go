package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilePatch_Fields(t *testing.T) {
	assert.True(t, ProfilePatch{}.IsEmpty())

	p := ProfilePatch{}.WithBio("hi").WithDisplayName("Ann").WithGoals(Goals{})
	assert.False(t, p.IsEmpty())
	assert.Equal(t, []Field{FieldDisplayName, FieldBio, FieldGoals}, p.Fields())
	assert.True(t, p.Has(FieldBio))
	assert.False(t, p.Has(FieldInterests))
}

func TestProfilePatch_ApplyMerges(t *testing.T) {
	base := UserProfile{
		DisplayName:        "Ann",
		Bio:                "old",
		Interests:          []string{"go"},
		CommunicationStyle: StyleDescriptive,
	}
	got := ProfilePatch{}.WithBio("new").WithInterests([]string{"go", "chess"}).Apply(base)

	assert.Equal(t, "Ann", got.DisplayName)
	assert.Equal(t, "new", got.Bio)
	assert.Equal(t, []string{"go", "chess"}, got.Interests)
	assert.Equal(t, []string{"go"}, base.Interests)
}

func TestProfilePatch_OnboardingIsMonotonic(t *testing.T) {
	done := UserProfile{HasCompletedOnboarding: true}
	no := false

	got := ProfilePatch{HasCompletedOnboarding: &no}.Apply(done)
	assert.True(t, got.HasCompletedOnboarding)

	got = ProfilePatch{}.WithOnboardingComplete().Apply(UserProfile{})
	assert.True(t, got.HasCompletedOnboarding)
}

func TestProfilePatch_MergeLaterWins(t *testing.T) {
	a := ProfilePatch{}.WithBio("a").WithDisplayName("A")
	b := ProfilePatch{}.WithBio("b").WithCommunicationStyle(StyleFunny)

	m := a.Merge(b)
	require.NotNil(t, m.Bio)
	assert.Equal(t, "b", *m.Bio)
	assert.Equal(t, "A", *m.DisplayName)
	assert.Equal(t, StyleFunny, *m.CommunicationStyle)
}

func TestFieldOfAndEqual(t *testing.T) {
	p := UserProfile{
		DisplayName: "Ann",
		Interests:   []string{"x"},
		Goals:       Goals{Personal: []Goal{{ID: "1"}}},
	}
	for _, f := range EditableFields {
		patch := FieldOf(p, f)
		require.Equal(t, []Field{f}, patch.Fields())
		assert.True(t, Equal(p, patch.Apply(UserProfile{}), f), f)
	}

	q := p.Clone()
	q.Goals.Personal[0].Completed = true
	assert.False(t, Equal(p, q, FieldGoals))
	assert.True(t, Equal(UserProfile{}, UserProfile{Interests: []string{}}, FieldInterests))
}

func TestField_IsPublic(t *testing.T) {
	assert.True(t, FieldDisplayName.IsPublic())
	assert.True(t, FieldBio.IsPublic())
	assert.False(t, FieldGoals.IsPublic())
	assert.False(t, FieldHasCompletedOnboarding.IsPublic())
}
