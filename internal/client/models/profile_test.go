package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommunicationStyle(t *testing.T) {
	tests := []struct {
		in     string
		want   CommunicationStyle
		wantOK bool
	}{
		{"descriptive", StyleDescriptive, true},
		{"Concise", StyleConcise, true},
		{" funny ", StyleFunny, true},
		{"poetic", StyleDescriptive, false},
		{"", StyleDescriptive, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCommunicationStyle(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestIdentity_FallbackDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", Identity{DisplayName: " Ada ", Email: "x@y.z"}.FallbackDisplayName())
	assert.Equal(t, "grace", Identity{Email: "grace@navy.mil"}.FallbackDisplayName())
	assert.Equal(t, DefaultDisplayName, Identity{Email: "@nolocal"}.FallbackDisplayName())
	assert.Equal(t, DefaultDisplayName, Identity{Anonymous: true}.FallbackDisplayName())
}

func TestNewProfile_Defaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p := NewProfile(Identity{ID: "u1", Email: "bob@example.com"}, now)

	assert.Equal(t, "bob", p.DisplayName)
	assert.Equal(t, "bob@example.com", p.Email)
	assert.Equal(t, StyleDescriptive, p.CommunicationStyle)
	assert.False(t, p.HasCompletedOnboarding)
	assert.NotNil(t, p.Interests)
	assert.Equal(t, 0, p.Goals.Len())
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestUserProfile_CloneIsDeep(t *testing.T) {
	p := UserProfile{
		Interests: []string{"go"},
		Goals:     Goals{Personal: []Goal{{ID: "g1", Title: "run"}}},
	}
	c := p.Clone()
	c.Interests[0] = "rust"
	c.Goals.Personal[0].Title = "swim"

	require.Equal(t, "go", p.Interests[0])
	require.Equal(t, "run", p.Goals.Personal[0].Title)
}

func TestGoals_AddToggleRemove(t *testing.T) {
	g1, err := NewGoal("  Learn Go ", "")
	require.NoError(t, err)
	g2, err := NewGoal("Ship", "v1")
	require.NoError(t, err)
	require.NotEqual(t, g1.ID, g2.ID)
	require.Equal(t, "Learn Go", g1.Title)

	var goals Goals
	goals = goals.Add(GoalPersonal, g1)
	goals = goals.Add(GoalProfessional, g2)
	require.Len(t, goals.Personal, 1)
	require.Len(t, goals.Professional, 1)

	toggled, ok := goals.Toggle(GoalProfessional, g2.ID)
	require.True(t, ok)
	assert.True(t, toggled.Professional[0].Completed)
	assert.False(t, goals.Professional[0].Completed, "original must be untouched")

	_, ok = goals.Toggle(GoalPersonal, g2.ID)
	assert.False(t, ok)

	removed, ok := toggled.Remove(GoalPersonal, g1.ID)
	require.True(t, ok)
	assert.Empty(t, removed.Personal)
	assert.Len(t, toggled.Personal, 1)

	_, ok = removed.Remove(GoalPersonal, "missing")
	assert.False(t, ok)
}

func TestParseGoalCategory(t *testing.T) {
	c, err := ParseGoalCategory("Professional")
	require.NoError(t, err)
	assert.Equal(t, GoalProfessional, c)

	_, err = ParseGoalCategory("hobby")
	assert.Error(t, err)
}
