package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
)

// GoalDraft is a goal typed in during onboarding, before it has an id.
type GoalDraft struct {
	Title       string
	Description string
}

// OnboardingData is what the onboarding flow collects in one go.
type OnboardingData struct {
	DisplayName        string
	Bio                string
	Interests          []string
	CommunicationStyle CommunicationStyle
	PersonalGoals      []GoalDraft
	ProfessionalGoals  []GoalDraft
}

// Validate requires a display name and a known communication style.
func (d OnboardingData) Validate() error {
	if strings.TrimSpace(d.DisplayName) == "" {
		return fmt.Errorf("%w: display name is required", common.ErrorValidation)
	}
	if d.CommunicationStyle != "" {
		if _, ok := ParseCommunicationStyle(string(d.CommunicationStyle)); !ok {
			return fmt.Errorf("%w: unknown communication style %q", common.ErrorValidation, d.CommunicationStyle)
		}
	}
	for _, g := range append(append([]GoalDraft{}, d.PersonalGoals...), d.ProfessionalGoals...) {
		if strings.TrimSpace(g.Title) == "" {
			return fmt.Errorf("%w: goal title is required", common.ErrorValidation)
		}
	}
	return nil
}

// Patch validates d and converts it into a full profile update with
// onboarding marked complete. Goals get fresh ids.
func (d OnboardingData) Patch() (ProfilePatch, error) {
	if err := d.Validate(); err != nil {
		return ProfilePatch{}, err
	}

	style := d.CommunicationStyle
	if style == "" {
		style = StyleDescriptive
	}

	goals := Goals{Personal: []Goal{}, Professional: []Goal{}}
	for _, g := range d.PersonalGoals {
		goal, err := NewGoal(g.Title, g.Description)
		if err != nil {
			return ProfilePatch{}, err
		}
		goals.Personal = append(goals.Personal, goal)
	}
	for _, g := range d.ProfessionalGoals {
		goal, err := NewGoal(g.Title, g.Description)
		if err != nil {
			return ProfilePatch{}, err
		}
		goals.Professional = append(goals.Professional, goal)
	}

	return ProfilePatch{}.
		WithDisplayName(strings.TrimSpace(d.DisplayName)).
		WithBio(strings.TrimSpace(d.Bio)).
		WithInterests(NormalizeInterests(d.Interests)).
		WithCommunicationStyle(style).
		WithGoals(goals).
		WithOnboardingComplete(), nil
}

// NormalizeInterests trims entries and drops blanks and case-insensitive duplicates.
func NormalizeInterests(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
