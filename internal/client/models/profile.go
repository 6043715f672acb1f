// Package models defines the user profile, its remote document schemas and
// the partial updates applied to it.
package models

import (
	"strings"
	"time"
)

// CommunicationStyle is how the assistant talks to the user.
type CommunicationStyle string

const (
	StyleDescriptive CommunicationStyle = "descriptive"
	StyleConcise     CommunicationStyle = "concise"
	StyleFunny       CommunicationStyle = "funny"
)

// DefaultDisplayName is used when neither the identity nor the stored
// document provides a name.
const DefaultDisplayName = "Anonymous"

// ParseCommunicationStyle maps s onto a known style. Unknown values decode
// to StyleDescriptive; ok reports whether s was recognised.
func ParseCommunicationStyle(s string) (style CommunicationStyle, ok bool) {
	switch CommunicationStyle(strings.ToLower(strings.TrimSpace(s))) {
	case StyleDescriptive:
		return StyleDescriptive, true
	case StyleConcise:
		return StyleConcise, true
	case StyleFunny:
		return StyleFunny, true
	}
	return StyleDescriptive, false
}

// UserProfile is the combined view of a user's public and private documents.
type UserProfile struct {
	DisplayName            string             `json:"displayName"`
	Bio                    string             `json:"bio"`
	Email                  string             `json:"email,omitempty"`
	Interests              []string           `json:"interests"`
	CommunicationStyle     CommunicationStyle `json:"communicationStyle"`
	Goals                  Goals              `json:"goals"`
	CreatedAt              time.Time          `json:"createdAt"`
	UpdatedAt              time.Time          `json:"updatedAt"`
	HasCompletedOnboarding bool               `json:"hasCompletedOnboarding"`
}

// Clone returns a deep copy of p.
func (p UserProfile) Clone() UserProfile {
	out := p
	out.Interests = cloneStrings(p.Interests)
	out.Goals = p.Goals.Clone()
	return out
}

// NewProfile builds the default profile for a freshly created identity.
func NewProfile(id Identity, now time.Time) UserProfile {
	now = now.UTC()
	return UserProfile{
		DisplayName:        id.FallbackDisplayName(),
		Email:              id.Email,
		Interests:          []string{},
		CommunicationStyle: StyleDescriptive,
		Goals:              Goals{Personal: []Goal{}, Professional: []Goal{}},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
