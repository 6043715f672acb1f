package models

import "strings"

// Identity is the authenticated principal as reported by the identity provider.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Anonymous   bool   `json:"anonymous,omitempty"`
}

// FallbackDisplayName picks the name a new profile starts with: the
// provider's display name, then the local part of the email, then
// DefaultDisplayName.
func (i Identity) FallbackDisplayName() string {
	if name := strings.TrimSpace(i.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(i.Email, "@"); ok && strings.TrimSpace(local) != "" {
		return strings.TrimSpace(local)
	}
	return DefaultDisplayName
}
