// Package screen derives which top-level screen the client shows from the
// auth and profile stores.
package screen

import "github.com/dmitrijs2005/profilekeeper/internal/client/stores"

type Screen string

const (
	AuthLoading           Screen = "auth-loading"
	Login                 Screen = "login"
	PostSignupLoading     Screen = "post-signup-loading"
	PostOnboardingLoading Screen = "post-onboarding-loading"
	Onboarding            Screen = "onboarding"
	MainApp               Screen = "main-app"
)

// Inputs are the store fields the screen depends on.
type Inputs struct {
	AuthLoading            bool
	Authenticated          bool
	ProfileLoading         bool
	InitiatingAccess       bool
	AddingProfileInfo      bool
	HasCompletedOnboarding bool
	// ProfilePresent and ProfileOnboarded describe the profile itself.
	ProfilePresent   bool
	ProfileOnboarded bool
}

// Select returns the screen for in. The first matching rule wins.
func Select(in Inputs) Screen {
	switch {
	case in.AuthLoading || (in.Authenticated && in.ProfileLoading):
		return AuthLoading
	case !in.Authenticated:
		return Login
	case in.InitiatingAccess:
		return PostSignupLoading
	case in.AddingProfileInfo:
		return PostOnboardingLoading
	case !in.HasCompletedOnboarding || (in.ProfilePresent && !in.ProfileOnboarded):
		return Onboarding
	default:
		return MainApp
	}
}

// FromStores builds Inputs from store snapshots.
func FromStores(auth stores.AuthState, profile stores.ProfileState) Inputs {
	in := Inputs{
		AuthLoading:            auth.Loading,
		Authenticated:          auth.IsAuthenticated && auth.Identity != nil,
		ProfileLoading:         profile.Loading,
		InitiatingAccess:       profile.InitiatingAccess,
		AddingProfileInfo:      profile.AddingProfileInfo,
		HasCompletedOnboarding: profile.HasCompletedOnboarding,
	}
	if profile.Profile != nil {
		in.ProfilePresent = true
		in.ProfileOnboarded = profile.Profile.HasCompletedOnboarding
	}
	return in
}
