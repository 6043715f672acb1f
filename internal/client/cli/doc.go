// Package cli provides profilectl, the interactive profilekeeper client.
//
// It opens the profile engine from configuration and runs a REPL on top of
// it. Typical flow: sign up or sign in, answer the onboarding questions,
// then edit the profile. Field edits are committed automatically once they
// have been stable for the debounce interval; 'save' commits everything
// at once.
//
// Key features:
//   - Register / Login / anonymous and credential sign-in / Logout
//   - Onboarding
//   - Profile view and field edits (name, bio, style, interests, goals)
//   - Notices for failed commits
//   - Theme preference and runtime log level
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
