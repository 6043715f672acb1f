package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email and password and creates an account. The
// engine then creates the profile documents and shows the post-signup
// screen for the pacing window.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.engine.Access.SignUp(ctx, email, string(password))
	if err != nil {
		return a.report(ctx, "sign-up failed", err)
	}
	printlnFn("Account created:", id.ID)
	a.settle()
	return nil
}

// Login prompts for an email and password and signs in.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.engine.Access.SignIn(ctx, email, string(password)); err != nil {
		return a.report(ctx, "login failed", err)
	}
	printlnFn("Login successful")
	a.settle()
	return nil
}

// Anonymous starts a session without an account.
func (a *App) Anonymous(ctx context.Context) error {
	id, err := a.engine.Access.SignInAnonymous(ctx)
	if err != nil {
		return a.report(ctx, "anonymous sign-in failed", err)
	}
	printlnFn("Signed in anonymously:", id.ID)
	a.settle()
	return nil
}

// Credential signs in with an externally issued credential, taken from
// args or prompted for.
func (a *App) Credential(ctx context.Context, args []string) error {
	token := strings.Join(args, "")
	if token == "" {
		var err error
		if token, err = getSimpleText(a.reader, "Enter credential", a.out); err != nil {
			return err
		}
	}
	id, err := a.engine.Access.SignInWithCredential(ctx, token)
	if err != nil {
		return a.report(ctx, "credential sign-in failed", err)
	}
	printlnFn("Signed in as", id.FallbackDisplayName())
	a.settle()
	return nil
}

// Logout ends the session. Unsaved edits are reported first since the
// engine drops them.
func (a *App) Logout(ctx context.Context) error {
	if pending := a.engine.Editor.Pending(); len(pending) > 0 {
		printlnFn("Discarding unsaved fields:", pending)
	}
	if err := a.engine.Access.Logout(ctx); err != nil {
		return a.report(ctx, "logout failed", err)
	}
	printlnFn("Logged out")
	return nil
}

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// report prints a user-facing message for err and returns it.
func (a *App) report(ctx context.Context, what string, err error) error {
	var authErr *common.AuthError
	switch {
	case errors.As(err, &authErr):
		printlnFn(fmt.Sprintf("%s: %s", what, authErr.Reason))
	case errors.Is(err, common.ErrNotAuthenticated):
		printlnFn(what + ": please log in first")
	default:
		printlnFn(fmt.Sprintf("%s: %v", what, err))
	}
	a.log.Debug(ctx, what, "error", err)
	return err
}
