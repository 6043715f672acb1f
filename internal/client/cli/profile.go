package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/stores"
)

var errUsage = errors.New("usage")

// Status prints the session, the screen and anything waiting on the user.
func (a *App) Status(ctx context.Context) error {
	snap := a.engine.Auth.Snapshot()
	if snap.Identity == nil {
		printlnFn("Identity: none")
	} else {
		printlnFn("Identity:", snap.Identity.ID, snap.Identity.Email)
	}
	printlnFn("Screen:", a.engine.Screen())
	printlnFn("Theme:", a.engine.Theme.Mode(), "->", a.engine.Theme.Scheme())
	if pending := a.engine.Editor.Pending(); len(pending) > 0 {
		printlnFn("Unsaved:", pending)
	}
	if n := len(a.engine.Editor.Notices()); n > 0 {
		printlnFn(fmt.Sprintf("%d notice(s), see 'notices'", n))
	}
	return nil
}

// Show prints the loaded profile.
func (a *App) Show(ctx context.Context) error {
	p, err := a.currentProfile()
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	printlnFn("Name:      ", p.DisplayName)
	printlnFn("Email:     ", p.Email)
	printlnFn("Bio:       ", p.Bio)
	printlnFn("Interests: ", strings.Join(p.Interests, ", "))
	printlnFn("Style:     ", p.CommunicationStyle)
	printlnFn("Onboarded: ", p.HasCompletedOnboarding)
	for _, c := range []models.GoalCategory{models.GoalPersonal, models.GoalProfessional} {
		printlnFn(fmt.Sprintf("%s goals:", c))
		for i, g := range p.Goals.List(c) {
			mark := " "
			if g.Completed {
				mark = "x"
			}
			line := fmt.Sprintf("  %d. [%s] %s", i+1, mark, g.Title)
			if g.Description != "" {
				line += " - " + g.Description
			}
			printlnFn(line)
		}
	}
	return nil
}

// Set edits one field: set name|bio|style <value>. The change is committed
// after the debounce interval unless 'save' runs first.
func (a *App) Set(ctx context.Context, args []string) error {
	if len(args) < 1 {
		printlnFn("Usage: set name|bio|style <value>")
		return errUsage
	}
	value := strings.Join(args[1:], " ")

	var err error
	switch args[0] {
	case "name":
		err = a.engine.Editor.SetDisplayName(value)
	case "bio":
		if value == "" {
			if value, err = GetMultiline(a.reader, "Enter bio", a.out); err != nil {
				return err
			}
		}
		err = a.engine.Editor.SetBio(value)
	case "style":
		err = a.engine.Editor.SetCommunicationStyle(models.CommunicationStyle(value))
	default:
		printlnFn("Unknown field:", args[0])
		return errUsage
	}
	if err != nil {
		return a.report(ctx, "edit failed", err)
	}
	return nil
}

// Interest handles: interest add|rm <value>.
func (a *App) Interest(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn("Usage: interest add|rm <value>")
		return errUsage
	}
	value := strings.Join(args[1:], " ")

	var err error
	switch args[0] {
	case "add":
		err = a.engine.Editor.AddInterest(value)
	case "rm":
		err = a.engine.Editor.RemoveInterest(value)
	default:
		printlnFn("Usage: interest add|rm <value>")
		return errUsage
	}
	if err != nil {
		return a.report(ctx, "edit failed", err)
	}
	return nil
}

// Goal handles:
//
//	goal add personal|professional <title>[: description]
//	goal toggle personal|professional <n>
//	goal rm personal|professional <n>
//
// n is the 1-based position shown by 'profile'.
func (a *App) Goal(ctx context.Context, args []string) error {
	if len(args) < 3 {
		printlnFn("Usage: goal add|toggle|rm personal|professional <title or n>")
		return errUsage
	}
	cat, err := models.ParseGoalCategory(args[1])
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	if args[0] == "add" {
		title, desc, _ := strings.Cut(strings.Join(args[2:], " "), ":")
		g, err := a.engine.Editor.AddGoal(cat, strings.TrimSpace(title), strings.TrimSpace(desc))
		if err != nil {
			return a.report(ctx, "goal not added", err)
		}
		printlnFn("Added goal", g.Title)
		return nil
	}

	id, err := a.goalID(cat, args[2])
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	switch args[0] {
	case "toggle":
		err = a.engine.Editor.ToggleGoal(cat, id)
	case "rm":
		err = a.engine.Editor.DeleteGoal(cat, id)
	default:
		printlnFn("Usage: goal add|toggle|rm personal|professional <title or n>")
		return errUsage
	}
	if err != nil {
		return a.report(ctx, "goal not changed", err)
	}
	return nil
}

func (a *App) goalID(cat models.GoalCategory, pos string) (string, error) {
	p, err := a.currentProfile()
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(pos)
	list := p.Goals.List(cat)
	if err != nil || n < 1 || n > len(list) {
		return "", fmt.Errorf("no %s goal %q", cat, pos)
	}
	return list[n-1].ID, nil
}

// Save commits every unsaved field now.
func (a *App) Save(ctx context.Context) error {
	if _, err := a.engine.Editor.Save(ctx); err != nil {
		return a.report(ctx, "save failed", err)
	}
	printlnFn("Saved")
	return nil
}

// Onboard collects the onboarding answers and completes onboarding.
func (a *App) Onboard(ctx context.Context) error {
	var (
		data models.OnboardingData
		err  error
	)
	if data.DisplayName, err = getSimpleText(a.reader, "Display name", a.out); err != nil {
		return err
	}
	if data.Bio, err = GetMultiline(a.reader, "Bio", a.out); err != nil {
		return err
	}
	if data.Interests, err = GetList(a.reader, "Interests", a.out); err != nil {
		return err
	}
	style, err := getSimpleText(a.reader, "Communication style (descriptive, concise, funny)", a.out)
	if err != nil {
		return err
	}
	data.CommunicationStyle = models.CommunicationStyle(style)
	if data.PersonalGoals, err = GetGoals(a.reader, "Personal goals", a.out); err != nil {
		return err
	}
	if data.ProfessionalGoals, err = GetGoals(a.reader, "Professional goals", a.out); err != nil {
		return err
	}

	if _, err := a.engine.CompleteOnboarding(ctx, data); err != nil {
		return a.report(ctx, "onboarding failed", err)
	}
	printlnFn("Onboarding complete")
	return nil
}

// Theme handles: theme [light|dark|system|toggle]. Without an argument it
// prints the current mode.
func (a *App) Theme(ctx context.Context, args []string) error {
	var err error
	switch {
	case len(args) == 0:
	case args[0] == "toggle":
		err = a.engine.Theme.Toggle(ctx)
	default:
		var mode stores.ThemeMode
		if mode, err = stores.ParseThemeMode(args[0]); err == nil {
			err = a.engine.Theme.SetMode(ctx, mode)
		}
	}
	if err != nil {
		return a.report(ctx, "theme not changed", err)
	}
	printlnFn("Theme:", a.engine.Theme.Mode(), "->", a.engine.Theme.Scheme())
	return nil
}

// Notices lists failed commits, or dismisses one: notices [dismiss <id>].
func (a *App) Notices(ctx context.Context, args []string) error {
	if len(args) == 2 && args[0] == "dismiss" {
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil || !a.engine.Editor.Dismiss(id) {
			printlnFn("No notice", args[1])
			return errUsage
		}
		return nil
	}
	notices := a.engine.Editor.Notices()
	if len(notices) == 0 {
		printlnFn("No notices")
		return nil
	}
	for _, n := range notices {
		printlnFn(fmt.Sprintf("%d  %s  %s", n.ID, n.At.Format("15:04:05"), n.Message()))
	}
	return nil
}

// Reload drops the cached profile and fetches it again.
func (a *App) Reload(ctx context.Context) error {
	if err := a.engine.Reload(ctx); err != nil {
		return a.report(ctx, "reload failed", err)
	}
	a.settle()
	return nil
}
