package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// GoalCategory selects one of the two goal lists.
type GoalCategory string

const (
	GoalPersonal     GoalCategory = "personal"
	GoalProfessional GoalCategory = "professional"
)

func ParseGoalCategory(s string) (GoalCategory, error) {
	switch GoalCategory(strings.ToLower(strings.TrimSpace(s))) {
	case GoalPersonal:
		return GoalPersonal, nil
	case GoalProfessional:
		return GoalProfessional, nil
	}
	return "", fmt.Errorf("unknown goal category %q", s)
}

type Goal struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
}

// NewGoal creates an open goal with a time-ordered id.
func NewGoal(title, description string) (Goal, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Goal{}, fmt.Errorf("goal id: %w", err)
	}
	return Goal{
		ID:          id.String(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}, nil
}

type Goals struct {
	Personal     []Goal `json:"personal"`
	Professional []Goal `json:"professional"`
}

func (g Goals) Clone() Goals {
	return Goals{
		Personal:     cloneGoals(g.Personal),
		Professional: cloneGoals(g.Professional),
	}
}

// Len is the total number of goals in both categories.
func (g Goals) Len() int {
	return len(g.Personal) + len(g.Professional)
}

// List returns the goals of one category.
func (g Goals) List(c GoalCategory) []Goal {
	if c == GoalProfessional {
		return g.Professional
	}
	return g.Personal
}

// Add returns a copy of g with goal appended to category c.
func (g Goals) Add(c GoalCategory, goal Goal) Goals {
	out := g.Clone()
	switch c {
	case GoalProfessional:
		out.Professional = append(out.Professional, goal)
	default:
		out.Personal = append(out.Personal, goal)
	}
	return out
}

// Toggle returns a copy of g with the completion of goal id flipped.
// ok is false when no such goal exists in category c.
func (g Goals) Toggle(c GoalCategory, id string) (Goals, bool) {
	out := g.Clone()
	list := out.List(c)
	i := slices.IndexFunc(list, func(x Goal) bool { return x.ID == id })
	if i < 0 {
		return g, false
	}
	list[i].Completed = !list[i].Completed
	return out, true
}

// Remove returns a copy of g without goal id in category c.
func (g Goals) Remove(c GoalCategory, id string) (Goals, bool) {
	out := g.Clone()
	match := func(x Goal) bool { return x.ID == id }
	switch c {
	case GoalProfessional:
		if !slices.ContainsFunc(out.Professional, match) {
			return g, false
		}
		out.Professional = slices.DeleteFunc(out.Professional, match)
	default:
		if !slices.ContainsFunc(out.Personal, match) {
			return g, false
		}
		out.Personal = slices.DeleteFunc(out.Personal, match)
	}
	return out, true
}

func cloneGoals(in []Goal) []Goal {
	if in == nil {
		return nil
	}
	out := make([]Goal, len(in))
	copy(out, in)
	return out
}
