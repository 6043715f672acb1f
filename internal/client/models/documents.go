package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
)

// Document keys shared by both halves of the profile.
const (
	keyCreatedAt = "createdAt"
	keyUpdatedAt = "updatedAt"
	keyEmail     = "email"
)

// PublicDocument is the schema of users/{id}.
type PublicDocument struct {
	DisplayName string
	Bio         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PrivateDocument is the schema of users/{id}/private/profile.
type PrivateDocument struct {
	Email                  string
	Interests              []string
	CommunicationStyle     CommunicationStyle
	Goals                  Goals
	HasCompletedOnboarding bool
	CreatedAt              time.Time
	UpdatedAt              time.Time

	// legacyBio is read from documents written by older clients that kept
	// the bio in the private half. It is never written back.
	legacyBio string
}

// Fields encodes the public document.
func (d PublicDocument) Fields() docstore.Fields {
	return docstore.Fields{
		string(FieldDisplayName): d.DisplayName,
		string(FieldBio):         d.Bio,
		keyCreatedAt:             EncodeTime(d.CreatedAt),
		keyUpdatedAt:             EncodeTime(d.UpdatedAt),
	}
}

// Fields encodes the private document.
func (d PrivateDocument) Fields() docstore.Fields {
	f := docstore.Fields{
		keyEmail:                            d.Email,
		string(FieldInterests):              encodeStrings(d.Interests),
		string(FieldCommunicationStyle):     string(d.CommunicationStyle),
		string(FieldGoals):                  encodeGoals(d.Goals),
		string(FieldHasCompletedOnboarding): d.HasCompletedOnboarding,
		keyCreatedAt:                        EncodeTime(d.CreatedAt),
		keyUpdatedAt:                        EncodeTime(d.UpdatedAt),
	}
	return f
}

// SplitProfile divides a profile into its two documents.
func SplitProfile(p UserProfile) (PublicDocument, PrivateDocument) {
	return PublicDocument{
			DisplayName: p.DisplayName,
			Bio:         p.Bio,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}, PrivateDocument{
			Email:                  p.Email,
			Interests:              cloneStrings(p.Interests),
			CommunicationStyle:     p.CommunicationStyle,
			Goals:                  p.Goals.Clone(),
			HasCompletedOnboarding: p.HasCompletedOnboarding,
			CreatedAt:              p.CreatedAt,
			UpdatedAt:              p.UpdatedAt,
		}
}

// SplitPatch encodes a patch as merge writes for the two documents.
// A nil map means that document is not touched. updatedAt is stamped on
// every document that is written. hasCompletedOnboarding is only ever
// written as true.
func SplitPatch(p ProfilePatch, updatedAt time.Time) (public, private docstore.Fields) {
	ts := EncodeTime(updatedAt)
	put := func(m *docstore.Fields, k string, v any) {
		if *m == nil {
			*m = docstore.Fields{keyUpdatedAt: ts}
		}
		(*m)[k] = v
	}

	if p.DisplayName != nil {
		put(&public, string(FieldDisplayName), *p.DisplayName)
	}
	if p.Bio != nil {
		put(&public, string(FieldBio), *p.Bio)
	}
	if p.Interests != nil {
		put(&private, string(FieldInterests), encodeStrings(*p.Interests))
	}
	if p.CommunicationStyle != nil {
		put(&private, string(FieldCommunicationStyle), string(*p.CommunicationStyle))
	}
	if p.Goals != nil {
		put(&private, string(FieldGoals), encodeGoals(*p.Goals))
	}
	if p.HasCompletedOnboarding != nil && *p.HasCompletedOnboarding {
		put(&private, string(FieldHasCompletedOnboarding), *p.HasCompletedOnboarding)
	}
	return public, private
}

// DecodePublic reads the public document. Missing fields take defaults and
// missing timestamps take now.
func DecodePublic(f docstore.Fields, now time.Time) (PublicDocument, error) {
	var d PublicDocument
	var err error

	d.DisplayName = strings.TrimSpace(stringField(f, string(FieldDisplayName)))
	if d.DisplayName == "" {
		d.DisplayName = DefaultDisplayName
	}
	d.Bio = stringField(f, string(FieldBio))
	if d.CreatedAt, err = timeField(f, keyCreatedAt, now); err != nil {
		return PublicDocument{}, err
	}
	if d.UpdatedAt, err = timeField(f, keyUpdatedAt, now); err != nil {
		return PublicDocument{}, err
	}
	return d, nil
}

// DecodePrivate reads the private document. Unknown communication styles
// become StyleDescriptive and goals stored as a flat list become personal goals.
func DecodePrivate(f docstore.Fields, now time.Time) (PrivateDocument, error) {
	var d PrivateDocument
	var err error

	d.Email = stringField(f, keyEmail)
	d.legacyBio = stringField(f, string(FieldBio))
	d.Interests = decodeStrings(f[string(FieldInterests)])
	d.CommunicationStyle, _ = ParseCommunicationStyle(stringField(f, string(FieldCommunicationStyle)))
	if d.Goals, err = decodeGoals(f[string(FieldGoals)]); err != nil {
		return PrivateDocument{}, err
	}
	if b, ok := f[string(FieldHasCompletedOnboarding)].(bool); ok {
		d.HasCompletedOnboarding = b
	}
	if d.CreatedAt, err = timeField(f, keyCreatedAt, now); err != nil {
		return PrivateDocument{}, err
	}
	if d.UpdatedAt, err = timeField(f, keyUpdatedAt, now); err != nil {
		return PrivateDocument{}, err
	}
	return d, nil
}

// Combine merges the two documents into one profile. UpdatedAt is the
// later of the two.
func Combine(pub PublicDocument, priv PrivateDocument) UserProfile {
	bio := pub.Bio
	if bio == "" {
		bio = priv.legacyBio
	}
	created := pub.CreatedAt
	if created.IsZero() {
		created = priv.CreatedAt
	}
	updated := pub.UpdatedAt
	if priv.UpdatedAt.After(updated) {
		updated = priv.UpdatedAt
	}
	name := pub.DisplayName
	if name == "" {
		name = DefaultDisplayName
	}
	interests := cloneStrings(priv.Interests)
	if interests == nil {
		interests = []string{}
	}
	return UserProfile{
		DisplayName:            name,
		Bio:                    bio,
		Email:                  priv.Email,
		Interests:              interests,
		CommunicationStyle:     priv.CommunicationStyle,
		Goals:                  priv.Goals.Clone(),
		CreatedAt:              created,
		UpdatedAt:              updated,
		HasCompletedOnboarding: priv.HasCompletedOnboarding,
	}
}

// EncodeTime renders t the way documents store timestamps.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// DecodeTime accepts time.Time, RFC 3339 strings, unix milliseconds and
// {seconds, nanos} maps.
func DecodeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", common.ErrInvalidDocument, t, err)
		}
		return parsed.UTC(), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, fmt.Errorf("%w: timestamp %v", common.ErrInvalidDocument, t)
		}
		return time.UnixMilli(int64(t)).UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case int:
		return time.UnixMilli(int64(t)).UTC(), nil
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: timestamp %q", common.ErrInvalidDocument, t.String())
		}
		return time.UnixMilli(ms).UTC(), nil
	case map[string]any:
		sec, okS := number(t["seconds"])
		if !okS {
			sec, okS = number(t["_seconds"])
		}
		if !okS {
			return time.Time{}, fmt.Errorf("%w: timestamp object without seconds", common.ErrInvalidDocument)
		}
		nanos, ok := number(t["nanos"])
		if !ok {
			nanos, _ = number(t["_nanoseconds"])
		}
		return time.Unix(int64(sec), int64(nanos)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp of type %T", common.ErrInvalidDocument, v)
}

func timeField(f docstore.Fields, key string, fallback time.Time) (time.Time, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return fallback.UTC(), nil
	}
	t, err := DecodeTime(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

func stringField(f docstore.Fields, key string) string {
	s, _ := f[key].(string)
	return s
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func encodeStrings(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func decodeStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return cloneStrings(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func encodeGoalList(goals []Goal) []any {
	out := make([]any, len(goals))
	for i, g := range goals {
		out[i] = map[string]any{
			"id":          g.ID,
			"title":       g.Title,
			"description": g.Description,
			"completed":   g.Completed,
		}
	}
	return out
}

func encodeGoals(g Goals) map[string]any {
	return map[string]any{
		string(GoalPersonal):     encodeGoalList(g.Personal),
		string(GoalProfessional): encodeGoalList(g.Professional),
	}
}

func decodeGoalList(v any) ([]Goal, error) {
	list, ok := v.([]any)
	if !ok {
		if v == nil {
			return []Goal{}, nil
		}
		return nil, fmt.Errorf("%w: goals list of type %T", common.ErrInvalidDocument, v)
	}
	out := make([]Goal, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		g := Goal{
			ID:          stringField(m, "id"),
			Title:       stringField(m, "title"),
			Description: stringField(m, "description"),
		}
		g.Completed, _ = m["completed"].(bool)
		out = append(out, g)
	}
	return out, nil
}

func decodeGoals(v any) (Goals, error) {
	switch g := v.(type) {
	case nil:
		return Goals{Personal: []Goal{}, Professional: []Goal{}}, nil
	case []any:
		personal, err := decodeGoalList(g)
		if err != nil {
			return Goals{}, err
		}
		return Goals{Personal: personal, Professional: []Goal{}}, nil
	case map[string]any:
		personal, err := decodeGoalList(g[string(GoalPersonal)])
		if err != nil {
			return Goals{}, err
		}
		professional, err := decodeGoalList(g[string(GoalProfessional)])
		if err != nil {
			return Goals{}, err
		}
		return Goals{Personal: personal, Professional: professional}, nil
	}
	return Goals{}, fmt.Errorf("%w: goals of type %T", common.ErrInvalidDocument, v)
}
