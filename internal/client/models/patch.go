package models

import "slices"

// Field names an editable profile field. Values match the remote document keys.
type Field string

const (
	FieldDisplayName            Field = "displayName"
	FieldBio                    Field = "bio"
	FieldInterests              Field = "interests"
	FieldCommunicationStyle     Field = "communicationStyle"
	FieldGoals                  Field = "goals"
	FieldHasCompletedOnboarding Field = "hasCompletedOnboarding"
)

// EditableFields are the fields the profile editor persists on its own.
var EditableFields = []Field{
	FieldDisplayName,
	FieldBio,
	FieldInterests,
	FieldCommunicationStyle,
	FieldGoals,
}

// IsPublic reports whether f is stored in the public document.
func (f Field) IsPublic() bool {
	return f == FieldDisplayName || f == FieldBio
}

// ProfilePatch is a partial profile update. Nil fields are absent.
type ProfilePatch struct {
	DisplayName            *string
	Bio                    *string
	Interests              *[]string
	CommunicationStyle     *CommunicationStyle
	Goals                  *Goals
	HasCompletedOnboarding *bool
}

func (p ProfilePatch) WithDisplayName(v string) ProfilePatch {
	p.DisplayName = &v
	return p
}

func (p ProfilePatch) WithBio(v string) ProfilePatch {
	p.Bio = &v
	return p
}

func (p ProfilePatch) WithInterests(v []string) ProfilePatch {
	c := cloneStrings(v)
	if c == nil {
		c = []string{}
	}
	p.Interests = &c
	return p
}

func (p ProfilePatch) WithCommunicationStyle(v CommunicationStyle) ProfilePatch {
	p.CommunicationStyle = &v
	return p
}

func (p ProfilePatch) WithGoals(v Goals) ProfilePatch {
	c := v.Clone()
	p.Goals = &c
	return p
}

func (p ProfilePatch) WithOnboardingComplete() ProfilePatch {
	v := true
	p.HasCompletedOnboarding = &v
	return p
}

// IsEmpty reports whether no field is present.
func (p ProfilePatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the present fields in a stable order.
func (p ProfilePatch) Fields() []Field {
	var out []Field
	if p.DisplayName != nil {
		out = append(out, FieldDisplayName)
	}
	if p.Bio != nil {
		out = append(out, FieldBio)
	}
	if p.Interests != nil {
		out = append(out, FieldInterests)
	}
	if p.CommunicationStyle != nil {
		out = append(out, FieldCommunicationStyle)
	}
	if p.Goals != nil {
		out = append(out, FieldGoals)
	}
	if p.HasCompletedOnboarding != nil {
		out = append(out, FieldHasCompletedOnboarding)
	}
	return out
}

// Has reports whether field f is present.
func (p ProfilePatch) Has(f Field) bool {
	return slices.Contains(p.Fields(), f)
}

// Merge returns p with every present field of other applied on top.
func (p ProfilePatch) Merge(other ProfilePatch) ProfilePatch {
	if other.DisplayName != nil {
		p.DisplayName = other.DisplayName
	}
	if other.Bio != nil {
		p.Bio = other.Bio
	}
	if other.Interests != nil {
		p.Interests = other.Interests
	}
	if other.CommunicationStyle != nil {
		p.CommunicationStyle = other.CommunicationStyle
	}
	if other.Goals != nil {
		p.Goals = other.Goals
	}
	if other.HasCompletedOnboarding != nil {
		p.HasCompletedOnboarding = other.HasCompletedOnboarding
	}
	return p
}

// FieldOf builds a patch carrying only field f, with the value taken from profile.
func FieldOf(profile UserProfile, f Field) ProfilePatch {
	var p ProfilePatch
	switch f {
	case FieldDisplayName:
		p = p.WithDisplayName(profile.DisplayName)
	case FieldBio:
		p = p.WithBio(profile.Bio)
	case FieldInterests:
		p = p.WithInterests(profile.Interests)
	case FieldCommunicationStyle:
		p = p.WithCommunicationStyle(profile.CommunicationStyle)
	case FieldGoals:
		p = p.WithGoals(profile.Goals)
	case FieldHasCompletedOnboarding:
		v := profile.HasCompletedOnboarding
		p.HasCompletedOnboarding = &v
	}
	return p
}

// Apply returns a copy of profile with the patch merged in.
// HasCompletedOnboarding only ever moves from false to true.
func (p ProfilePatch) Apply(profile UserProfile) UserProfile {
	out := profile.Clone()
	if p.DisplayName != nil {
		out.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		out.Bio = *p.Bio
	}
	if p.Interests != nil {
		out.Interests = cloneStrings(*p.Interests)
	}
	if p.CommunicationStyle != nil {
		out.CommunicationStyle = *p.CommunicationStyle
	}
	if p.Goals != nil {
		out.Goals = p.Goals.Clone()
	}
	if p.HasCompletedOnboarding != nil && *p.HasCompletedOnboarding {
		out.HasCompletedOnboarding = true
	}
	return out
}

// Equal reports whether field f has the same value in a and b.
func Equal(a, b UserProfile, f Field) bool {
	switch f {
	case FieldDisplayName:
		return a.DisplayName == b.DisplayName
	case FieldBio:
		return a.Bio == b.Bio
	case FieldInterests:
		return slices.Equal(a.Interests, b.Interests)
	case FieldCommunicationStyle:
		return a.CommunicationStyle == b.CommunicationStyle
	case FieldGoals:
		return slices.Equal(a.Goals.Personal, b.Goals.Personal) &&
			slices.Equal(a.Goals.Professional, b.Goals.Professional)
	case FieldHasCompletedOnboarding:
		return a.HasCompletedOnboarding == b.HasCompletedOnboarding
	}
	return false
}
