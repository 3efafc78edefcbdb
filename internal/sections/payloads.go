package sections

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/cv-builder/internal/types"
)

// Payload is the per-type content of a section. Each Type has exactly one Payload implementation.
type Payload interface {
	// Type returns the section type this payload belongs to.
	Type() Type
	// Empty reports whether the payload carries no user content.
	Empty() bool
}

// PersonalInfo holds identity fields.
type PersonalInfo struct {
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Email     string `json:"email"`
	Phone     string `json:"telephone"`
	Address   string `json:"adresse,omitempty"`
	Title     string `json:"titre,omitempty"`
	PhotoURL  string `json:"photo,omitempty"`
}

// ExperienceList holds professional experiences.
type ExperienceList struct {
	Items []types.Experience `json:"items"`
}

// EducationList holds diplomas and trainings.
type EducationList struct {
	Items []types.Education `json:"items"`
}

// SkillList holds skill names.
type SkillList struct {
	Items []string `json:"items"`
}

// LanguageList holds spoken languages.
type LanguageList struct {
	Items []types.Language `json:"items"`
}

// HobbyList holds hobbies.
type HobbyList struct {
	Items []string `json:"items"`
}

// Project is one entry of a projects section.
type Project struct {
	Title        string   `json:"title"`
	Technologies []string `json:"technologies,omitempty"`
	Description  string   `json:"description,omitempty"`
	Link         string   `json:"link,omitempty"`
	Date         string   `json:"date,omitempty"`
}

// ProjectList holds projects.
type ProjectList struct {
	Items []Project `json:"items"`
}

// Certification is one obtained certification.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
	Link   string `json:"link,omitempty"`
}

// CertificationList holds certifications.
type CertificationList struct {
	Items []Certification `json:"items"`
}

// Publication is one published work.
type Publication struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher,omitempty"`
	Date      string `json:"date,omitempty"`
	Link      string `json:"link,omitempty"`
}

// PublicationList holds publications.
type PublicationList struct {
	Items []Publication `json:"items"`
}

// Reference is a professional contact.
type Reference struct {
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	Company  string `json:"company,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// ReferenceList holds references.
type ReferenceList struct {
	Items []Reference `json:"items"`
}

// Achievement is a notable accomplishment.
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// AchievementList holds achievements.
type AchievementList struct {
	Items []Achievement `json:"items"`
}

// Volunteering is one volunteer engagement.
type Volunteering struct {
	Role         string `json:"role"`
	Organization string `json:"organization"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	Description  string `json:"description,omitempty"`
}

// VolunteeringList holds volunteer engagements.
type VolunteeringList struct {
	Items []Volunteering `json:"items"`
}

// CustomItem is a free-form entry of a user-defined section.
type CustomItem struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Custom is a user-defined section with its own heading.
type Custom struct {
	Heading string       `json:"heading"`
	Items   []CustomItem `json:"items"`
}

func (PersonalInfo) Type() Type      { return TypePersonalInfo }
func (ExperienceList) Type() Type    { return TypeExperience }
func (EducationList) Type() Type     { return TypeEducation }
func (SkillList) Type() Type         { return TypeSkills }
func (LanguageList) Type() Type      { return TypeLanguages }
func (HobbyList) Type() Type         { return TypeHobbies }
func (ProjectList) Type() Type       { return TypeProjects }
func (CertificationList) Type() Type { return TypeCertifications }
func (PublicationList) Type() Type   { return TypePublications }
func (ReferenceList) Type() Type     { return TypeReferences }
func (AchievementList) Type() Type   { return TypeAchievements }
func (VolunteeringList) Type() Type  { return TypeVolunteering }
func (Custom) Type() Type            { return TypeCustom }

func (p PersonalInfo) Empty() bool {
	return p.FirstName == "" && p.LastName == "" && p.Email == "" && p.Phone == "" &&
		p.Address == "" && p.Title == "" && p.PhotoURL == ""
}
func (p ExperienceList) Empty() bool    { return len(p.Items) == 0 }
func (p EducationList) Empty() bool     { return len(p.Items) == 0 }
func (p SkillList) Empty() bool         { return len(p.Items) == 0 }
func (p LanguageList) Empty() bool      { return len(p.Items) == 0 }
func (p HobbyList) Empty() bool         { return len(p.Items) == 0 }
func (p ProjectList) Empty() bool       { return len(p.Items) == 0 }
func (p CertificationList) Empty() bool { return len(p.Items) == 0 }
func (p PublicationList) Empty() bool   { return len(p.Items) == 0 }
func (p ReferenceList) Empty() bool     { return len(p.Items) == 0 }
func (p AchievementList) Empty() bool   { return len(p.Items) == 0 }
func (p VolunteeringList) Empty() bool  { return len(p.Items) == 0 }
func (p Custom) Empty() bool            { return p.Heading == "" && len(p.Items) == 0 }

// DefaultPayload returns the empty payload for t.
func DefaultPayload(t Type) (Payload, error) {
	switch t {
	case TypePersonalInfo:
		return PersonalInfo{}, nil
	case TypeExperience:
		return ExperienceList{}, nil
	case TypeEducation:
		return EducationList{}, nil
	case TypeSkills:
		return SkillList{}, nil
	case TypeLanguages:
		return LanguageList{}, nil
	case TypeHobbies:
		return HobbyList{}, nil
	case TypeProjects:
		return ProjectList{}, nil
	case TypeCertifications:
		return CertificationList{}, nil
	case TypePublications:
		return PublicationList{}, nil
	case TypeReferences:
		return ReferenceList{}, nil
	case TypeAchievements:
		return AchievementList{}, nil
	case TypeVolunteering:
		return VolunteeringList{}, nil
	case TypeCustom:
		return Custom{}, nil
	default:
		return nil, &UnknownTypeError{Type: t}
	}
}

// DecodePayload decodes raw JSON into the payload type registered for t.
// A null or empty raw value yields the default payload.
func DecodePayload(t Type, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultPayload(t)
	}

	var (
		p   Payload
		err error
	)
	switch t {
	case TypePersonalInfo:
		p, err = decodeInto[PersonalInfo](raw)
	case TypeExperience:
		p, err = decodeInto[ExperienceList](raw)
	case TypeEducation:
		p, err = decodeInto[EducationList](raw)
	case TypeSkills:
		p, err = decodeInto[SkillList](raw)
	case TypeLanguages:
		p, err = decodeInto[LanguageList](raw)
	case TypeHobbies:
		p, err = decodeInto[HobbyList](raw)
	case TypeProjects:
		p, err = decodeInto[ProjectList](raw)
	case TypeCertifications:
		p, err = decodeInto[CertificationList](raw)
	case TypePublications:
		p, err = decodeInto[PublicationList](raw)
	case TypeReferences:
		p, err = decodeInto[ReferenceList](raw)
	case TypeAchievements:
		p, err = decodeInto[AchievementList](raw)
	case TypeVolunteering:
		p, err = decodeInto[VolunteeringList](raw)
	case TypeCustom:
		p, err = decodeInto[Custom](raw)
	default:
		return nil, &UnknownTypeError{Type: t}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return p, nil
}

func decodeInto[P Payload](raw json.RawMessage) (Payload, error) {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// FromDocument projects the DocumentData content of a built-in section type into its payload.
// Non built-in types have no projection and yield their default payload.
func FromDocument(t Type, doc *types.DocumentData) (Payload, error) {
	if doc == nil {
		return DefaultPayload(t)
	}
	switch t {
	case TypePersonalInfo:
		return PersonalInfo{
			FirstName: doc.FirstName,
			LastName:  doc.LastName,
			Email:     doc.Email,
			Phone:     doc.Phone,
			Address:   doc.Address,
			Title:     doc.Title,
			PhotoURL:  doc.PhotoURL,
		}, nil
	case TypeExperience:
		return ExperienceList{Items: doc.Experiences}, nil
	case TypeEducation:
		return EducationList{Items: doc.Education}, nil
	case TypeSkills:
		return SkillList{Items: doc.Skills}, nil
	case TypeLanguages:
		return LanguageList{Items: doc.Languages}, nil
	case TypeHobbies:
		return HobbyList{Items: doc.Hobbies}, nil
	default:
		return DefaultPayload(t)
	}
}
