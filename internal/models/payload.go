package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Payload coercion rules
//
// Dashboard forms post loosely typed JSON. The types below turn that into
// explicit values at the decoding boundary:
//   - Flag follows truthiness: false, 0, "", and null are false, anything else is true.
//   - OptionalInt is Set only when the JSON value is a number.
//   - StringList and SkillList decode arrays; any other JSON value becomes an empty list.

type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Flag(truthy(raw))
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

type OptionalInt struct {
	Value int
	Set   bool
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if n, ok := raw.(float64); ok && !math.IsNaN(n) && !math.IsInf(n, 0) {
		o.Value = int(n)
		o.Set = true
		return nil
	}
	o.Value = 0
	o.Set = false
	return nil
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Or returns the value when set and fallback otherwise.
func (o OptionalInt) Or(fallback int) int {
	if o.Set {
		return o.Value
	}
	return fallback
}

type StringList []string

// UnmarshalJSON keeps string items as sent and stores numbers and booleans by
// their literal text. A non-list value becomes an empty list; nested objects
// or lists are rejected.
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*l = StringList{}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	out := make(StringList, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		switch {
		case len(item) == 0 || bytes.Equal(item, []byte("null")):
			continue
		case item[0] == '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
		case item[0] == '{' || item[0] == '[':
			return fmt.Errorf("list item %d must be a string", i)
		default:
			// numbers and true/false
			out = append(out, string(item))
		}
	}
	*l = out
	return nil
}

type SkillInput struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name" validate:"required"`
	Image string `json:"image" validate:"required"`
}

type SkillList []SkillInput

func (l *SkillList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*l = SkillList{}
		return nil
	}
	var items []SkillInput
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	if items == nil {
		items = []SkillInput{}
	}
	*l = items
	return nil
}

type ContactInput struct {
	Email    string `json:"email" validate:"required"`
	Linkedin string `json:"linkedin" validate:"required"`
	Github   string `json:"github" validate:"required"`
	Twitter  string `json:"twitter" validate:"required"`
}

type CustomizationsPatch struct {
	PrimaryColor            *string `json:"primaryColor,omitempty" validate:"omitempty,iscolor"`
	PrimaryColorDark        *string `json:"primaryColorDark,omitempty" validate:"omitempty,iscolor"`
	BackgroundColor         *string `json:"backgroundColor,omitempty" validate:"omitempty,iscolor"`
	BackgroundColorDark     *string `json:"backgroundColorDark,omitempty" validate:"omitempty,iscolor"`
	ForegroundColor         *string `json:"foregroundColor,omitempty" validate:"omitempty,iscolor"`
	ForegroundColorDark     *string `json:"foregroundColorDark,omitempty" validate:"omitempty,iscolor"`
	SecondaryColor          *string `json:"secondaryColor,omitempty" validate:"omitempty,iscolor"`
	SecondaryColorDark      *string `json:"secondaryColorDark,omitempty" validate:"omitempty,iscolor"`
	ButtonColor             *string `json:"buttonColor,omitempty" validate:"omitempty,iscolor"`
	ButtonColorDark         *string `json:"buttonColorDark,omitempty" validate:"omitempty,iscolor"`
	ButtonTextColor         *string `json:"buttonTextColor,omitempty" validate:"omitempty,iscolor"`
	ButtonTextColorDark     *string `json:"buttonTextColorDark,omitempty" validate:"omitempty,iscolor"`
	CardBackgroundColor     *string `json:"cardBackgroundColor,omitempty" validate:"omitempty,iscolor"`
	CardBackgroundColorDark *string `json:"cardBackgroundColorDark,omitempty" validate:"omitempty,iscolor"`
	LinkColor               *string `json:"linkColor,omitempty" validate:"omitempty,iscolor"`
	LinkColorDark           *string `json:"linkColorDark,omitempty" validate:"omitempty,iscolor"`
	NavbarColor             *string `json:"navbarColor,omitempty" validate:"omitempty,iscolor"`
	NavbarColorDark         *string `json:"navbarColorDark,omitempty" validate:"omitempty,iscolor"`
	FooterColor             *string `json:"footerColor,omitempty" validate:"omitempty,iscolor"`
	FooterColorDark         *string `json:"footerColorDark,omitempty" validate:"omitempty,iscolor"`
	BorderRadius            *string `json:"borderRadius,omitempty" validate:"omitempty,max=32"`
	FontFamily              *string `json:"fontFamily,omitempty" validate:"omitempty,max=64"`
}

// Fields lists the present tokens keyed by their stored field name.
func (c *CustomizationsPatch) Fields() map[string]string {
	out := map[string]string{}
	add := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	add("primaryColor", c.PrimaryColor)
	add("primaryColorDark", c.PrimaryColorDark)
	add("backgroundColor", c.BackgroundColor)
	add("backgroundColorDark", c.BackgroundColorDark)
	add("foregroundColor", c.ForegroundColor)
	add("foregroundColorDark", c.ForegroundColorDark)
	add("secondaryColor", c.SecondaryColor)
	add("secondaryColorDark", c.SecondaryColorDark)
	add("buttonColor", c.ButtonColor)
	add("buttonColorDark", c.ButtonColorDark)
	add("buttonTextColor", c.ButtonTextColor)
	add("buttonTextColorDark", c.ButtonTextColorDark)
	add("cardBackgroundColor", c.CardBackgroundColor)
	add("cardBackgroundColorDark", c.CardBackgroundColorDark)
	add("linkColor", c.LinkColor)
	add("linkColorDark", c.LinkColorDark)
	add("navbarColor", c.NavbarColor)
	add("navbarColorDark", c.NavbarColorDark)
	add("footerColor", c.FooterColor)
	add("footerColorDark", c.FooterColorDark)
	add("borderRadius", c.BorderRadius)
	add("fontFamily", c.FontFamily)
	return out
}

// ProjectInput is the body of a project create or a full project replace.
type ProjectInput struct {
	ID           string      `json:"_id,omitempty"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Type         ProjectType `json:"type"`
	Image        string      `json:"image"`
	Link         string      `json:"link"`
	Github       string      `json:"github"`
	Technologies StringList  `json:"technologies"`
	Featured     Flag        `json:"featured"`
	Order        OptionalInt `json:"order"`
}

type ExperienceInput struct {
	ID          string `json:"_id,omitempty"`
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type EducationInput struct {
	ID          string `json:"_id,omitempty"`
	Degree      string `json:"degree" validate:"required"`
	Institution string `json:"institution" validate:"required"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// PortfolioPatch is the body of every section update. Nil means the key was
// absent (or null) and the stored field stays as it is.
type PortfolioPatch struct {
	Theme        *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	HeroType     *string `json:"heroType,omitempty" validate:"omitempty,oneof=text image"`
	HeroTitle    *string `json:"heroTitle,omitempty"`
	HeroSubtitle *string `json:"heroSubtitle,omitempty"`
	HeroImage    *string `json:"heroImage,omitempty"`
	HeroTemplate *string `json:"heroTemplate,omitempty" validate:"omitempty,oneof=hero1 hero2 hero3"`

	AboutDescription  *string    `json:"aboutDescription,omitempty"`
	AboutProfileImage *string    `json:"aboutProfileImage,omitempty"`
	AboutTitle        *string    `json:"aboutTitle,omitempty"`
	AboutLocation     *string    `json:"aboutLocation,omitempty"`
	AboutBio          *string    `json:"aboutBio,omitempty"`
	Skills            *SkillList `json:"skills,omitempty"`

	Contact        *ContactInput        `json:"contact,omitempty"`
	Customizations *CustomizationsPatch `json:"customizations,omitempty"`

	Projects    *[]ProjectInput    `json:"projects,omitempty"`
	Experiences *[]ExperienceInput `json:"experiences,omitempty"`
	Education   *[]EducationInput  `json:"education,omitempty"`
}

func (p *PortfolioPatch) TouchesAbout() bool {
	return p.AboutDescription != nil || p.AboutProfileImage != nil || p.AboutTitle != nil ||
		p.AboutLocation != nil || p.AboutBio != nil || p.Skills != nil
}

func (p *PortfolioPatch) TouchesHero() bool {
	return p.HeroType != nil || p.HeroTitle != nil || p.HeroSubtitle != nil ||
		p.HeroImage != nil || p.HeroTemplate != nil
}

// FieldPatch is a field-level store update: dotted paths to set and paths to
// remove. Only keys present here are written.
type FieldPatch struct {
	Set   map[string]interface{}
	Unset []string
}

func NewFieldPatch() FieldPatch {
	return FieldPatch{Set: map[string]interface{}{}}
}

func (f FieldPatch) IsEmpty() bool {
	return len(f.Set) == 0 && len(f.Unset) == 0
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
}

// ParseDate accepts the date formats produced by the dashboard date inputs.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}
