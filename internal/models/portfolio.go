package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectType string

const (
	ProjectDevelopment ProjectType = "development"
	ProjectDesign      ProjectType = "design"
	ProjectOther       ProjectType = "other"
)

func (t ProjectType) Valid() bool {
	switch t {
	case ProjectDevelopment, ProjectDesign, ProjectOther:
		return true
	}
	return false
}

// RequiresImage reports whether projects of this type must carry an image.
func (t ProjectType) RequiresImage() bool {
	return t == ProjectDesign || t == ProjectOther
}

const (
	DefaultHeroTitle        = "Welcome to my Portfolio"
	DefaultHeroSubtitle     = "Welcome to my personal space on the internet"
	DefaultAboutTitle       = "Creative Individual"
	DefaultAboutDescription = "I am passionate about sharing my work and connecting with others through this platform."
)

var (
	ThemeModes    = []string{"light", "dark", "system"}
	HeroTypes     = []string{"text", "image"}
	HeroTemplates = []string{"hero1", "hero2", "hero3"}
)

type Skill struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Image string             `bson:"image" json:"image"`
}

// Project link and github are pointers so that they can be absent from the
// stored document for non-development projects.
type Project struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Type         ProjectType        `bson:"type" json:"type"`
	Image        string             `bson:"image" json:"image"`
	Link         *string            `bson:"link,omitempty" json:"link,omitempty"`
	Github       *string            `bson:"github,omitempty" json:"github,omitempty"`
	Technologies []string           `bson:"technologies" json:"technologies"`
	Featured     bool               `bson:"featured" json:"featured"`
	Order        int                `bson:"order" json:"order"`
}

type Experience struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Company     string             `bson:"company" json:"company"`
	Location    string             `bson:"location" json:"location"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     *time.Time         `bson:"endDate" json:"endDate"`
	Description string             `bson:"description" json:"description"`
}

type Education struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Degree      string             `bson:"degree" json:"degree"`
	Institution string             `bson:"institution" json:"institution"`
	Location    string             `bson:"location" json:"location"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	EndDate     *time.Time         `bson:"endDate" json:"endDate"`
	Description string             `bson:"description" json:"description"`
}

type Contact struct {
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	Linkedin string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Github   string `bson:"github,omitempty" json:"github,omitempty"`
	Twitter  string `bson:"twitter,omitempty" json:"twitter,omitempty"`
}

// Customizations holds the theme tokens. Every color has a light and a dark
// variant.
type Customizations struct {
	PrimaryColor            string `bson:"primaryColor" json:"primaryColor"`
	PrimaryColorDark        string `bson:"primaryColorDark" json:"primaryColorDark"`
	BackgroundColor         string `bson:"backgroundColor" json:"backgroundColor"`
	BackgroundColorDark     string `bson:"backgroundColorDark" json:"backgroundColorDark"`
	ForegroundColor         string `bson:"foregroundColor" json:"foregroundColor"`
	ForegroundColorDark     string `bson:"foregroundColorDark" json:"foregroundColorDark"`
	SecondaryColor          string `bson:"secondaryColor" json:"secondaryColor"`
	SecondaryColorDark      string `bson:"secondaryColorDark" json:"secondaryColorDark"`
	ButtonColor             string `bson:"buttonColor" json:"buttonColor"`
	ButtonColorDark         string `bson:"buttonColorDark" json:"buttonColorDark"`
	ButtonTextColor         string `bson:"buttonTextColor" json:"buttonTextColor"`
	ButtonTextColorDark     string `bson:"buttonTextColorDark" json:"buttonTextColorDark"`
	CardBackgroundColor     string `bson:"cardBackgroundColor" json:"cardBackgroundColor"`
	CardBackgroundColorDark string `bson:"cardBackgroundColorDark" json:"cardBackgroundColorDark"`
	LinkColor               string `bson:"linkColor" json:"linkColor"`
	LinkColorDark           string `bson:"linkColorDark" json:"linkColorDark"`
	NavbarColor             string `bson:"navbarColor" json:"navbarColor"`
	NavbarColorDark         string `bson:"navbarColorDark" json:"navbarColorDark"`
	FooterColor             string `bson:"footerColor" json:"footerColor"`
	FooterColorDark         string `bson:"footerColorDark" json:"footerColorDark"`
	BorderRadius            string `bson:"borderRadius" json:"borderRadius"`
	FontFamily              string `bson:"fontFamily" json:"fontFamily"`
}

func DefaultCustomizations() Customizations {
	return Customizations{
		PrimaryColor:            "#3b82f6",
		PrimaryColorDark:        "#60a5fa",
		BackgroundColor:         "#ffffff",
		BackgroundColorDark:     "#18181b",
		ForegroundColor:         "#111827",
		ForegroundColorDark:     "#f4f4f5",
		SecondaryColor:          "#6366f1",
		SecondaryColorDark:      "#818cf8",
		ButtonColor:             "#2563eb",
		ButtonColorDark:         "#3b82f6",
		ButtonTextColor:         "#ffffff",
		ButtonTextColorDark:     "#f4f4f5",
		CardBackgroundColor:     "#f3f4f6",
		CardBackgroundColorDark: "#27272a",
		LinkColor:               "#2563eb",
		LinkColorDark:           "#818cf8",
		NavbarColor:             "#ffffff",
		NavbarColorDark:         "#18181b",
		FooterColor:             "#f9fafb",
		FooterColorDark:         "#27272a",
		BorderRadius:            "0.5rem",
		FontFamily:              "Inter",
	}
}

type Portfolio struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User         primitive.ObjectID `bson:"user" json:"user"`
	Theme        string             `bson:"theme" json:"theme"`
	HeroType     string             `bson:"heroType" json:"heroType"`
	HeroTitle    string             `bson:"heroTitle" json:"heroTitle"`
	HeroSubtitle string             `bson:"heroSubtitle" json:"heroSubtitle"`
	HeroImage    string             `bson:"heroImage,omitempty" json:"heroImage,omitempty"`
	HeroTemplate string             `bson:"heroTemplate" json:"heroTemplate"`

	AboutDescription  string  `bson:"aboutDescription" json:"aboutDescription"`
	AboutProfileImage string  `bson:"aboutProfileImage,omitempty" json:"aboutProfileImage,omitempty"`
	AboutTitle        string  `bson:"aboutTitle" json:"aboutTitle"`
	AboutLocation     string  `bson:"aboutLocation,omitempty" json:"aboutLocation,omitempty"`
	AboutBio          string  `bson:"aboutBio,omitempty" json:"aboutBio,omitempty"`
	Skills            []Skill `bson:"skills" json:"skills"`

	Projects       []Project      `bson:"projects" json:"projects"`
	Experiences    []Experience   `bson:"experiences" json:"experiences"`
	Education      []Education    `bson:"education" json:"education"`
	Contact        Contact        `bson:"contact" json:"contact"`
	Customizations Customizations `bson:"customizations" json:"customizations"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewDefaultPortfolio builds the portfolio every account receives at
// registration.
func NewDefaultPortfolio(userID primitive.ObjectID, now time.Time) *Portfolio {
	return &Portfolio{
		User:             userID,
		Theme:            "light",
		HeroType:         "text",
		HeroTitle:        DefaultHeroTitle,
		HeroSubtitle:     DefaultHeroSubtitle,
		HeroTemplate:     "hero1",
		AboutTitle:       DefaultAboutTitle,
		AboutDescription: DefaultAboutDescription,
		Skills:           []Skill{},
		Projects:         []Project{},
		Experiences:      []Experience{},
		Education:        []Education{},
		Customizations:   DefaultCustomizations(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Normalize replaces nil lists with empty ones so that list reads never
// surface null.
func (p *Portfolio) Normalize() {
	if p.Skills == nil {
		p.Skills = []Skill{}
	}
	if p.Projects == nil {
		p.Projects = []Project{}
	}
	if p.Experiences == nil {
		p.Experiences = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	for i := range p.Projects {
		if p.Projects[i].Technologies == nil {
			p.Projects[i].Technologies = []string{}
		}
	}
}

// About is the About section slice returned by the scoped endpoint.
type About struct {
	AboutTitle        string  `json:"aboutTitle"`
	AboutLocation     string  `json:"aboutLocation"`
	AboutBio          string  `json:"aboutBio"`
	AboutDescription  string  `json:"aboutDescription"`
	AboutProfileImage string  `json:"aboutProfileImage"`
	Skills            []Skill `json:"skills"`
}

func (p *Portfolio) About() About {
	skills := p.Skills
	if skills == nil {
		skills = []Skill{}
	}
	return About{
		AboutTitle:        p.AboutTitle,
		AboutLocation:     p.AboutLocation,
		AboutBio:          p.AboutBio,
		AboutDescription:  p.AboutDescription,
		AboutProfileImage: p.AboutProfileImage,
		Skills:            skills,
	}
}

// PublicPortfolio is the visitor projection. The outer User field shadows the
// embedded owner reference when encoded to JSON.
type PublicPortfolio struct {
	Portfolio
	User PublicUser `json:"user"`
}
