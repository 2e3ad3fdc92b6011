package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/folio/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SectionRecorder is notified after every successful portfolio write.
type SectionRecorder interface {
	SectionUpdated(section string)
}

type section string

const (
	sectionPortfolio section = "portfolio"
	sectionAbout     section = "about"
	sectionHero      section = "hero"
	sectionTheme     section = "theme"
	sectionContact   section = "contact"
)

type PortfolioService struct {
	repo     models.PortfolioRepo
	recorder SectionRecorder
	logger   *slog.Logger
}

func NewPortfolioService(repo models.PortfolioRepo, recorder SectionRecorder, logger *slog.Logger) *PortfolioService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortfolioService{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
	}
}

func (ps *PortfolioService) record(name string) {
	if ps.recorder != nil {
		ps.recorder.SectionUpdated(name)
	}
}

func (ps *PortfolioService) GetPortfolio(ctx context.Context, userID primitive.ObjectID) (*models.Portfolio, error) {
	return ps.repo.GetPortfolioByUser(ctx, userID)
}

func (ps *PortfolioService) GetAbout(ctx context.Context, userID primitive.ObjectID) (*models.About, error) {
	portfolio, err := ps.repo.GetPortfolioByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	about := portfolio.About()
	return &about, nil
}

// UpdatePortfolio applies a whole-portfolio PUT. Section rules apply to the
// sections the payload touches.
func (ps *PortfolioService) UpdatePortfolio(ctx context.Context, userID primitive.ObjectID, patch *models.PortfolioPatch) (*models.Portfolio, error) {
	return ps.applySection(ctx, userID, patch, sectionPortfolio)
}

func (ps *PortfolioService) UpdateAbout(ctx context.Context, userID primitive.ObjectID, patch *models.PortfolioPatch) (*models.About, error) {
	portfolio, err := ps.applySection(ctx, userID, patch, sectionAbout)
	if err != nil {
		return nil, err
	}
	about := portfolio.About()
	return &about, nil
}

func (ps *PortfolioService) UpdateHero(ctx context.Context, userID primitive.ObjectID, patch *models.PortfolioPatch) (*models.Portfolio, error) {
	return ps.applySection(ctx, userID, patch, sectionHero)
}

func (ps *PortfolioService) UpdateTheme(ctx context.Context, userID primitive.ObjectID, patch *models.PortfolioPatch) (*models.Portfolio, error) {
	return ps.applySection(ctx, userID, patch, sectionTheme)
}

func (ps *PortfolioService) UpdateContact(ctx context.Context, userID primitive.ObjectID, patch *models.PortfolioPatch) (*models.Portfolio, error) {
	if patch == nil || patch.Contact == nil {
		return nil, models.ValidationFailed("contact is required")
	}
	return ps.applySection(ctx, userID, patch, sectionContact)
}

func (ps *PortfolioService) UpdateHeroTemplate(ctx context.Context, userID primitive.ObjectID, template string) (string, error) {
	if !contains(models.HeroTemplates, template) {
		return "", models.ValidationFailed(fmt.Sprintf("heroTemplate must be one of [%s]", strings.Join(models.HeroTemplates, " ")))
	}
	portfolio, err := ps.applySection(ctx, userID, &models.PortfolioPatch{HeroTemplate: &template}, sectionHero)
	if err != nil {
		return "", err
	}
	return portfolio.HeroTemplate, nil
}

func (ps *PortfolioService) applySection(ctx context.Context, userID primitive.ObjectID, patch *models.PortfolioPatch, s section) (*models.Portfolio, error) {
	if patch == nil {
		patch = &models.PortfolioPatch{}
	}
	scoped := restrict(*patch, s)
	if err := models.ValidateStruct(&scoped); err != nil {
		return nil, err
	}
	if scoped.Contact != nil {
		contact, err := normalizeContact(*scoped.Contact)
		if err != nil {
			return nil, err
		}
		scoped.Contact = &contact
	}

	if scoped.TouchesAbout() || scoped.TouchesHero() {
		stored, err := ps.repo.GetPortfolioByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if scoped.TouchesAbout() {
			if err := validateAbout(stored, &scoped); err != nil {
				return nil, err
			}
		}
		if scoped.TouchesHero() {
			if err := validateHero(stored, &scoped); err != nil {
				return nil, err
			}
		}
	}

	fields, err := buildFieldPatch(&scoped)
	if err != nil {
		return nil, err
	}

	updated, err := ps.repo.PatchPortfolio(ctx, userID, fields)
	if err != nil {
		return nil, err
	}
	ps.record(string(s))
	ps.logger.Debug("portfolio section updated",
		slog.String("user_id", userID.Hex()),
		slog.String("section", string(s)),
		slog.Int("fields", len(fields.Set)),
	)
	return updated, nil
}

// restrict drops every key that does not belong to section s.
func restrict(p models.PortfolioPatch, s section) models.PortfolioPatch {
	var out models.PortfolioPatch
	switch s {
	case sectionPortfolio:
		return p
	case sectionAbout:
		out.AboutTitle = p.AboutTitle
		out.AboutLocation = p.AboutLocation
		out.AboutBio = p.AboutBio
		out.AboutDescription = p.AboutDescription
		out.AboutProfileImage = p.AboutProfileImage
		out.Skills = p.Skills
	case sectionHero:
		out.HeroType = p.HeroType
		out.HeroTitle = p.HeroTitle
		out.HeroSubtitle = p.HeroSubtitle
		out.HeroImage = p.HeroImage
		out.HeroTemplate = p.HeroTemplate
	case sectionTheme:
		out.Theme = p.Theme
		out.Customizations = p.Customizations
	case sectionContact:
		out.Contact = p.Contact
	}
	return out
}

func overlay(stored string, patch *string) string {
	if patch != nil {
		return *patch
	}
	return stored
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// validateAbout checks the About section as it will look after the patch.
func validateAbout(stored *models.Portfolio, p *models.PortfolioPatch) error {
	required := []struct {
		field string
		value string
	}{
		{"aboutTitle", overlay(stored.AboutTitle, p.AboutTitle)},
		{"aboutLocation", overlay(stored.AboutLocation, p.AboutLocation)},
		{"aboutBio", overlay(stored.AboutBio, p.AboutBio)},
		{"aboutDescription", overlay(stored.AboutDescription, p.AboutDescription)},
		{"aboutProfileImage", overlay(stored.AboutProfileImage, p.AboutProfileImage)},
	}
	var missing []string
	for _, r := range required {
		if blank(r.value) {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return models.ValidationFailed("missing required fields: " + strings.Join(missing, ", "))
	}

	if p.Skills != nil {
		for i, skill := range *p.Skills {
			if blank(skill.Name) || blank(skill.Image) {
				return models.ValidationFailed(fmt.Sprintf("skill %d must have both a name and an image", i+1))
			}
		}
	}
	return nil
}

// normalizeContact trims every identifier; each must still be non-empty.
func normalizeContact(c models.ContactInput) (models.ContactInput, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"email", &c.Email},
		{"linkedin", &c.Linkedin},
		{"github", &c.Github},
		{"twitter", &c.Twitter},
	}
	var missing []string
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return c, models.ValidationFailed("missing required fields: " + strings.Join(missing, ", "))
	}
	return c, nil
}

func validateHero(stored *models.Portfolio, p *models.PortfolioPatch) error {
	heroType := overlay(stored.HeroType, p.HeroType)
	if heroType == "image" && blank(overlay(stored.HeroImage, p.HeroImage)) {
		return models.ValidationFailed("heroImage is required when heroType is image")
	}
	return nil
}

// buildFieldPatch maps the present payload keys onto stored field paths.
// Customization tokens are set one by one so that a partial theme payload
// keeps the other tokens.
func buildFieldPatch(p *models.PortfolioPatch) (models.FieldPatch, error) {
	fields := models.NewFieldPatch()
	setString := func(key string, v *string) {
		if v != nil {
			fields.Set[key] = *v
		}
	}

	setString("theme", p.Theme)
	setString("heroType", p.HeroType)
	setString("heroTitle", p.HeroTitle)
	setString("heroSubtitle", p.HeroSubtitle)
	setString("heroImage", p.HeroImage)
	setString("heroTemplate", p.HeroTemplate)
	setString("aboutTitle", p.AboutTitle)
	setString("aboutLocation", p.AboutLocation)
	setString("aboutBio", p.AboutBio)
	setString("aboutDescription", p.AboutDescription)
	setString("aboutProfileImage", p.AboutProfileImage)

	if p.Skills != nil {
		skills := make([]models.Skill, 0, len(*p.Skills))
		for i := range *p.Skills {
			skill, err := buildSkill(&(*p.Skills)[i])
			if err != nil {
				return fields, err
			}
			skill.ID = keepOrNewID((*p.Skills)[i].ID)
			skills = append(skills, skill)
		}
		fields.Set["skills"] = skills
	}

	if p.Contact != nil {
		fields.Set["contact"] = models.Contact{
			Email:    p.Contact.Email,
			Linkedin: p.Contact.Linkedin,
			Github:   p.Contact.Github,
			Twitter:  p.Contact.Twitter,
		}
	}

	if p.Customizations != nil {
		for key, value := range p.Customizations.Fields() {
			fields.Set["customizations."+key] = value
		}
	}

	if p.Projects != nil {
		projects := make([]models.Project, 0, len(*p.Projects))
		for i := range *p.Projects {
			project, err := buildProject(&(*p.Projects)[i], i)
			if err != nil {
				return fields, withPosition(err, "project", i)
			}
			project.ID = keepOrNewID((*p.Projects)[i].ID)
			projects = append(projects, project)
		}
		fields.Set["projects"] = projects
	}

	if p.Experiences != nil {
		experiences := make([]models.Experience, 0, len(*p.Experiences))
		for i := range *p.Experiences {
			experience, err := buildExperience(&(*p.Experiences)[i])
			if err != nil {
				return fields, withPosition(err, "experience", i)
			}
			experience.ID = keepOrNewID((*p.Experiences)[i].ID)
			experiences = append(experiences, experience)
		}
		fields.Set["experiences"] = experiences
	}

	if p.Education != nil {
		education := make([]models.Education, 0, len(*p.Education))
		for i := range *p.Education {
			entry, err := buildEducation(&(*p.Education)[i])
			if err != nil {
				return fields, withPosition(err, "education entry", i)
			}
			entry.ID = keepOrNewID((*p.Education)[i].ID)
			education = append(education, entry)
		}
		fields.Set["education"] = education
	}

	return fields, nil
}

func withPosition(err error, label string, i int) error {
	return models.ValidationFailed(fmt.Sprintf("%s %d: %s", label, i+1, models.PublicMessage(err)))
}

func keepOrNewID(raw string) primitive.ObjectID {
	if id, err := primitive.ObjectIDFromHex(raw); err == nil {
		return id
	}
	return primitive.NewObjectID()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
