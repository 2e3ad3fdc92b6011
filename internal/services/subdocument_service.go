package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/joshua-takyi/folio/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// A guarded append is retried when another write changed the list length
// between the read and the push.
const maxAppendAttempts = 3

func parseItemID(label, raw string) (primitive.ObjectID, error) {
	if strings.TrimSpace(raw) == "" {
		return primitive.NilObjectID, models.ValidationFailed(label + " ID is required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.ValidationFailed("invalid " + label + " ID")
	}
	return id, nil
}

// buildProject validates a project payload and applies the type rules:
// only development projects keep link, github and technologies.
func buildProject(in *models.ProjectInput, fallbackOrder int) (models.Project, error) {
	projectType := in.Type
	if projectType == "" {
		projectType = models.ProjectDevelopment
	}
	if !projectType.Valid() {
		return models.Project{}, models.ValidationFailed("type must be one of [development design other]")
	}
	if blank(in.Title) {
		return models.Project{}, models.ValidationFailed("project title is required")
	}
	if blank(in.Description) {
		return models.Project{}, models.ValidationFailed("project description is required")
	}
	if projectType.RequiresImage() && blank(in.Image) {
		return models.Project{}, models.ValidationFailed("project image is required for design and other projects")
	}

	project := models.Project{
		Title:        in.Title,
		Description:  in.Description,
		Type:         projectType,
		Image:        in.Image,
		Technologies: []string{},
		Featured:     bool(in.Featured),
		Order:        in.Order.Or(fallbackOrder),
	}
	if projectType == models.ProjectDevelopment {
		link, github := in.Link, in.Github
		project.Link = &link
		project.Github = &github
		if in.Technologies != nil {
			project.Technologies = []string(in.Technologies)
		}
	}
	return project, nil
}

// projectReplaceFields renders a full project replace. The stored order is
// kept when the payload carries no numeric order.
func projectReplaceFields(project models.Project, orderSet bool) models.FieldPatch {
	fields := models.NewFieldPatch()
	fields.Set["title"] = project.Title
	fields.Set["description"] = project.Description
	fields.Set["type"] = project.Type
	fields.Set["image"] = project.Image
	fields.Set["technologies"] = project.Technologies
	fields.Set["featured"] = project.Featured
	if orderSet {
		fields.Set["order"] = project.Order
	}
	if project.Type == models.ProjectDevelopment {
		fields.Set["link"] = *project.Link
		fields.Set["github"] = *project.Github
	} else {
		fields.Unset = []string{"link", "github"}
	}
	return fields
}

func buildExperience(in *models.ExperienceInput) (models.Experience, error) {
	if err := models.ValidateStruct(in); err != nil {
		return models.Experience{}, err
	}
	start, end, err := parseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return models.Experience{}, err
	}
	return models.Experience{
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		StartDate:   start,
		EndDate:     end,
		Description: in.Description,
	}, nil
}

func experienceReplaceFields(e models.Experience) models.FieldPatch {
	fields := models.NewFieldPatch()
	fields.Set["title"] = e.Title
	fields.Set["company"] = e.Company
	fields.Set["location"] = e.Location
	fields.Set["startDate"] = e.StartDate
	fields.Set["endDate"] = e.EndDate
	fields.Set["description"] = e.Description
	return fields
}

func buildEducation(in *models.EducationInput) (models.Education, error) {
	if err := models.ValidateStruct(in); err != nil {
		return models.Education{}, err
	}
	start, end, err := parseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return models.Education{}, err
	}
	return models.Education{
		Degree:      in.Degree,
		Institution: in.Institution,
		Location:    in.Location,
		StartDate:   start,
		EndDate:     end,
		Description: in.Description,
	}, nil
}

func educationReplaceFields(e models.Education) models.FieldPatch {
	fields := models.NewFieldPatch()
	fields.Set["degree"] = e.Degree
	fields.Set["institution"] = e.Institution
	fields.Set["location"] = e.Location
	fields.Set["startDate"] = e.StartDate
	fields.Set["endDate"] = e.EndDate
	fields.Set["description"] = e.Description
	return fields
}

func buildSkill(in *models.SkillInput) (models.Skill, error) {
	if blank(in.Name) || blank(in.Image) {
		return models.Skill{}, models.ValidationFailed("skill must have both a name and an image")
	}
	return models.Skill{Name: in.Name, Image: in.Image}, nil
}

// parseDateRange enforces that an end date never precedes the start date.
// Equal dates are accepted.
func parseDateRange(rawStart, rawEnd string) (start time.Time, end *time.Time, err error) {
	start, err = models.ParseDate(rawStart)
	if err != nil {
		return start, nil, models.ValidationFailed("startDate must be a valid date")
	}
	if blank(rawEnd) {
		return start, nil, nil
	}
	parsed, err := models.ParseDate(rawEnd)
	if err != nil {
		return start, nil, models.ValidationFailed("endDate must be a valid date")
	}
	if parsed.Before(start) {
		return start, nil, models.ValidationFailed("endDate must not be before startDate")
	}
	return start, &parsed, nil
}

// Projects

func (ps *PortfolioService) ListProjects(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	portfolio, err := ps.repo.GetPortfolioByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return portfolio.Projects, nil
}

func (ps *PortfolioService) GetProject(ctx context.Context, userID primitive.ObjectID, rawID string) (*models.Project, error) {
	id, err := parseItemID("project", rawID)
	if err != nil {
		return nil, err
	}
	portfolio, err := ps.repo.GetPortfolioByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range portfolio.Projects {
		if portfolio.Projects[i].ID == id {
			return &portfolio.Projects[i], nil
		}
	}
	return nil, models.NotFound("project not found")
}

// CreateProject appends a project. Without an explicit order the project
// takes the append position, guarded against concurrent appends.
func (ps *PortfolioService) CreateProject(ctx context.Context, userID primitive.ObjectID, in *models.ProjectInput) (*models.Project, error) {
	if _, err := buildProject(in, 0); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		expectedLen := -1
		fallback := 0
		if !in.Order.Set {
			stored, err := ps.repo.GetPortfolioByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			expectedLen = len(stored.Projects)
			fallback = expectedLen
		}

		project, err := buildProject(in, fallback)
		if err != nil {
			return nil, err
		}
		project.ID = primitive.NewObjectID()

		updated, err := ps.repo.AppendSubdocument(ctx, userID, models.SectionProjects, project, expectedLen)
		if errors.Is(err, models.ErrSectionChanged) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ps.record("projects")
		return findProject(updated, project)
	}
	return nil, models.Conflict("projects changed while saving, please retry")
}

func findProject(p *models.Portfolio, fallback models.Project) (*models.Project, error) {
	for i := range p.Projects {
		if p.Projects[i].ID == fallback.ID {
			return &p.Projects[i], nil
		}
	}
	return &fallback, nil
}

func (ps *PortfolioService) UpdateProject(ctx context.Context, userID primitive.ObjectID, rawID string, in *models.ProjectInput) (*models.Project, error) {
	id, err := parseItemID("project", rawID)
	if err != nil {
		return nil, err
	}
	project, err := buildProject(in, 0)
	if err != nil {
		return nil, err
	}
	updated, err := ps.repo.ReplaceSubdocument(ctx, userID, models.SectionProjects, id, projectReplaceFields(project, in.Order.Set))
	if err != nil {
		return nil, err
	}
	ps.record("projects")
	project.ID = id
	return findProject(updated, project)
}

func (ps *PortfolioService) DeleteProject(ctx context.Context, userID primitive.ObjectID, rawID string) error {
	return ps.removeItem(ctx, userID, models.SectionProjects, "project", rawID)
}

func (ps *PortfolioService) removeItem(ctx context.Context, userID primitive.ObjectID, s models.Section, label, rawID string) error {
	id, err := parseItemID(label, rawID)
	if err != nil {
		return err
	}
	if _, err := ps.repo.RemoveSubdocument(ctx, userID, s, id); err != nil {
		return err
	}
	ps.record(s.Field)
	return nil
}

// Experiences

func (ps *PortfolioService) ListExperiences(ctx context.Context, userID primitive.ObjectID) ([]models.Experience, error) {
	portfolio, err := ps.repo.GetPortfolioByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return portfolio.Experiences, nil
}

func (ps *PortfolioService) CreateExperience(ctx context.Context, userID primitive.ObjectID, in *models.ExperienceInput) (*models.Experience, error) {
	experience, err := buildExperience(in)
	if err != nil {
		return nil, err
	}
	experience.ID = primitive.NewObjectID()
	if _, err := ps.repo.AppendSubdocument(ctx, userID, models.SectionExperiences, experience, -1); err != nil {
		return nil, err
	}
	ps.record("experiences")
	return &experience, nil
}

func (ps *PortfolioService) UpdateExperience(ctx context.Context, userID primitive.ObjectID, rawID string, in *models.ExperienceInput) (*models.Experience, error) {
	id, err := parseItemID("experience", rawID)
	if err != nil {
		return nil, err
	}
	experience, err := buildExperience(in)
	if err != nil {
		return nil, err
	}
	updated, err := ps.repo.ReplaceSubdocument(ctx, userID, models.SectionExperiences, id, experienceReplaceFields(experience))
	if err != nil {
		return nil, err
	}
	ps.record("experiences")
	for i := range updated.Experiences {
		if updated.Experiences[i].ID == id {
			return &updated.Experiences[i], nil
		}
	}
	experience.ID = id
	return &experience, nil
}

func (ps *PortfolioService) DeleteExperience(ctx context.Context, userID primitive.ObjectID, rawID string) error {
	return ps.removeItem(ctx, userID, models.SectionExperiences, "experience", rawID)
}

// Education

func (ps *PortfolioService) ListEducation(ctx context.Context, userID primitive.ObjectID) ([]models.Education, error) {
	portfolio, err := ps.repo.GetPortfolioByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return portfolio.Education, nil
}

func (ps *PortfolioService) CreateEducation(ctx context.Context, userID primitive.ObjectID, in *models.EducationInput) (*models.Education, error) {
	entry, err := buildEducation(in)
	if err != nil {
		return nil, err
	}
	entry.ID = primitive.NewObjectID()
	if _, err := ps.repo.AppendSubdocument(ctx, userID, models.SectionEducation, entry, -1); err != nil {
		return nil, err
	}
	ps.record("education")
	return &entry, nil
}

func (ps *PortfolioService) UpdateEducation(ctx context.Context, userID primitive.ObjectID, rawID string, in *models.EducationInput) (*models.Education, error) {
	id, err := parseItemID("education", rawID)
	if err != nil {
		return nil, err
	}
	entry, err := buildEducation(in)
	if err != nil {
		return nil, err
	}
	updated, err := ps.repo.ReplaceSubdocument(ctx, userID, models.SectionEducation, id, educationReplaceFields(entry))
	if err != nil {
		return nil, err
	}
	ps.record("education")
	for i := range updated.Education {
		if updated.Education[i].ID == id {
			return &updated.Education[i], nil
		}
	}
	entry.ID = id
	return &entry, nil
}

func (ps *PortfolioService) DeleteEducation(ctx context.Context, userID primitive.ObjectID, rawID string) error {
	return ps.removeItem(ctx, userID, models.SectionEducation, "education", rawID)
}

// Skills

func (ps *PortfolioService) ListSkills(ctx context.Context, userID primitive.ObjectID) ([]models.Skill, error) {
	portfolio, err := ps.repo.GetPortfolioByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return portfolio.Skills, nil
}

func (ps *PortfolioService) CreateSkill(ctx context.Context, userID primitive.ObjectID, in *models.SkillInput) (*models.Skill, error) {
	skill, err := buildSkill(in)
	if err != nil {
		return nil, err
	}
	skill.ID = primitive.NewObjectID()
	if _, err := ps.repo.AppendSubdocument(ctx, userID, models.SectionSkills, skill, -1); err != nil {
		return nil, err
	}
	ps.record("skills")
	return &skill, nil
}

func (ps *PortfolioService) UpdateSkill(ctx context.Context, userID primitive.ObjectID, rawID string, in *models.SkillInput) (*models.Skill, error) {
	id, err := parseItemID("skill", rawID)
	if err != nil {
		return nil, err
	}
	skill, err := buildSkill(in)
	if err != nil {
		return nil, err
	}
	fields := models.NewFieldPatch()
	fields.Set["name"] = skill.Name
	fields.Set["image"] = skill.Image
	if _, err := ps.repo.ReplaceSubdocument(ctx, userID, models.SectionSkills, id, fields); err != nil {
		return nil, err
	}
	ps.record("skills")
	skill.ID = id
	return &skill, nil
}

func (ps *PortfolioService) DeleteSkill(ctx context.Context, userID primitive.ObjectID, rawID string) error {
	return ps.removeItem(ctx, userID, models.SectionSkills, "skill", rawID)
}
