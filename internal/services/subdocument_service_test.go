package services

import (
	"context"
	"testing"

	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateProjectAppendsInOrder(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.CreateProject(ctx, owner, &models.ProjectInput{Title: title, Description: "d"})
		require.NoError(t, err)
	}

	projects, err := svc.ListProjects(ctx, owner)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	for i, p := range projects {
		assert.Equal(t, i, p.Order)
		assert.False(t, p.ID.IsZero())
	}
	assert.NotEqual(t, projects[0].ID, projects[1].ID)
	assert.Equal(t, "third", projects[2].Title)
}

func TestCreateProjectKeepsExplicitOrder(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)

	project, err := svc.CreateProject(context.Background(), owner, &models.ProjectInput{
		Title: "pinned", Description: "d", Order: models.OptionalInt{Value: 7, Set: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, project.Order)
}

func TestCreateProjectRetriesWhenTheListMoves(t *testing.T) {
	svc, store, owner := newPortfolioFixture(t)
	ctx := context.Background()

	store.StaleAppends = 1
	project, err := svc.CreateProject(ctx, owner, &models.ProjectInput{Title: "a", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, 0, project.Order)

	store.StaleAppends = maxAppendAttempts
	_, err = svc.CreateProject(ctx, owner, &models.ProjectInput{Title: "b", Description: "d"})
	require.Error(t, err)
	assert.Equal(t, models.KindConflict, models.KindOf(err))
}

func TestDesignProjectDropsDevelopmentFields(t *testing.T) {
	svc, store, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, owner, &models.ProjectInput{
		Title:        "Brand refresh",
		Description:  "Logo and type",
		Type:         models.ProjectDesign,
		Link:         "https://example.com",
		Github:       "https://github.com/jane/brand",
		Technologies: models.StringList{"figma"},
	})
	require.Error(t, err, "design projects need an image")
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))

	project, err := svc.CreateProject(ctx, owner, &models.ProjectInput{
		Title:        "Brand refresh",
		Description:  "Logo and type",
		Type:         models.ProjectDesign,
		Image:        "https://img.example.com/brand.png",
		Link:         "https://example.com",
		Github:       "https://github.com/jane/brand",
		Technologies: models.StringList{"figma"},
	})
	require.NoError(t, err)
	assert.Empty(t, project.Technologies)
	assert.NotNil(t, project.Technologies)
	assert.Nil(t, project.Link)
	assert.Nil(t, project.Github)

	raw := store.RawPortfolio(owner)
	stored := raw["projects"].(bson.A)[0]
	doc, err := bson.Marshal(stored)
	require.NoError(t, err)
	var fields bson.M
	require.NoError(t, bson.Unmarshal(doc, &fields))
	assert.NotContains(t, fields, "link")
	assert.NotContains(t, fields, "github")
	assert.Empty(t, fields["technologies"])
}

func TestUpdateProjectReplacesTheWholeRecord(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, owner, &models.ProjectInput{Title: "zero", Description: "d"})
	require.NoError(t, err)
	created, err := svc.CreateProject(ctx, owner, &models.ProjectInput{
		Title: "API", Description: "REST", Link: "https://api.example.com",
		Technologies: models.StringList{"go"}, Featured: true,
	})
	require.NoError(t, err)
	require.NotNil(t, created.Link)
	assert.Equal(t, 1, created.Order)

	updated, err := svc.UpdateProject(ctx, owner, created.ID.Hex(), &models.ProjectInput{
		Title: "API (case study)", Description: "REST", Type: models.ProjectOther,
		Image: "https://img.example.com/api.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "API (case study)", updated.Title)
	assert.Equal(t, models.ProjectOther, updated.Type)
	assert.Nil(t, updated.Link)
	assert.Empty(t, updated.Technologies)
	assert.False(t, updated.Featured)
	assert.Equal(t, 1, updated.Order, "order survives a replace without one")

	got, err := svc.GetProject(ctx, owner, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestExperienceDateInvariant(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.CreateExperience(ctx, owner, &models.ExperienceInput{
		Title: "Engineer", Company: "Acme", StartDate: "2022-05-01", EndDate: "2021-05-01",
	})
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))

	same, err := svc.CreateExperience(ctx, owner, &models.ExperienceInput{
		Title: "Contractor", Company: "Acme", StartDate: "2022-05-01", EndDate: "2022-05-01",
	})
	require.NoError(t, err)
	require.NotNil(t, same.EndDate)
	assert.True(t, same.EndDate.Equal(same.StartDate))

	_, err = svc.CreateExperience(ctx, owner, &models.ExperienceInput{Title: "Engineer", StartDate: "2022-05-01"})
	require.Error(t, err)
	assert.Contains(t, models.PublicMessage(err), "company")

	_, err = svc.CreateExperience(ctx, owner, &models.ExperienceInput{Title: "Engineer", Company: "Acme", StartDate: "yesterday"})
	require.Error(t, err)
	assert.Contains(t, models.PublicMessage(err), "startDate")
}

func TestExperienceLifecycle(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	created, err := svc.CreateExperience(ctx, owner, &models.ExperienceInput{
		Title: "Engineer", Company: "Acme", StartDate: "2020-01", EndDate: "2021-06",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateExperience(ctx, owner, created.ID.Hex(), &models.ExperienceInput{
		Title: "Senior Engineer", Company: "Acme", StartDate: "2020-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Senior Engineer", updated.Title)
	assert.Nil(t, updated.EndDate)

	require.NoError(t, svc.DeleteExperience(ctx, owner, created.ID.Hex()))
	list, err := svc.ListExperiences(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.DeleteExperience(ctx, owner, created.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	assert.Equal(t, "experience not found", models.PublicMessage(err))
}

func TestEducationLifecycle(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.CreateEducation(ctx, owner, &models.EducationInput{Degree: "BSc", StartDate: "2015-09-01"})
	require.Error(t, err)
	assert.Contains(t, models.PublicMessage(err), "institution")

	created, err := svc.CreateEducation(ctx, owner, &models.EducationInput{
		Degree: "BSc", Institution: "KNUST", StartDate: "2015-09-01", EndDate: "2019-06-30",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEducation(ctx, owner, created.ID.Hex(), &models.EducationInput{
		Degree: "BSc Computer Science", Institution: "KNUST", StartDate: "2015-09-01", EndDate: "2019-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "BSc Computer Science", updated.Degree)

	_, err = svc.UpdateEducation(ctx, owner, primitive.NewObjectID().Hex(), &models.EducationInput{
		Degree: "MSc", Institution: "KNUST", StartDate: "2020-09-01",
	})
	require.Error(t, err)
	assert.Equal(t, "education entry not found", models.PublicMessage(err))

	require.NoError(t, svc.DeleteEducation(ctx, owner, created.ID.Hex()))
}

func TestSkillLifecycle(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.CreateSkill(ctx, owner, &models.SkillInput{Name: "Go"})
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))

	skill, err := svc.CreateSkill(ctx, owner, &models.SkillInput{Name: "Go", Image: "https://img.example.com/go.png"})
	require.NoError(t, err)

	updated, err := svc.UpdateSkill(ctx, owner, skill.ID.Hex(), &models.SkillInput{Name: "Golang", Image: "https://img.example.com/go.png"})
	require.NoError(t, err)
	assert.Equal(t, "Golang", updated.Name)

	skills, err := svc.ListSkills(ctx, owner)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "Golang", skills[0].Name)

	require.NoError(t, svc.DeleteSkill(ctx, owner, skill.ID.Hex()))
}

func TestSubdocumentsAreScopedToTheOwner(t *testing.T) {
	store := storetest.NewMemoryStore()
	alice := seedPortfolio(t, store)
	bob := seedPortfolio(t, store)
	svc := NewPortfolioService(store, nil, discardLogger())
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, alice, &models.ProjectInput{Title: "secret", Description: "d"})
	require.NoError(t, err)
	id := project.ID.Hex()

	_, err = svc.GetProject(ctx, bob, id)
	assert.True(t, storetest.IsNotFound(err))

	_, err = svc.UpdateProject(ctx, bob, id, &models.ProjectInput{Title: "taken", Description: "d"})
	assert.True(t, storetest.IsNotFound(err))

	err = svc.DeleteProject(ctx, bob, id)
	assert.True(t, storetest.IsNotFound(err))

	got, err := svc.GetProject(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Title)
}

func TestSubdocumentIDsAreValidated(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	err := svc.DeleteProject(ctx, owner, "")
	require.Error(t, err)
	assert.Equal(t, "project ID is required", models.PublicMessage(err))

	_, err = svc.GetProject(ctx, owner, "not-an-id")
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))
}

func TestListsOfAFreshPortfolioAreEmpty(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	projects, err := svc.ListProjects(ctx, owner)
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)

	education, err := svc.ListEducation(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, education)
}
