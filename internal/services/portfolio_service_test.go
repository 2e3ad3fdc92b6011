package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sectionCounter map[string]int

func (c sectionCounter) SectionUpdated(section string) { c[section]++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func seedPortfolio(t *testing.T, store *storetest.MemoryStore) primitive.ObjectID {
	t.Helper()
	owner := primitive.NewObjectID()
	_, err := store.CreatePortfolio(context.Background(), models.NewDefaultPortfolio(owner, time.Now().UTC()))
	require.NoError(t, err)
	return owner
}

func newPortfolioFixture(t *testing.T) (*PortfolioService, *storetest.MemoryStore, primitive.ObjectID) {
	t.Helper()
	store := storetest.NewMemoryStore()
	owner := seedPortfolio(t, store)
	return NewPortfolioService(store, nil, discardLogger()), store, owner
}

func completeAbout() *models.PortfolioPatch {
	return &models.PortfolioPatch{
		AboutTitle:        strPtr("Product Designer"),
		AboutLocation:     strPtr("Accra"),
		AboutBio:          strPtr("Designs things"),
		AboutDescription:  strPtr("Ten years of interfaces"),
		AboutProfileImage: strPtr("https://img.example.com/me.png"),
	}
}

func TestUpdateHeroIsIdempotent(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()
	patch := &models.PortfolioPatch{
		HeroTitle:    strPtr("Hi, I'm Jane"),
		HeroSubtitle: strPtr("I build things"),
	}

	first, err := svc.UpdateHero(ctx, owner, patch)
	require.NoError(t, err)
	second, err := svc.UpdateHero(ctx, owner, patch)
	require.NoError(t, err)

	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
	assert.Equal(t, "Hi, I'm Jane", second.HeroTitle)
}

func TestUpdateHeroLeavesOtherSectionsAlone(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateContact(ctx, owner, &models.PortfolioPatch{Contact: &models.ContactInput{
		Email: "jane@example.com", Linkedin: "in/jane", Github: "jane", Twitter: "@jane",
	}})
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, owner, &models.ProjectInput{Title: "API", Description: "REST service"})
	require.NoError(t, err)
	before, err := svc.GetPortfolio(ctx, owner)
	require.NoError(t, err)

	// keys outside the hero section are ignored by the hero endpoint
	after, err := svc.UpdateHero(ctx, owner, &models.PortfolioPatch{
		HeroTitle: strPtr("New title"),
		Theme:     strPtr("dark"),
		Contact:   &models.ContactInput{Email: "x", Linkedin: "x", Github: "x", Twitter: "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "New title", after.HeroTitle)
	assert.Equal(t, before.Contact, after.Contact)
	assert.Equal(t, before.Theme, after.Theme)
	assert.Equal(t, before.Customizations, after.Customizations)
	assert.Equal(t, before.Projects, after.Projects)
	assert.Equal(t, before.AboutTitle, after.AboutTitle)
}

func TestUpdateThemeMergesCustomizationTokens(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()
	defaults := models.DefaultCustomizations()

	updated, err := svc.UpdateTheme(ctx, owner, &models.PortfolioPatch{
		Theme:          strPtr("dark"),
		Customizations: &models.CustomizationsPatch{PrimaryColor: strPtr("#ff0000")},
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Theme)
	assert.Equal(t, "#ff0000", updated.Customizations.PrimaryColor)
	assert.Equal(t, defaults.BackgroundColor, updated.Customizations.BackgroundColor)
	assert.Equal(t, defaults.FontFamily, updated.Customizations.FontFamily)

	_, err = svc.UpdateTheme(ctx, owner, &models.PortfolioPatch{
		Customizations: &models.CustomizationsPatch{LinkColor: strPtr("not-a-color")},
	})
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))

	_, err = svc.UpdateTheme(ctx, owner, &models.PortfolioPatch{Theme: strPtr("sepia")})
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))
}

func TestUpdateAboutChecksTheMergedSection(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	partial := completeAbout()
	partial.AboutLocation = nil
	_, err := svc.UpdateAbout(ctx, owner, partial)
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))
	assert.Contains(t, models.PublicMessage(err), "aboutLocation")

	about, err := svc.UpdateAbout(ctx, owner, completeAbout())
	require.NoError(t, err)
	assert.Equal(t, "Product Designer", about.AboutTitle)
	assert.Equal(t, "Accra", about.AboutLocation)

	// once stored, a single field can be patched on its own
	about, err = svc.UpdateAbout(ctx, owner, &models.PortfolioPatch{AboutBio: strPtr("Still designs")})
	require.NoError(t, err)
	assert.Equal(t, "Still designs", about.AboutBio)
	assert.Equal(t, "Accra", about.AboutLocation)

	_, err = svc.UpdateAbout(ctx, owner, &models.PortfolioPatch{AboutTitle: strPtr("  ")})
	require.Error(t, err)
	assert.Contains(t, models.PublicMessage(err), "aboutTitle")
}

func TestUpdateAboutRejectsIncompleteSkillsAsAWhole(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	payload := completeAbout()
	payload.Skills = &models.SkillList{
		{Name: "Go", Image: "https://img.example.com/go.png"},
		{Name: "Figma"},
	}
	_, err := svc.UpdateAbout(ctx, owner, payload)
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))

	stored, err := svc.GetAbout(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, stored.Skills)
	assert.Equal(t, models.DefaultAboutTitle, stored.AboutTitle)

	payload.Skills = &models.SkillList{{Name: "Go", Image: "https://img.example.com/go.png"}}
	about, err := svc.UpdateAbout(ctx, owner, payload)
	require.NoError(t, err)
	require.Len(t, about.Skills, 1)
	assert.False(t, about.Skills[0].ID.IsZero())
}

func TestUpdateHeroRequiresImageForImageType(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateHero(ctx, owner, &models.PortfolioPatch{HeroType: strPtr("image")})
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))

	updated, err := svc.UpdateHero(ctx, owner, &models.PortfolioPatch{
		HeroType:  strPtr("image"),
		HeroImage: strPtr("https://img.example.com/hero.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "image", updated.HeroType)
}

func TestUpdateContactRequiresEveryIdentifier(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateContact(ctx, owner, &models.PortfolioPatch{})
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))

	_, err = svc.UpdateContact(ctx, owner, &models.PortfolioPatch{Contact: &models.ContactInput{
		Email: "jane@example.com", Linkedin: "in/jane", Github: "jane",
	}})
	require.Error(t, err)
	assert.Contains(t, models.PublicMessage(err), "twitter")
}

func TestUpdateContactRejectsBlankIdentifiers(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateContact(ctx, owner, &models.PortfolioPatch{Contact: &models.ContactInput{
		Email: "jane@example.com", Linkedin: "   ", Github: "jane", Twitter: "\t",
	}})
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))
	assert.Equal(t, "missing required fields: linkedin, twitter", models.PublicMessage(err))

	updated, err := svc.UpdateContact(ctx, owner, &models.PortfolioPatch{Contact: &models.ContactInput{
		Email: " jane@example.com ", Linkedin: "in/jane", Github: "jane", Twitter: "@jane ",
	}})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", updated.Contact.Email)
	assert.Equal(t, "@jane", updated.Contact.Twitter)
}

func TestUpdateHeroTemplate(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	template, err := svc.UpdateHeroTemplate(ctx, owner, "hero3")
	require.NoError(t, err)
	assert.Equal(t, "hero3", template)

	_, err = svc.UpdateHeroTemplate(ctx, owner, "hero9")
	require.Error(t, err)
	assert.Equal(t, models.KindValidationFailed, models.KindOf(err))
}

func TestUpdatePortfolioBumpsUpdatedAtOnEmptyPayload(t *testing.T) {
	svc, store, owner := newPortfolioFixture(t)
	ctx := context.Background()

	before, err := svc.GetPortfolio(ctx, owner)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	after, err := svc.UpdatePortfolio(ctx, owner, &models.PortfolioPatch{})
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.HeroTitle, after.HeroTitle)
	require.Len(t, store.Patches, 1)
	assert.Empty(t, store.Patches[0].Set)
}

func TestUpdatePortfolioReplacesListsAndValidatesEachEntry(t *testing.T) {
	svc, _, owner := newPortfolioFixture(t)
	ctx := context.Background()

	_, err := svc.UpdatePortfolio(ctx, owner, &models.PortfolioPatch{
		Experiences: &[]models.ExperienceInput{
			{Title: "Engineer", Company: "Acme", StartDate: "2020-01-01"},
			{Title: "Lead", Company: "Acme", StartDate: "2022-01-01", EndDate: "2021-01-01"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, models.PublicMessage(err), "experience 2")

	updated, err := svc.UpdatePortfolio(ctx, owner, &models.PortfolioPatch{
		HeroTitle: strPtr("Everything at once"),
		Projects: &[]models.ProjectInput{
			{Title: "One", Description: "first"},
			{Title: "Two", Description: "second", Type: models.ProjectDesign, Image: "https://img.example.com/2.png"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Everything at once", updated.HeroTitle)
	require.Len(t, updated.Projects, 2)
	assert.Equal(t, 0, updated.Projects[0].Order)
	assert.Equal(t, 1, updated.Projects[1].Order)
	assert.Nil(t, updated.Projects[1].Link)
}

func TestSectionUpdatesRequireAPortfolio(t *testing.T) {
	store := storetest.NewMemoryStore()
	counter := sectionCounter{}
	svc := NewPortfolioService(store, counter, discardLogger())

	_, err := svc.UpdateHero(context.Background(), primitive.NewObjectID(), &models.PortfolioPatch{HeroTitle: strPtr("x")})
	require.Error(t, err)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	assert.Empty(t, counter)
}

func TestSectionUpdatesAreRecorded(t *testing.T) {
	store := storetest.NewMemoryStore()
	owner := seedPortfolio(t, store)
	counter := sectionCounter{}
	svc := NewPortfolioService(store, counter, discardLogger())

	_, err := svc.UpdateHero(context.Background(), owner, &models.PortfolioPatch{HeroTitle: strPtr("x")})
	require.NoError(t, err)
	_, err = svc.UpdateTheme(context.Background(), owner, &models.PortfolioPatch{Theme: strPtr("dark")})
	require.NoError(t, err)

	assert.Equal(t, sectionCounter{"hero": 1, "theme": 1}, counter)
}
