package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Section names a list-valued part of a portfolio and the label used in
// error messages for its elements.
type Section struct {
	Field string
	Label string
}

var (
	SectionProjects    = Section{Field: "projects", Label: "project"}
	SectionExperiences = Section{Field: "experiences", Label: "experience"}
	SectionEducation   = Section{Field: "education", Label: "education entry"}
	SectionSkills      = Section{Field: "skills", Label: "skill"}
)

// ErrSectionChanged is returned by a guarded append when the list length no
// longer matches the one the caller computed its defaults from.
var ErrSectionChanged = errors.New("section changed during update")

type PortfolioRepo interface {
	CreatePortfolio(ctx context.Context, portfolio *Portfolio) (*Portfolio, error)
	GetPortfolioByUser(ctx context.Context, userID primitive.ObjectID) (*Portfolio, error)
	PatchPortfolio(ctx context.Context, userID primitive.ObjectID, patch FieldPatch) (*Portfolio, error)
	AppendSubdocument(ctx context.Context, userID primitive.ObjectID, section Section, item interface{}, expectedLen int) (*Portfolio, error)
	ReplaceSubdocument(ctx context.Context, userID primitive.ObjectID, section Section, itemID primitive.ObjectID, patch FieldPatch) (*Portfolio, error)
	RemoveSubdocument(ctx context.Context, userID primitive.ObjectID, section Section, itemID primitive.ObjectID) (*Portfolio, error)
	DeletePortfolio(ctx context.Context, userID primitive.ObjectID) error
}

var portfolioNotFound = NotFound("portfolio not found")

func (mdb *MongodbRepo) CreatePortfolio(ctx context.Context, portfolio *Portfolio) (*Portfolio, error) {
	col, err := mdb.GetCollection(ctx, PortfoliosColName)
	if err != nil {
		return nil, Upstream("failed to create portfolio", err)
	}
	if portfolio.ID.IsZero() {
		portfolio.ID = primitive.NewObjectID()
	}
	portfolio.Normalize()
	if _, err := col.InsertOne(ctx, portfolio); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, conflictFromDuplicate(err)
		}
		return nil, Upstream("failed to create portfolio", fmt.Errorf("insert portfolio: %w", err))
	}
	return portfolio, nil
}

func (mdb *MongodbRepo) GetPortfolioByUser(ctx context.Context, userID primitive.ObjectID) (*Portfolio, error) {
	col, err := mdb.GetCollection(ctx, PortfoliosColName)
	if err != nil {
		return nil, Upstream("failed to load portfolio", err)
	}
	var portfolio Portfolio
	if err := col.FindOne(ctx, bson.M{"user": userID}).Decode(&portfolio); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, portfolioNotFound
		}
		return nil, Upstream("failed to load portfolio", fmt.Errorf("find portfolio: %w", err))
	}
	portfolio.Normalize()
	return &portfolio, nil
}

// updateDocument renders a FieldPatch as update operators and always bumps
// updatedAt.
func updateDocument(patch FieldPatch, now time.Time) bson.M {
	set := bson.M{}
	for k, v := range patch.Set {
		set[k] = v
	}
	set["updatedAt"] = now
	update := bson.M{"$set": set}
	if len(patch.Unset) > 0 {
		unset := bson.M{}
		for _, field := range patch.Unset {
			unset[field] = ""
		}
		update["$unset"] = unset
	}
	return update
}

func (mdb *MongodbRepo) findAndUpdate(ctx context.Context, filter bson.M, update interface{}) (*Portfolio, error) {
	col, err := mdb.GetCollection(ctx, PortfoliosColName)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var portfolio Portfolio
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&portfolio); err != nil {
		return nil, err
	}
	portfolio.Normalize()
	return &portfolio, nil
}

// missing tells apart a portfolio miss from a subdocument miss after a
// filtered update matched nothing.
func (mdb *MongodbRepo) missing(ctx context.Context, userID primitive.ObjectID, label string) error {
	col, err := mdb.GetCollection(ctx, PortfoliosColName)
	if err != nil {
		return Upstream("failed to load portfolio", err)
	}
	count, err := col.CountDocuments(ctx, bson.M{"user": userID}, options.Count().SetLimit(1))
	if err != nil {
		return Upstream("failed to load portfolio", fmt.Errorf("count portfolio: %w", err))
	}
	if count == 0 {
		return portfolioNotFound
	}
	if label == "" {
		return nil
	}
	return NotFound(label + " not found")
}

func (mdb *MongodbRepo) PatchPortfolio(ctx context.Context, userID primitive.ObjectID, patch FieldPatch) (*Portfolio, error) {
	portfolio, err := mdb.findAndUpdate(ctx, bson.M{"user": userID}, updateDocument(patch, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, portfolioNotFound
		}
		return nil, Upstream("failed to update portfolio", fmt.Errorf("patch portfolio: %w", err))
	}
	return portfolio, nil
}

// AppendSubdocument pushes item onto the section list. A non-negative
// expectedLen guards the push on the current list length so that an order
// derived from it stays correct under concurrent appends.
func (mdb *MongodbRepo) AppendSubdocument(ctx context.Context, userID primitive.ObjectID, section Section, item interface{}, expectedLen int) (*Portfolio, error) {
	filter := bson.M{"user": userID}
	if expectedLen == 0 {
		filter["$or"] = bson.A{
			bson.M{section.Field: bson.M{"$size": 0}},
			bson.M{section.Field: bson.M{"$exists": false}},
			bson.M{section.Field: nil},
		}
	} else if expectedLen > 0 {
		filter[section.Field] = bson.M{"$size": expectedLen}
	}

	update := bson.M{
		"$push": bson.M{section.Field: item},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	portfolio, err := mdb.findAndUpdate(ctx, filter, update)
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, Upstream("failed to add "+section.Label, fmt.Errorf("push %s: %w", section.Field, err))
	}
	if missingErr := mdb.missing(ctx, userID, ""); missingErr != nil {
		return nil, missingErr
	}
	return nil, ErrSectionChanged
}

// ReplaceSubdocument sets fields on the one element whose _id matches.
// Patch keys are relative to the element.
func (mdb *MongodbRepo) ReplaceSubdocument(ctx context.Context, userID primitive.ObjectID, section Section, itemID primitive.ObjectID, patch FieldPatch) (*Portfolio, error) {
	positional := NewFieldPatch()
	for k, v := range patch.Set {
		positional.Set[section.Field+".$."+k] = v
	}
	for _, k := range patch.Unset {
		positional.Unset = append(positional.Unset, section.Field+".$."+k)
	}

	filter := bson.M{"user": userID, section.Field + "._id": itemID}
	portfolio, err := mdb.findAndUpdate(ctx, filter, updateDocument(positional, time.Now().UTC()))
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, Upstream("failed to update "+section.Label, fmt.Errorf("replace %s: %w", section.Field, err))
	}
	return nil, mdb.missing(ctx, userID, section.Label)
}

func (mdb *MongodbRepo) RemoveSubdocument(ctx context.Context, userID primitive.ObjectID, section Section, itemID primitive.ObjectID) (*Portfolio, error) {
	filter := bson.M{"user": userID, section.Field + "._id": itemID}
	update := bson.M{
		"$pull": bson.M{section.Field: bson.M{"_id": itemID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	portfolio, err := mdb.findAndUpdate(ctx, filter, update)
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, Upstream("failed to delete "+section.Label, fmt.Errorf("pull %s: %w", section.Field, err))
	}
	return nil, mdb.missing(ctx, userID, section.Label)
}

func (mdb *MongodbRepo) DeletePortfolio(ctx context.Context, userID primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, PortfoliosColName)
	if err != nil {
		return Upstream("failed to delete portfolio", err)
	}
	res, err := col.DeleteOne(ctx, bson.M{"user": userID})
	if err != nil {
		return Upstream("failed to delete portfolio", fmt.Errorf("delete portfolio: %w", err))
	}
	if res.DeletedCount == 0 {
		return portfolioNotFound
	}
	return nil
}
