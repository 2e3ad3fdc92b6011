package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, patch FieldPatch) (*User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	ListUsers(ctx context.Context, filter UserFilter) ([]*UserWithPortfolio, error)
	DeleteUserWithPortfolio(ctx context.Context, id primitive.ObjectID) error
}

var accountPrivateFields = bson.D{
	{Key: "password", Value: 0},
	{Key: "verificationCode", Value: 0},
	{Key: "verificationCodeExpires", Value: 0},
	{Key: "verificationCodeSentAt", Value: 0},
	{Key: "resetPasswordToken", Value: 0},
	{Key: "resetPasswordExpires", Value: 0},
}

func conflictFromDuplicate(err error) error {
	switch duplicateField(err) {
	case "email":
		return &AppError{Kind: KindConflict, Message: "email already in use", Err: err}
	case "username":
		return &AppError{Kind: KindConflict, Message: "username already taken", Err: err}
	case "user":
		return &AppError{Kind: KindConflict, Message: "portfolio already exists for this account", Err: err}
	default:
		return &AppError{Kind: KindConflict, Message: "account already exists", Err: err}
	}
}

func (mdb *MongodbRepo) CreateUser(ctx context.Context, user *User) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, Upstream("failed to create account", err)
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if _, err := col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, conflictFromDuplicate(err)
		}
		return nil, Upstream("failed to create account", fmt.Errorf("insert user: %w", err))
	}
	return user, nil
}

func (mdb *MongodbRepo) findUser(ctx context.Context, filter bson.M) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, Upstream("failed to load account", err)
	}
	var user User
	if err := col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFound("user not found")
		}
		return nil, Upstream("failed to load account", fmt.Errorf("find user: %w", err))
	}
	return &user, nil
}

func (mdb *MongodbRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return mdb.findUser(ctx, bson.M{"_id": id})
}

func (mdb *MongodbRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return mdb.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (mdb *MongodbRepo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return mdb.findUser(ctx, bson.M{"username": username})
}

func (mdb *MongodbRepo) UpdateUser(ctx context.Context, id primitive.ObjectID, patch FieldPatch) (*User, error) {
	if patch.IsEmpty() {
		return nil, ValidationFailed("no fields to update")
	}
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, Upstream("failed to update account", err)
	}

	update := bson.M{}
	if len(patch.Set) > 0 {
		update["$set"] = bson.M(patch.Set)
	}
	if len(patch.Unset) > 0 {
		unset := bson.M{}
		for _, field := range patch.Unset {
			unset[field] = ""
		}
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NotFound("user not found")
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, conflictFromDuplicate(err)
		}
		return nil, Upstream("failed to update account", fmt.Errorf("update user: %w", err))
	}
	return &user, nil
}

func (mdb *MongodbRepo) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return Upstream("failed to delete account", err)
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return Upstream("failed to delete account", fmt.Errorf("delete user: %w", err))
	}
	if res.DeletedCount == 0 {
		return NotFound("user not found")
	}
	return nil
}

// ListUsers joins every account with a summary of its portfolio. Accounts
// without a portfolio carry a nil summary.
func (mdb *MongodbRepo) ListUsers(ctx context.Context, filter UserFilter) ([]*UserWithPortfolio, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, Upstream("failed to list accounts", err)
	}

	match := bson.D{}
	if filter.Verified != nil {
		match = append(match, bson.E{Key: "verified", Value: *filter.Verified})
	}

	countOf := func(field string) bson.D {
		return bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$portfolio." + field, bson.A{}}}}}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: PortfoliosColName},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "user"},
			{Key: "as", Value: "portfolios"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "portfolio", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$portfolios", 0}}}},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "portfolio", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$portfolio._id", false}}},
				bson.D{
					{Key: "_id", Value: "$portfolio._id"},
					{Key: "heroTitle", Value: "$portfolio.heroTitle"},
					{Key: "aboutTitle", Value: "$portfolio.aboutTitle"},
					{Key: "projectCount", Value: countOf("projects")},
					{Key: "experienceCount", Value: countOf("experiences")},
					{Key: "educationCount", Value: countOf("education")},
					{Key: "updatedAt", Value: "$portfolio.updatedAt"},
				},
				"$$REMOVE",
			}}}},
		}}},
		{{Key: "$project", Value: append(bson.D{{Key: "portfolios", Value: 0}}, accountPrivateFields...)}},
	}

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, Upstream("failed to list accounts", fmt.Errorf("aggregate users: %w", err))
	}
	defer cursor.Close(ctx)

	users := []*UserWithPortfolio{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, Upstream("failed to list accounts", fmt.Errorf("decode users: %w", err))
	}
	return users, nil
}

// DeleteUserWithPortfolio removes an account and its portfolio as one unit.
// Deployments without transaction support (standalone servers) fall back to a
// compensating sequence.
func (mdb *MongodbRepo) DeleteUserWithPortfolio(ctx context.Context, id primitive.ObjectID) error {
	if _, err := mdb.GetUserByID(ctx, id); err != nil {
		return err
	}

	err := mdb.deleteUserInTransaction(ctx, id)
	if err == nil || !transactionsUnsupported(err) {
		return err
	}
	return mdb.deleteUserSaga(ctx, id)
}

func (mdb *MongodbRepo) deleteUserInTransaction(ctx context.Context, id primitive.ObjectID) error {
	if mdb.mongodbClient == nil {
		return Upstream("failed to delete account", fmt.Errorf("mongodb client is not initialized"))
	}
	session, err := mdb.mongodbClient.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		portfolios, err := mdb.GetCollection(sc, PortfoliosColName)
		if err != nil {
			return nil, err
		}
		if _, err := portfolios.DeleteOne(sc, bson.M{"user": id}); err != nil {
			return nil, fmt.Errorf("delete portfolio: %w", err)
		}
		users, err := mdb.GetCollection(sc, UsersColName)
		if err != nil {
			return nil, err
		}
		res, err := users.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, fmt.Errorf("delete user: %w", err)
		}
		if res.DeletedCount == 0 {
			return nil, NotFound("user not found")
		}
		return nil, nil
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) || transactionsUnsupported(err) {
			return err
		}
		return Upstream("failed to delete account", err)
	}
	return nil
}

func (mdb *MongodbRepo) deleteUserSaga(ctx context.Context, id primitive.ObjectID) error {
	portfolios, err := mdb.GetCollection(ctx, PortfoliosColName)
	if err != nil {
		return Upstream("failed to delete account", err)
	}

	var snapshot bson.M
	err = portfolios.FindOneAndDelete(ctx, bson.M{"user": id}).Decode(&snapshot)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return Upstream("failed to delete account", fmt.Errorf("delete portfolio: %w", err))
	}

	if err := mdb.DeleteUser(ctx, id); err != nil {
		if snapshot != nil {
			if _, restoreErr := portfolios.InsertOne(ctx, snapshot); restoreErr != nil {
				return Upstream("failed to delete account", fmt.Errorf("restore portfolio after %v: %w", err, restoreErr))
			}
		}
		return err
	}
	return nil
}

// transactionsUnsupported reports the server error returned when
// transactions run against a standalone mongod.
func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 20 {
		return true
	}
	return strings.Contains(err.Error(), "Transaction numbers are only allowed")
}
