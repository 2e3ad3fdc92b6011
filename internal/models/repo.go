package models

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultDBName      = "portfolio_builder"
	UsersColName       = "users"
	PortfoliosColName  = "portfolios"
	usernameCharacters = `^[a-zA-Z0-9_-]+$`
)

// ReservedUsernames collide with the owner section routes under /portfolio.
var ReservedUsernames = map[string]struct{}{
	"about":         {},
	"hero":          {},
	"theme":         {},
	"contact":       {},
	"hero-template": {},
	"projects":      {},
	"experiences":   {},
	"education":     {},
	"skills":        {},
}

var usernamePattern = regexp.MustCompile(usernameCharacters)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsValidUsername(fl.Field().String())
	})
	return v
}

func IsValidUsername(username string) bool {
	if !usernamePattern.MatchString(username) {
		return false
	}
	_, reserved := ReservedUsernames[strings.ToLower(username)]
	return !reserved
}

// ValidationMessage flattens validator output into one client-facing line.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email", field))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "username":
			parts = append(parts, fmt.Sprintf("%s may only contain letters, numbers, underscores and hyphens and must not be reserved", field))
		case "iscolor":
			parts = append(parts, fmt.Sprintf("%s must be a valid color", field))
		default:
			parts = append(parts, fmt.Sprintf("%s failed on %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct runs the shared validator and maps failures to the
// validation error kind.
func ValidateStruct(s interface{}) error {
	if err := Validate.Struct(s); err != nil {
		return ValidationFailed(ValidationMessage(err))
	}
	return nil
}

// SupabaseRepo stores uploaded assets in a Supabase storage bucket.
type SupabaseRepo struct {
	supabaseClient *supabase.Client
	url            string
	bucket         string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, url, bucket string) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		bucket:         bucket,
	}
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	if dbName == "" {
		dbName = DefaultDBName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// EnsureIndexes creates the unique indexes the account and portfolio
// invariants rely on.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	users, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	_, err = users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "resetPasswordToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_token_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating user indexes: %v", err)
	}

	portfolios, err := mdb.GetCollection(ctx, PortfoliosColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}
	_, err = portfolios.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_unique"),
	})
	if err != nil {
		return fmt.Errorf("error creating portfolio indexes: %v", err)
	}
	return nil
}

// duplicateField names the unique key a duplicate key error was raised on.
func duplicateField(err error) string {
	msg := err.Error()
	for _, field := range []string{"email", "username", "user"} {
		if strings.Contains(msg, field+"_unique") || strings.Contains(msg, "dup key: { "+field+":") {
			return field
		}
	}
	return ""
}
