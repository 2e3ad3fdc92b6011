package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/folio/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminService struct {
	userRepo models.UserRepo
	logger   *slog.Logger
}

func NewAdminService(userRepo models.UserRepo, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{userRepo: userRepo, logger: logger}
}

// Authorize re-reads the caller's account so that a demoted admin loses
// access before their session expires.
func (as *AdminService) Authorize(ctx context.Context, callerID primitive.ObjectID) error {
	caller, err := as.userRepo.GetUserByID(ctx, callerID)
	if err != nil {
		if models.IsNotFound(err) {
			return models.Forbidden("forbidden: superadmin access required")
		}
		return err
	}
	if !caller.IsSuperadmin() {
		return models.Forbidden("forbidden: superadmin access required")
	}
	return nil
}

func (as *AdminService) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.UserWithPortfolio, error) {
	return as.userRepo.ListUsers(ctx, filter)
}

func parseUserID(raw string) (primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return primitive.NilObjectID, models.ValidationFailed("userId is required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.ValidationFailed("invalid userId")
	}
	return id, nil
}

// UpdateUser applies only the supplied fields. Email and username stay
// unique across accounts.
func (as *AdminService) UpdateUser(ctx context.Context, rawID string, update models.UserUpdate) (*models.User, error) {
	id, err := parseUserID(rawID)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, models.ValidationFailed("no fields to update")
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		update.Email = &email
	}
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		update.Username = &username
	}
	if err := models.ValidateStruct(&update); err != nil {
		return nil, err
	}

	patch := models.NewFieldPatch()
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, models.ValidationFailed("name cannot be empty")
		}
		patch.Set["name"] = name
	}
	if update.Email != nil {
		if err := ensureFree(ctx, as.userRepo.GetUserByEmail, *update.Email, id, "email already in use"); err != nil {
			return nil, err
		}
		patch.Set["email"] = *update.Email
	}
	if update.Username != nil {
		if err := ensureFree(ctx, as.userRepo.GetUserByUsername, *update.Username, id, "username already taken"); err != nil {
			return nil, err
		}
		patch.Set["username"] = *update.Username
	}
	if update.Role != nil {
		patch.Set["role"] = *update.Role
	}
	if update.Image != nil {
		patch.Set["image"] = *update.Image
	}
	if update.Verified != nil {
		patch.Set["verified"] = *update.Verified
		if *update.Verified {
			patch.Unset = []string{"verificationCode", "verificationCodeExpires", "verificationCodeSentAt"}
		}
	}

	updated, err := as.userRepo.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	as.logger.Info("account updated by admin",
		slog.String("user_id", id.Hex()),
		slog.Int("fields", len(patch.Set)),
	)
	return updated, nil
}

// DeleteUser removes the account and its portfolio as one unit.
func (as *AdminService) DeleteUser(ctx context.Context, rawID string) error {
	id, err := parseUserID(rawID)
	if err != nil {
		return err
	}
	if err := as.userRepo.DeleteUserWithPortfolio(ctx, id); err != nil {
		return err
	}
	as.logger.Info("account deleted by admin", slog.String("user_id", id.Hex()))
	return nil
}
