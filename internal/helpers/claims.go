package helpers

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the request-scoped caller resolved by the auth middleware.
type Identity struct {
	UserID   primitive.ObjectID
	Role     string
	Email    string
	Username string
}

func IdentityFromClaims(claims *CustomClaims) (*Identity, error) {
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:   id,
		Role:     claims.Role,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

func (i *Identity) IsSuperadmin() bool {
	return i.Role == "superadmin"
}

func (i *Identity) IsOwner(userID primitive.ObjectID) bool {
	return i.UserID == userID
}
