package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser       = "user"
	RoleSuperadmin = "superadmin"
)

// User is an account record. Credential and token fields never leave the
// server: they are tagged json:"-".
type User struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                    string             `bson:"name" json:"name" validate:"required"`
	Email                   string             `bson:"email" json:"email" validate:"required,email"`
	Username                string             `bson:"username" json:"username" validate:"required,min=3,username"`
	Password                string             `bson:"password" json:"-"`
	Image                   string             `bson:"image,omitempty" json:"image,omitempty"`
	Role                    string             `bson:"role" json:"role" validate:"oneof=user superadmin"`
	Verified                bool               `bson:"verified" json:"verified"`
	VerificationCode        string             `bson:"verificationCode,omitempty" json:"-"`
	VerificationCodeExpires *time.Time         `bson:"verificationCodeExpires,omitempty" json:"-"`
	VerificationCodeSentAt  *time.Time         `bson:"verificationCodeSentAt,omitempty" json:"-"`
	ResetPasswordToken      string             `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpires    *time.Time         `bson:"resetPasswordExpires,omitempty" json:"-"`
	CreatedAt               time.Time          `bson:"createdAt" json:"createdAt"`
}

func (u *User) IsSuperadmin() bool {
	return u.Role == RoleSuperadmin
}

// PublicUser is the visitor-safe part of an account embedded in a public
// portfolio.
type PublicUser struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		Name:     u.Name,
		Username: u.Username,
		Image:    u.Image,
	}
}

// UserUpdate is an admin or settings patch. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,username"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user superadmin"`
	Verified *bool   `json:"verified,omitempty"`
	Image    *string `json:"image,omitempty"`
}

func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Username == nil &&
		u.Role == nil && u.Verified == nil && u.Image == nil
}

// UserFilter narrows the admin listing.
type UserFilter struct {
	Verified *bool
}

// PortfolioSummary is the slice of a portfolio shown next to each account in
// the admin directory.
type PortfolioSummary struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	HeroTitle       string             `bson:"heroTitle" json:"heroTitle"`
	AboutTitle      string             `bson:"aboutTitle" json:"aboutTitle"`
	ProjectCount    int                `bson:"projectCount" json:"projectCount"`
	ExperienceCount int                `bson:"experienceCount" json:"experienceCount"`
	EducationCount  int                `bson:"educationCount" json:"educationCount"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type UserWithPortfolio struct {
	User      `bson:",inline"`
	Portfolio *PortfolioSummary `bson:"portfolio,omitempty" json:"portfolio"`
}
