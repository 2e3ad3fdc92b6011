package models

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,username"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SettingsUpdate is what an account owner may change about themselves.
type SettingsUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Image *string `json:"image,omitempty"`
}

// AdminUserUpdate carries the target id in the body, as the admin
// dashboard sends it.
type AdminUserUpdate struct {
	UserID string `json:"userId"`
	UserUpdate
}

type AdminUserDelete struct {
	UserID string `json:"userId"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
