package models

import "decode/internal/engine/features"

const (
	SystemRoleAdmin = "admin"
	SystemRoleUser  = "user"
)

const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

type Organization struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	AllowedFeatures []string `json:"allowed_features"`
	IsSandbox       bool     `json:"is_sandbox"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

// Flags returns the organization's entitlement fields. A nil organization
// yields nil flags, which the evaluator treats as "no organization".
func (o *Organization) Flags() *features.Flags {
	if o == nil {
		return nil
	}
	return &features.Flags{AllowedFeatures: o.AllowedFeatures, IsSandbox: o.IsSandbox}
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	LastLoginAt  *int64 `json:"last_login_at,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

type Member struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	CreatedAt      int64  `json:"created_at"`
}
