package organizations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"decode/internal/engine/features"
	"decode/internal/pkg/validator"
	"decode/internal/platform/audit"
	"decode/internal/platform/auth"
	"decode/internal/platform/cache"
	"decode/internal/platform/models"
	"decode/internal/platform/repositories"
)

var (
	ErrNotFound      = errors.New("organization not found")
	ErrInvalidName   = errors.New("organization name is required")
	ErrSlugTaken     = errors.New("slug is already in use")
	ErrOwnerRequired = errors.New("owner email is required")
	ErrNotMember     = errors.New("user is not a member of this organization")

	// errUnchanged aborts updateFeatures without writing.
	errUnchanged = errors.New("features unchanged")
)

// DefaultFeatures are granted to organizations created without an explicit set.
var DefaultFeatures = []string{"dashboard"}

// Actor identifies who performs a change, for the audit trail.
type Actor struct {
	UserID         string
	ImpersonatedBy string
	IPAddress      string
	UserAgent      string
}

type Service struct {
	db      *sql.DB
	orgs    *repositories.OrganizationRepository
	users   *repositories.UserRepository
	members *repositories.MemberRepository
	cache   cache.OrgCache
	audit   *audit.Logger
}

func NewService(db *sql.DB, orgCache cache.OrgCache, auditLogger *audit.Logger) *Service {
	return &Service{
		db:      db,
		orgs:    repositories.NewOrganizationRepository(db),
		users:   repositories.NewUserRepository(db),
		members: repositories.NewMemberRepository(db),
		cache:   orgCache,
		audit:   auditLogger,
	}
}

type CreateClientInput struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	OwnerEmail    string   `json:"owner_email"`
	OwnerName     string   `json:"owner_name"`
	OwnerPassword string   `json:"owner_password"`
	Features      []string `json:"features"`
	IsSandbox     bool     `json:"is_sandbox"`
}

type CreateClientResult struct {
	Organization *models.Organization `json:"organization"`
	Owner        *models.User         `json:"owner"`
	CreatedOwner bool                 `json:"created_owner"`
}

// CreateClient creates an organization with its owner in one transaction.
// An existing user with the owner email becomes the owner; otherwise a new
// user is created with OwnerPassword.
func (s *Service) CreateClient(ctx context.Context, actor Actor, in CreateClientInput) (*CreateClientResult, error) {
	org, err := s.newOrganization(in.Name, in.Slug, in.Features, in.IsSandbox)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.OwnerEmail) == "" {
		return nil, ErrOwnerRequired
	}
	email, err := validator.NormalizeEmail(in.OwnerEmail)
	if err != nil {
		return nil, err
	}

	tx, err := s.orgs.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.insertOrganization(ctx, tx, org); err != nil {
		return nil, err
	}

	users := s.users.WithTx(tx)
	owner, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up owner: %w", err)
	}

	created := false
	if owner == nil {
		hash, err := auth.HashPassword(in.OwnerPassword)
		if err != nil {
			return nil, err
		}
		owner = &models.User{
			ID:           "usr_" + uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			FullName:     strings.TrimSpace(in.OwnerName),
			Role:         models.SystemRoleUser,
			CreatedAt:    org.CreatedAt,
			UpdatedAt:    org.CreatedAt,
		}
		if err := users.Create(ctx, owner); err != nil {
			return nil, fmt.Errorf("failed to create owner: %w", err)
		}
		created = true
	}

	if err := s.addMember(ctx, tx, org.ID, owner.ID, models.MemberRoleOwner); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.AuditLog{
		OrganizationID: org.ID,
		UserID:         actor.UserID,
		ImpersonatedBy: actor.ImpersonatedBy,
		Action:         audit.ActionClientCreated,
		ResourceType:   "organization",
		ResourceID:     org.ID,
		Metadata:       map[string]any{"slug": org.Slug, "owner_id": owner.ID, "features": org.AllowedFeatures, "is_sandbox": org.IsSandbox},
		IPAddress:      actor.IPAddress,
		UserAgent:      actor.UserAgent,
	})

	return &CreateClientResult{Organization: org, Owner: owner, CreatedOwner: created}, nil
}

// Onboard creates an organization owned by the calling user. Self-service
// organizations start with the default feature set and are never sandboxes.
func (s *Service) Onboard(ctx context.Context, actor Actor, name, slug string) (*models.Organization, error) {
	org, err := s.newOrganization(name, slug, nil, false)
	if err != nil {
		return nil, err
	}

	tx, err := s.orgs.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.insertOrganization(ctx, tx, org); err != nil {
		return nil, err
	}
	if err := s.addMember(ctx, tx, org.ID, actor.UserID, models.MemberRoleOwner); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.AuditLog{
		OrganizationID: org.ID,
		UserID:         actor.UserID,
		ImpersonatedBy: actor.ImpersonatedBy,
		Action:         audit.ActionClientCreated,
		ResourceType:   "organization",
		ResourceID:     org.ID,
		Metadata:       map[string]any{"slug": org.Slug, "onboarding": true},
		IPAddress:      actor.IPAddress,
		UserAgent:      actor.UserAgent,
	})
	return org, nil
}

func (s *Service) newOrganization(name, slug string, keys []string, sandbox bool) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = validator.Slugify(name)
	}
	if err := validator.ValidateSlug(slug); err != nil {
		return nil, err
	}

	if keys == nil {
		keys = DefaultFeatures
	}
	normalized, err := features.NormalizeAssignment(keys)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	return &models.Organization{
		ID:              "org_" + uuid.NewString(),
		Slug:            slug,
		Name:            name,
		AllowedFeatures: normalized,
		IsSandbox:       sandbox,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *Service) insertOrganization(ctx context.Context, tx *sql.Tx, org *models.Organization) error {
	orgs := s.orgs.WithTx(tx)
	existing, err := orgs.GetBySlug(ctx, org.Slug)
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if existing != nil {
		return ErrSlugTaken
	}
	if err := orgs.Create(ctx, org); err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (s *Service) addMember(ctx context.Context, tx *sql.Tx, orgID, userID, role string) error {
	err := s.members.WithTx(tx).Add(ctx, &models.Member{
		ID:             "mem_" + uuid.NewString(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// GetBySlug returns the organization, served from the cache when possible.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	if org, ok := s.cache.Get(ctx, slug); ok {
		return org, nil
	}

	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrNotFound
	}

	s.cache.Set(ctx, org)
	return org, nil
}

// GetByID bypasses the cache; it is used for development override headers
// that carry an organization id instead of a slug.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrNotFound
	}
	return org, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	orgs, err := s.orgs.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// ListForUser returns the organizations the user is a member of.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Organization, error) {
	return s.members.ListOrganizations(ctx, userID)
}

// MemberRole returns the user's role in org or ErrNotMember.
func (s *Service) MemberRole(ctx context.Context, orgID, userID string) (string, error) {
	role, err := s.members.GetRole(ctx, orgID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to check membership: %w", err)
	}
	if role == "" {
		return "", ErrNotMember
	}
	return role, nil
}

// IsTenantAdmin reports whether the user administers any organization.
func (s *Service) IsTenantAdmin(ctx context.Context, userID string) (bool, error) {
	return s.members.IsAdminOfAny(ctx, userID)
}

// ToggleFeature adds or removes key from the organization's allowed features.
// Dev features are rejected before anything is written.
func (s *Service) ToggleFeature(ctx context.Context, actor Actor, slug, key string) (*models.Organization, error) {
	if err := features.ValidateAssignable(key); err != nil {
		return nil, err
	}

	var enabled bool
	org, err := s.updateFeatures(ctx, slug, func(current *models.Organization) ([]string, error) {
		next, err := features.ToggleFeature(current.AllowedFeatures, key)
		if err != nil {
			return nil, err
		}
		enabled = len(next) > len(current.AllowedFeatures)
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.AuditLog{
		OrganizationID: org.ID,
		UserID:         actor.UserID,
		ImpersonatedBy: actor.ImpersonatedBy,
		Action:         audit.ActionFeatureToggled,
		ResourceType:   "organization",
		ResourceID:     org.ID,
		Metadata:       map[string]any{"feature": key, "enabled": enabled},
		IPAddress:      actor.IPAddress,
		UserAgent:      actor.UserAgent,
	})
	return org, nil
}

// SetFeatures replaces the organization's allowed features with keys.
func (s *Service) SetFeatures(ctx context.Context, actor Actor, slug string, keys []string) (*models.Organization, error) {
	normalized, err := features.NormalizeAssignment(keys)
	if err != nil {
		return nil, err
	}

	org, err := s.updateFeatures(ctx, slug, func(*models.Organization) ([]string, error) {
		return normalized, nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.AuditLog{
		OrganizationID: org.ID,
		UserID:         actor.UserID,
		ImpersonatedBy: actor.ImpersonatedBy,
		Action:         audit.ActionFeaturesSet,
		ResourceType:   "organization",
		ResourceID:     org.ID,
		Metadata:       map[string]any{"features": normalized},
		IPAddress:      actor.IPAddress,
		UserAgent:      actor.UserAgent,
	})
	return org, nil
}

// updateFeatures re-reads the organization inside a transaction and stores
// what mutate returns. mutate may return errUnchanged to skip the write.
func (s *Service) updateFeatures(ctx context.Context, slug string, mutate func(*models.Organization) ([]string, error)) (*models.Organization, error) {
	tx, err := s.orgs.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	orgs := s.orgs.WithTx(tx)
	org, err := orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrNotFound
	}

	next, err := mutate(org)
	if err != nil {
		return nil, err
	}

	if _, err := orgs.UpdateFeatures(ctx, org.ID, next); err != nil {
		return nil, fmt.Errorf("failed to update features: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, slug)
	org.AllowedFeatures = next
	return org, nil
}

func (s *Service) SetSandbox(ctx context.Context, actor Actor, slug string, sandbox bool) (*models.Organization, error) {
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, ErrNotFound
	}

	n, err := s.orgs.SetSandbox(ctx, org.ID, sandbox)
	if err != nil {
		return nil, fmt.Errorf("failed to update sandbox flag: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	s.cache.Invalidate(ctx, slug)

	s.audit.Log(ctx, audit.AuditLog{
		OrganizationID: org.ID,
		UserID:         actor.UserID,
		ImpersonatedBy: actor.ImpersonatedBy,
		Action:         audit.ActionSandboxChanged,
		ResourceType:   "organization",
		ResourceID:     org.ID,
		Metadata:       map[string]any{"from": org.IsSandbox, "to": sandbox},
		IPAddress:      actor.IPAddress,
		UserAgent:      actor.UserAgent,
	})

	org.IsSandbox = sandbox
	return org, nil
}

// ReconcileGrants removes dev and unknown feature keys stored on non-sandbox
// organizations. It returns the number of organizations changed. Each prune
// re-reads the row in its own transaction so concurrent admin edits are kept.
func (s *Service) ReconcileGrants(ctx context.Context) (int, error) {
	const pageSize = 100
	changed := 0

	for offset := 0; ; offset += pageSize {
		page, err := s.orgs.List(ctx, pageSize, offset)
		if err != nil {
			return changed, fmt.Errorf("failed to list organizations: %w", err)
		}

		for _, listed := range page {
			if listed.IsSandbox {
				continue
			}
			if _, dirty := features.PruneGrants(listed.AllowedFeatures); !dirty {
				continue
			}

			var before []string
			org, err := s.updateFeatures(ctx, listed.Slug, func(current *models.Organization) ([]string, error) {
				if current.IsSandbox {
					return nil, errUnchanged
				}
				pruned, dirty := features.PruneGrants(current.AllowedFeatures)
				if !dirty {
					return nil, errUnchanged
				}
				before = current.AllowedFeatures
				return pruned, nil
			})
			if errors.Is(err, errUnchanged) || errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return changed, fmt.Errorf("failed to prune %s: %w", listed.Slug, err)
			}

			s.audit.Log(ctx, audit.AuditLog{
				OrganizationID: org.ID,
				Action:         audit.ActionGrantsReconciled,
				ResourceType:   "organization",
				ResourceID:     org.ID,
				Metadata:       map[string]any{"before": before, "after": org.AllowedFeatures},
			})
			changed++
		}

		if len(page) < pageSize {
			return changed, nil
		}
	}
}
