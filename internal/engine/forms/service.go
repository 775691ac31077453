package forms

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"decode/internal/pkg/validator"
	"decode/internal/platform/audit"
	"decode/internal/platform/models"
	"decode/internal/platform/repositories"
)

const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldEmail    = "email"
	FieldSelect   = "select"
	FieldRanking  = "ranking"
)

var (
	ErrNotFound    = errors.New("form not found")
	ErrInvalidForm = errors.New("invalid form definition")
	ErrSlugTaken   = errors.New("form slug is already in use")
)

// ValidationError reports the first step whose answers failed validation.
type ValidationError struct {
	Step   int               `json:"step"`
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return fmt.Sprintf("step %d has invalid fields: %s", e.Step+1, strings.Join(names, ", "))
}

type Service struct {
	repo  *repositories.FormRepository
	audit *audit.Logger
}

func NewService(repo *repositories.FormRepository, auditLogger *audit.Logger) *Service {
	return &Service{repo: repo, audit: auditLogger}
}

type CreateFormInput struct {
	Slug      string            `json:"slug"`
	Title     string            `json:"title"`
	Steps     []models.FormStep `json:"steps"`
	Published bool              `json:"published"`
}

func (s *Service) CreateForm(ctx context.Context, orgID, userID string, in CreateFormInput) (*models.Form, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidForm)
	}
	if in.Slug == "" {
		in.Slug = validator.Slugify(in.Title)
	}
	if err := validator.ValidateSlug(in.Slug); err != nil && !errors.Is(err, validator.ErrReservedSlug) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if err := ValidateDefinition(in.Steps); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetBySlug(ctx, orgID, in.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check form slug: %w", err)
	}
	if existing != nil {
		return nil, ErrSlugTaken
	}

	now := time.Now().Unix()
	form := &models.Form{
		ID:             "frm_" + uuid.NewString(),
		OrganizationID: orgID,
		Slug:           in.Slug,
		Title:          in.Title,
		Steps:          in.Steps,
		Published:      in.Published,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	s.audit.Log(ctx, audit.AuditLog{
		OrganizationID: orgID,
		UserID:         userID,
		Action:         audit.ActionFormCreated,
		ResourceType:   "form",
		ResourceID:     form.ID,
		Metadata:       map[string]any{"slug": form.Slug, "steps": len(form.Steps)},
	})
	return form, nil
}

// ValidateDefinition checks that every step has fields, field names are
// unique across the form, and choice fields declare their options.
func ValidateDefinition(steps []models.FormStep) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: at least one step is required", ErrInvalidForm)
	}

	seen := make(map[string]bool)
	for i, step := range steps {
		if len(step.Fields) == 0 {
			return fmt.Errorf("%w: step %d has no fields", ErrInvalidForm, i+1)
		}
		for _, field := range step.Fields {
			if field.Name == "" {
				return fmt.Errorf("%w: step %d has a field without a name", ErrInvalidForm, i+1)
			}
			if seen[field.Name] {
				return fmt.Errorf("%w: duplicate field %q", ErrInvalidForm, field.Name)
			}
			seen[field.Name] = true

			switch field.Type {
			case FieldText, FieldTextarea, FieldEmail:
			case FieldSelect, FieldRanking:
				if len(field.Options) == 0 {
					return fmt.Errorf("%w: field %q needs options", ErrInvalidForm, field.Name)
				}
			default:
				return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidForm, field.Name, field.Type)
			}
		}
	}
	return nil
}

// GetPublished returns a form that can be filled in publicly.
func (s *Service) GetPublished(ctx context.Context, orgID, slug string) (*models.Form, error) {
	form, err := s.repo.GetBySlug(ctx, orgID, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil || !form.Published {
		return nil, ErrNotFound
	}
	return form, nil
}

func (s *Service) Get(ctx context.Context, orgID, slug string) (*models.Form, error) {
	form, err := s.repo.GetBySlug(ctx, orgID, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil {
		return nil, ErrNotFound
	}
	return form, nil
}

func (s *Service) List(ctx context.Context, orgID string) ([]*models.Form, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

func (s *Service) ListSubmissions(ctx context.Context, formID string, limit int) ([]*models.Submission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListSubmissions(ctx, formID, limit)
}

// Submit validates answers against form and stores them. Unknown answer keys
// are dropped.
func (s *Service) Submit(ctx context.Context, form *models.Form, answers map[string]any, ip, userAgent string) (*models.Submission, error) {
	cleaned, err := ValidateAnswers(form.Steps, answers)
	if err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ID:        "sub_" + uuid.NewString(),
		FormID:    form.ID,
		Answers:   cleaned,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	return sub, nil
}

// ValidateAnswers walks the steps in order and stops at the first step with
// errors, mirroring how the form is filled in.
func ValidateAnswers(steps []models.FormStep, answers map[string]any) (map[string]any, error) {
	cleaned := make(map[string]any)
	for i, step := range steps {
		problems := make(map[string]string)
		for _, field := range step.Fields {
			value, msg := validateField(field, answers[field.Name])
			if msg != "" {
				problems[field.Name] = msg
				continue
			}
			if value != nil {
				cleaned[field.Name] = value
			}
		}
		if len(problems) > 0 {
			return nil, &ValidationError{Step: i, Fields: problems}
		}
	}
	return cleaned, nil
}

func validateField(field models.FormField, raw any) (any, string) {
	if field.Type == FieldRanking {
		return validateRanking(field, raw)
	}

	if raw == nil {
		if field.Required {
			return nil, "required"
		}
		return nil, ""
	}
	str, ok := raw.(string)
	if !ok {
		return nil, "must be text"
	}
	str = strings.TrimSpace(str)
	if str == "" {
		if field.Required {
			return nil, "required"
		}
		return nil, ""
	}

	switch field.Type {
	case FieldEmail:
		email, err := validator.NormalizeEmail(str)
		if err != nil {
			return nil, "invalid email"
		}
		return email, ""
	case FieldSelect:
		if !slices.Contains(field.Options, str) {
			return nil, "not a valid option"
		}
	}
	return str, ""
}

func validateRanking(field models.FormField, raw any) (any, string) {
	if raw == nil {
		if field.Required {
			return nil, "required"
		}
		return nil, ""
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, "must be a list"
	}
	if len(items) == 0 {
		if field.Required {
			return nil, "required"
		}
		return nil, ""
	}

	ranked := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok || !slices.Contains(field.Options, str) {
			return nil, "not a valid option"
		}
		if slices.Contains(ranked, str) {
			return nil, "options can only be ranked once"
		}
		ranked = append(ranked, str)
	}
	return ranked, ""
}
