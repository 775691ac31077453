package forms

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"decode/internal/platform/audit"
	"decode/internal/platform/database"
	"decode/internal/platform/models"
	"decode/internal/platform/repositories"
)

var briefingSteps = []models.FormStep{
	{
		Title: "About you",
		Fields: []models.FormField{
			{Name: "company", Label: "Company", Type: FieldText, Required: true},
			{Name: "email", Label: "Email", Type: FieldEmail, Required: true},
		},
	},
	{
		Title: "Project",
		Fields: []models.FormField{
			{Name: "budget", Label: "Budget", Type: FieldSelect, Required: true, Options: []string{"small", "medium", "large"}},
			{Name: "priorities", Label: "Priorities", Type: FieldRanking, Options: []string{"speed", "cost", "quality"}},
			{Name: "notes", Label: "Notes", Type: FieldTextarea},
		},
	},
}

func setupService(t *testing.T) (*Service, string) {
	db, err := database.NewMemoryDB()
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Now().Unix()
	org := &models.Organization{ID: "org_acme", Slug: "acme", Name: "Acme", CreatedAt: now, UpdatedAt: now}
	if err := repositories.NewOrganizationRepository(db).Create(context.Background(), org); err != nil {
		t.Fatal(err)
	}
	return NewService(repositories.NewFormRepository(db), audit.NewLogger(db)), org.ID
}

func TestValidateAnswers(t *testing.T) {
	valid := map[string]any{
		"company":    " Acme ",
		"email":      "Ops@Acme.io",
		"budget":     "medium",
		"priorities": []any{"quality", "speed"},
		"extra":      "dropped",
	}

	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantStep  int
		wantField string
	}{
		{"Missing Required", func(a map[string]any) { delete(a, "company") }, 0, "company"},
		{"Blank Required", func(a map[string]any) { a["company"] = "   " }, 0, "company"},
		{"Bad Email", func(a map[string]any) { a["email"] = "nope" }, 0, "email"},
		{"Wrong Type", func(a map[string]any) { a["company"] = 42.0 }, 0, "company"},
		{"Unknown Option", func(a map[string]any) { a["budget"] = "huge" }, 1, "budget"},
		{"Ranking Repeats", func(a map[string]any) { a["priorities"] = []any{"cost", "cost"} }, 1, "priorities"},
		{"Ranking Unknown", func(a map[string]any) { a["priorities"] = []any{"fun"} }, 1, "priorities"},
		{"Ranking Not List", func(a map[string]any) { a["priorities"] = "cost" }, 1, "priorities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := make(map[string]any, len(valid))
			for k, v := range valid {
				answers[k] = v
			}
			tt.mutate(answers)

			_, err := ValidateAnswers(briefingSteps, answers)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Step != tt.wantStep {
				t.Errorf("step = %d, want %d", verr.Step, tt.wantStep)
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Errorf("Expected error on %s, got %v", tt.wantField, verr.Fields)
			}
		})
	}

	t.Run("Valid", func(t *testing.T) {
		cleaned, err := ValidateAnswers(briefingSteps, valid)
		if err != nil {
			t.Fatalf("ValidateAnswers() error = %v", err)
		}
		if cleaned["company"] != "Acme" || cleaned["email"] != "ops@acme.io" {
			t.Errorf("Expected trimmed and normalized answers, got %v", cleaned)
		}
		if _, ok := cleaned["extra"]; ok {
			t.Error("Expected unknown keys dropped")
		}
		if _, ok := cleaned["notes"]; ok {
			t.Error("Expected empty optional field omitted")
		}
		if got := cleaned["priorities"].([]string); !slices.Equal(got, []string{"quality", "speed"}) {
			t.Errorf("Unexpected ranking %v", got)
		}
	})
}

func TestValidateAnswers_StopsAtFirstFailingStep(t *testing.T) {
	_, err := ValidateAnswers(briefingSteps, map[string]any{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Step != 0 || len(verr.Fields) != 2 {
		t.Errorf("Expected both step one fields reported, got %+v", verr)
	}
	if _, ok := verr.Fields["budget"]; ok {
		t.Error("Later step validated before earlier step passed")
	}
}

func TestValidateDefinition(t *testing.T) {
	tests := []struct {
		name  string
		steps []models.FormStep
	}{
		{"No Steps", nil},
		{"Empty Step", []models.FormStep{{Title: "Empty"}}},
		{"Unnamed Field", []models.FormStep{{Fields: []models.FormField{{Type: FieldText}}}}},
		{"Duplicate Field", []models.FormStep{
			{Fields: []models.FormField{{Name: "a", Type: FieldText}}},
			{Fields: []models.FormField{{Name: "a", Type: FieldText}}},
		}},
		{"Select Without Options", []models.FormStep{{Fields: []models.FormField{{Name: "a", Type: FieldSelect}}}}},
		{"Unknown Type", []models.FormStep{{Fields: []models.FormField{{Name: "a", Type: "file"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateDefinition(tt.steps); !errors.Is(err, ErrInvalidForm) {
				t.Errorf("Expected ErrInvalidForm, got %v", err)
			}
		})
	}

	if err := ValidateDefinition(briefingSteps); err != nil {
		t.Errorf("Expected valid definition, got %v", err)
	}
}

func TestCreateAndSubmit(t *testing.T) {
	svc, orgID := setupService(t)
	ctx := context.Background()

	form, err := svc.CreateForm(ctx, orgID, "usr_1", CreateFormInput{Title: "Project Briefing", Steps: briefingSteps})
	if err != nil {
		t.Fatalf("CreateForm() error = %v", err)
	}
	if form.Slug != "project-briefing" {
		t.Errorf("Expected slug from title, got %q", form.Slug)
	}

	if _, err := svc.CreateForm(ctx, orgID, "usr_1", CreateFormInput{Slug: "project-briefing", Title: "Again", Steps: briefingSteps}); !errors.Is(err, ErrSlugTaken) {
		t.Errorf("Expected ErrSlugTaken, got %v", err)
	}

	if _, err := svc.GetPublished(ctx, orgID, "project-briefing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected unpublished form hidden, got %v", err)
	}

	sub, err := svc.Submit(ctx, form, map[string]any{"company": "Acme", "email": "a@acme.io", "budget": "small"}, "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	subs, err := svc.ListSubmissions(ctx, form.ID, 0)
	if err != nil || len(subs) != 1 || subs[0].ID != sub.ID {
		t.Errorf("ListSubmissions() = %v, %v", subs, err)
	}
}
