package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"decode/internal/platform/models"
)

type FormRepository struct {
	db *sql.DB
}

func NewFormRepository(db *sql.DB) *FormRepository {
	return &FormRepository{db: db}
}

func (r *FormRepository) Create(ctx context.Context, form *models.Form) error {
	stepsJSON, err := json.Marshal(form.Steps)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO forms (id, organization_id, slug, title, steps, published, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, form.ID, form.OrganizationID, form.Slug, form.Title, string(stepsJSON), form.Published, form.CreatedBy, form.CreatedAt, form.UpdatedAt)
	return err
}

const formColumns = `id, organization_id, slug, title, steps, published, created_by, created_at, updated_at`

func (r *FormRepository) GetBySlug(ctx context.Context, orgID, slug string) (*models.Form, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM forms WHERE organization_id = ? AND slug = ?`, orgID, slug)
	return scanForm(row)
}

func (r *FormRepository) ListByOrg(ctx context.Context, orgID string) ([]*models.Form, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+formColumns+` FROM forms WHERE organization_id = ? ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forms := []*models.Form{}
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}

func scanForm(row rowScanner) (*models.Form, error) {
	form := &models.Form{}
	var stepsJSON string
	err := row.Scan(&form.ID, &form.OrganizationID, &form.Slug, &form.Title, &stepsJSON, &form.Published, &form.CreatedBy, &form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(stepsJSON), &form.Steps); err != nil {
		return nil, err
	}
	return form, nil
}

func (r *FormRepository) CreateSubmission(ctx context.Context, s *models.Submission) error {
	answersJSON, err := json.Marshal(s.Answers)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO submissions (id, form_id, answers, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.FormID, string(answersJSON), s.IPAddress, s.UserAgent, s.CreatedAt)
	return err
}

func (r *FormRepository) ListSubmissions(ctx context.Context, formID string, limit int) ([]*models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, form_id, answers, ip_address, user_agent, created_at
		FROM submissions WHERE form_id = ? ORDER BY created_at DESC LIMIT ?
	`, formID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*models.Submission{}
	for rows.Next() {
		var s models.Submission
		var answersJSON string
		if err := rows.Scan(&s.ID, &s.FormID, &answersJSON, &s.IPAddress, &s.UserAgent, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answersJSON), &s.Answers); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}
