package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"decode/internal/platform/models"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const orgColumns = `id, slug, name, allowed_features, is_sandbox, created_at, updated_at`

type OrganizationRepository struct {
	db *sql.DB
	q  DBTX
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db, q: db}
}

func (r *OrganizationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

// WithTx returns a repository whose statements run inside tx.
func (r *OrganizationRepository) WithTx(tx *sql.Tx) *OrganizationRepository {
	return &OrganizationRepository{db: r.db, q: tx}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	featuresJSON, err := marshalKeys(org.AllowedFeatures)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO organizations (id, slug, name, allowed_features, is_sandbox, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.Slug, org.Name, featuresJSON, org.IsSandbox, org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id)
	return scanOrganization(row)
}

func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE slug = ?`, slug)
	return scanOrganization(row)
}

func (r *OrganizationRepository) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+orgColumns+` FROM organizations
		ORDER BY created_at DESC, slug ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := []*models.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// UpdateFeatures replaces the stored feature keys. It returns the number of rows affected.
func (r *OrganizationRepository) UpdateFeatures(ctx context.Context, id string, keys []string) (int64, error) {
	featuresJSON, err := marshalKeys(keys)
	if err != nil {
		return 0, err
	}

	res, err := r.q.ExecContext(ctx, `UPDATE organizations SET allowed_features = ?, updated_at = ? WHERE id = ?`,
		featuresJSON, time.Now().Unix(), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *OrganizationRepository) SetSandbox(ctx context.Context, id string, sandbox bool) (int64, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE organizations SET is_sandbox = ?, updated_at = ? WHERE id = ?`,
		sandbox, time.Now().Unix(), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	org := &models.Organization{}
	var featuresJSON string
	err := row.Scan(&org.ID, &org.Slug, &org.Name, &featuresJSON, &org.IsSandbox, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(featuresJSON), &org.AllowedFeatures); err != nil {
		return nil, err
	}
	if org.AllowedFeatures == nil {
		org.AllowedFeatures = []string{}
	}
	return org, nil
}

func marshalKeys(keys []string) (string, error) {
	if keys == nil {
		keys = []string{}
	}
	b, err := json.Marshal(keys)
	return string(b), err
}

type UserRepository struct {
	db *sql.DB
	q  DBTX
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, q: db}
}

func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: r.db, q: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, user.FullName, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

const userColumns = `id, email, password_hash, full_name, role, last_login_at, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, timestamp int64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, timestamp, userID)
	return err
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullInt64
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role, &lastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Int64
	}
	return user, nil
}

type MemberRepository struct {
	db *sql.DB
	q  DBTX
}

func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db, q: db}
}

func (r *MemberRepository) WithTx(tx *sql.Tx) *MemberRepository {
	return &MemberRepository{db: r.db, q: tx}
}

func (r *MemberRepository) Add(ctx context.Context, member *models.Member) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO members (id, organization_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, member.ID, member.OrganizationID, member.UserID, member.Role, member.CreatedAt)
	return err
}

// GetRole returns the user's role in the organization, or "" when not a member.
func (r *MemberRepository) GetRole(ctx context.Context, orgID, userID string) (string, error) {
	var role string
	err := r.q.QueryRowContext(ctx, `SELECT role FROM members WHERE organization_id = ? AND user_id = ?`, orgID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return role, err
}

// IsAdminOfAny reports whether the user is owner or admin of at least one organization.
func (r *MemberRepository) IsAdminOfAny(ctx context.Context, userID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM members WHERE user_id = ? AND role IN ('owner', 'admin')
	`, userID).Scan(&n)
	return n > 0, err
}

// ListOrganizations returns the organizations the user belongs to.
func (r *MemberRepository) ListOrganizations(ctx context.Context, userID string) ([]*models.Organization, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT o.id, o.slug, o.name, o.allowed_features, o.is_sandbox, o.created_at, o.updated_at
		FROM organizations o JOIN members m ON m.organization_id = o.id
		WHERE m.user_id = ?
		ORDER BY o.name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := []*models.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}
