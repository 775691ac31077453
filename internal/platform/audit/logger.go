package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"decode/internal/pkg/parser"
)

const (
	ActionClientCreated      = "organization.created"
	ActionFeatureToggled     = "organization.feature_toggled"
	ActionFeaturesSet        = "organization.features_set"
	ActionSandboxChanged     = "organization.sandbox_changed"
	ActionGrantsReconciled   = "organization.grants_reconciled"
	ActionImpersonationStart = "session.impersonation_started"
	ActionImpersonationStop  = "session.impersonation_stopped"
	ActionFormCreated        = "form.created"
)

type AuditLog struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	UserID         string         `json:"user_id"`
	ImpersonatedBy string         `json:"impersonated_by,omitempty"`
	Action         string         `json:"action"`
	ResourceType   string         `json:"resource_type"`
	ResourceID     string         `json:"resource_id"`
	Metadata       map[string]any `json:"metadata"`
	IPAddress      string         `json:"ip_address"`
	UserAgent      string         `json:"user_agent"`
	CreatedAt      int64          `json:"created_at"`
}

type Logger struct {
	globalDB *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{globalDB: db}
}

// Log records an entry. Failures are logged and never returned so an audit
// outage cannot fail the action being audited.
func (l *Logger) Log(ctx context.Context, entry AuditLog) {
	if entry.ID == "" {
		entry.ID = "audit_" + uuid.NewString()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	meta := make(map[string]any, len(entry.Metadata)+1)
	for k, v := range entry.Metadata {
		meta[k] = v
	}
	if entry.UserAgent != "" {
		meta["client"] = parser.ParseUserAgent(entry.UserAgent).String()
	}
	metaJSON, _ := json.Marshal(meta)

	_, err := l.globalDB.ExecContext(ctx, `
		INSERT INTO audit_logs (id, organization_id, user_id, impersonated_by, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.OrganizationID, entry.UserID, entry.ImpersonatedBy, entry.Action, entry.ResourceType, entry.ResourceID,
		string(metaJSON), entry.IPAddress, entry.UserAgent, entry.CreatedAt)
	if err != nil {
		log.Error().Err(err).Str("action", entry.Action).Str("resource_id", entry.ResourceID).Msg("failed to write audit log")
	}
}

// List returns the newest entries, optionally filtered by organization.
func (l *Logger) List(ctx context.Context, orgID string, limit int) ([]AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, organization_id, user_id, impersonated_by, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at FROM audit_logs`
	args := []any{}
	if orgID != "" {
		query += ` WHERE organization_id = ?`
		args = append(args, orgID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.globalDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []AuditLog{}
	for rows.Next() {
		var e AuditLog
		var metaStr string
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.UserID, &e.ImpersonatedBy, &e.Action, &e.ResourceType, &e.ResourceID, &metaStr, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(metaStr), &e.Metadata)
		logs = append(logs, e)
	}
	return logs, rows.Err()
}
