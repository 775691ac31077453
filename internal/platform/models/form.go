package models

type FormField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // text, textarea, email, select, ranking
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type FormStep struct {
	Title  string      `json:"title"`
	Fields []FormField `json:"fields"`
}

type Form struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Slug           string     `json:"slug"`
	Title          string     `json:"title"`
	Steps          []FormStep `json:"steps"` // JSON array in DB
	Published      bool       `json:"published"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      int64      `json:"created_at"`
	UpdatedAt      int64      `json:"updated_at"`
}

type Submission struct {
	ID        string         `json:"id"`
	FormID    string         `json:"form_id"`
	Answers   map[string]any `json:"answers"` // JSON object in DB
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	CreatedAt int64          `json:"created_at"`
}
