package features

// Status is the lifecycle stage of a feature.
type Status string

const (
	StatusDev    Status = "dev"
	StatusBeta   Status = "beta"
	StatusStable Status = "stable"
)

type Feature struct {
	Key           string `json:"key"`
	Label         string `json:"label"`
	Description   string `json:"description"`
	Status        Status `json:"status"`
	Icon          string `json:"icon,omitempty"`
	Category      string `json:"category,omitempty"`
	Route         string `json:"route,omitempty"`
	ShowInSidebar bool   `json:"show_in_sidebar"`
}

// registry is the process-wide feature table. It is never mutated after init;
// toggles operate on an organization's stored flags only.
var registry = []Feature{
	{
		Key:           "dashboard",
		Label:         "Dashboard",
		Description:   "Overview of the organization's activity.",
		Status:        StatusStable,
		Icon:          "layout-dashboard",
		Category:      "general",
		Route:         "/dashboard",
		ShowInSidebar: true,
	},
	{
		Key:           "calendar",
		Label:         "Calendar",
		Description:   "Shared calendar and scheduling.",
		Status:        StatusStable,
		Icon:          "calendar",
		Category:      "productivity",
		Route:         "/calendar",
		ShowInSidebar: true,
	},
	{
		Key:           "tasks",
		Label:         "Tasks",
		Description:   "Task boards and assignments.",
		Status:        StatusStable,
		Icon:          "check-square",
		Category:      "productivity",
		Route:         "/tasks",
		ShowInSidebar: true,
	},
	{
		Key:           "uploads",
		Label:         "Uploads",
		Description:   "File uploads and shared documents.",
		Status:        StatusStable,
		Icon:          "upload",
		Category:      "files",
		Route:         "/uploads",
		ShowInSidebar: true,
	},
	{
		Key:           "forms",
		Label:         "Briefings",
		Description:   "Public briefing forms and their submissions.",
		Status:        StatusStable,
		Icon:          "clipboard-list",
		Category:      "files",
		Route:         "/forms",
		ShowInSidebar: true,
	},
	{
		Key:           "mail",
		Label:         "Mail",
		Description:   "Team inbox.",
		Status:        StatusBeta,
		Icon:          "mail",
		Category:      "communication",
		Route:         "/mail",
		ShowInSidebar: true,
	},
	{
		Key:           "chat",
		Label:         "Chat",
		Description:   "Real-time chat between members.",
		Status:        StatusBeta,
		Icon:          "message-circle",
		Category:      "communication",
		Route:         "/chat",
		ShowInSidebar: true,
	},
	{
		Key:         "reports",
		Label:       "Reports",
		Description: "Exportable activity reports.",
		Status:      StatusBeta,
		Icon:        "bar-chart",
		Category:    "general",
		Route:       "/reports",
	},
	{
		Key:           "ai-assistant",
		Label:         "AI Assistant",
		Description:   "Assistant for drafting briefings and replies.",
		Status:        StatusDev,
		Icon:          "sparkles",
		Category:      "labs",
		Route:         "/assistant",
		ShowInSidebar: true,
	},
}

var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, f := range registry {
		if _, dup := idx[f.Key]; dup {
			panic("features: duplicate key " + f.Key)
		}
		idx[f.Key] = i
	}
	return idx
}()

// All returns a copy of the registry in declaration order.
func All() []Feature {
	out := make([]Feature, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the registry entry for key.
func Lookup(key string) (Feature, bool) {
	i, ok := registryIndex[key]
	if !ok {
		return Feature{}, false
	}
	return registry[i], true
}
