package parser

import "strings"

// Client is the coarse description of a user agent shown in audit trails.
type Client struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

func (c Client) String() string {
	return c.Browser + " on " + c.OS
}

type marker struct {
	needle string
	name   string
}

// Order matters: mobile platforms also advertise their desktop ancestors and
// Edge/Opera advertise Chrome.
var (
	osMarkers = []marker{
		{"iphone", "iOS"},
		{"ipad", "iOS"},
		{"android", "Android"},
		{"windows", "Windows"},
		{"mac os", "macOS"},
		{"cros", "ChromeOS"},
		{"linux", "Linux"},
	}
	browserMarkers = []marker{
		{"edg", "Edge"},
		{"opr/", "Opera"},
		{"firefox", "Firefox"},
		{"fxios", "Firefox"},
		{"crios", "Chrome"},
		{"chrome", "Chrome"},
		{"safari", "Safari"},
		{"curl/", "curl"},
	}
)

func ParseUserAgent(ua string) Client {
	ua = strings.ToLower(ua)
	return Client{
		OS:      match(ua, osMarkers),
		Browser: match(ua, browserMarkers),
	}
}

func match(ua string, markers []marker) string {
	for _, m := range markers {
		if strings.Contains(ua, m.needle) {
			return m.name
		}
	}
	return "Unknown"
}
