package user

import "time"

// User is an app account. The API token authenticates mutating requests.
type User struct {
	ID        string
	Email     string
	APIToken  string
	CreatedAt time.Time
}

// Theme is the chart rendering palette preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme for s, falling back to dark, the rendering
// default of the chart pipeline.
func ParseTheme(s string) Theme {
	if s == string(ThemeLight) {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences drives per-user chart rendering.
type Preferences struct {
	UserID string
	Theme  Theme
}
