package chart

import "github.com/emiliopalmerini/effortmap/internal/user"

// ThemeColors are the canvas colors per theme, matching the web UI.
type ThemeColors struct {
	Background string
	Text       string
}

var themes = map[user.Theme]ThemeColors{
	user.ThemeDark:  {Background: "#1a1a1a", Text: "#e5e5e5"},
	user.ThemeLight: {Background: "#ffffff", Text: "#1a1a1a"},
}

// Colors returns the canvas colors for theme, defaulting to dark.
func Colors(theme user.Theme) ThemeColors {
	if c, ok := themes[theme]; ok {
		return c
	}
	return themes[user.ThemeDark]
}
