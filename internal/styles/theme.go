package styles

import (
	"github.com/charmbracelet/lipgloss"

	"promptdeck/internal/models"
)

// Theme defines the semantic colors the status bar and badges draw from
type Theme struct {
	Primary   lipgloss.Color
	TextMuted lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var DarkTheme = Theme{
	Primary:   lipgloss.Color("#818CF8"), // Indigo 400
	TextMuted: lipgloss.Color("#64748B"), // Slate 500
	Success:   lipgloss.Color("#34D399"), // Emerald 400
	Warning:   lipgloss.Color("#FBBF24"), // Amber 400
	Error:     lipgloss.Color("#FB7185"), // Rose 400
}

var LightTheme = Theme{
	Primary:   lipgloss.Color("#4F46E5"), // Indigo 600
	TextMuted: lipgloss.Color("#A1A1AA"), // Zinc 400
	Success:   lipgloss.Color("#10B981"), // Emerald 500
	Warning:   lipgloss.Color("#F59E0B"), // Amber 500
	Error:     lipgloss.Color("#EF4444"), // Red 500
}

// CurrentTheme holds the active theme (set at runtime based on terminal)
var CurrentTheme = DarkTheme

// InitTheme sets the current theme based on terminal background
func InitTheme() {
	if lipgloss.HasDarkBackground() {
		CurrentTheme = DarkTheme
	} else {
		CurrentTheme = LightTheme
	}
}

// HealthColor maps a backend health status onto the theme.
func HealthColor(h models.HealthStatus) lipgloss.Color {
	switch h {
	case models.HealthHealthy:
		return CurrentTheme.Success
	case models.HealthUnhealthy:
		return CurrentTheme.Error
	case models.HealthChecking:
		return CurrentTheme.Warning
	}
	return CurrentTheme.TextMuted
}

// HealthLabel is the short text shown next to the health dot.
func HealthLabel(h models.HealthStatus) string {
	switch h {
	case models.HealthHealthy:
		return "Connected"
	case models.HealthUnhealthy:
		return "Disconnected"
	case models.HealthChecking:
		return "Checking..."
	}
	return "Unknown"
}

// StatusColor maps a chat status onto the theme.
func StatusColor(s models.ChatStatus) lipgloss.Color {
	switch s {
	case models.StatusComplete:
		return CurrentTheme.Success
	case models.StatusError:
		return CurrentTheme.Error
	case models.StatusProcessing:
		return CurrentTheme.Warning
	}
	return CurrentTheme.TextMuted
}

// ProfileColor returns the accent for a backend profile
func ProfileColor(id models.ProfileID) lipgloss.Color {
	if c, ok := ProfileColors[string(id)]; ok {
		return lipgloss.Color(c)
	}
	return CurrentTheme.Primary
}
