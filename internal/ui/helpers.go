package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"promptdeck/internal/models"
	"promptdeck/internal/styles"
)

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	lines := strings.Split(value, "\n")
	if len(lines) == 0 {
		return 1
	}
	count := 0
	for _, line := range lines {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}

func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

// RenderFragments shows each fragment as its own paragraph, in arrival
// order. A nil renderer leaves the text as-is.
func RenderFragments(fragments []string, renderer *glamour.TermRenderer) string {
	text := strings.Join(fragments, "\n\n")
	if renderer == nil || strings.TrimSpace(text) == "" {
		return text
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(rendered)
}

func profileIndex(all []models.Profile, id models.ProfileID) int {
	for i, p := range all {
		if p.ID == id {
			return i
		}
	}
	return 0
}

// ProfileLabel is the short badge text for a profile, e.g. "GEMINI".
func ProfileLabel(p models.Profile) string {
	if p.ID == "" {
		return "PROMPTDECK"
	}
	return strings.ToUpper(string(p.ID))
}

func FormatUserMessage(content string, width int, isFirst bool) string {
	label := styles.UserLabelStyle.Render("YOU")
	msg := styles.UserMsgStyle.Width(width - 4).Render(content)
	if isFirst {
		return fmt.Sprintf("\n%s\n%s", label, msg)
	}
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatAIMessage(p models.Profile, content string) string {
	label := styles.AiLabelStyle.
		Background(styles.ProfileColor(p.ID)).
		Render(ProfileLabel(p))
	if content == "" {
		content = lipgloss.NewStyle().Foreground(styles.HintColor).Render("(empty response)")
	}
	msg := styles.AiMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}
