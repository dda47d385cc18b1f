package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"promptdeck/internal/models"
	"promptdeck/internal/styles"
)

func (m *Model) RenderProfileSelector() string {
	title := styles.ModalTitleStyle.Render("Select Backend")

	var items []string
	for i, p := range m.Profiles.Profiles().All() {
		isSelected := i == m.SelectedProfileIndex
		isCurrent := p.ID == m.ActiveProfile.ID

		displayName := p.Name
		if isCurrent {
			displayName = "● " + displayName
		} else {
			displayName = "  " + displayName
		}

		if isSelected {
			items = append(items, styles.ModalSelectedStyle.Width(styles.ContentWidth).Render(displayName))
		} else {
			style := styles.ModalItemStyle.Width(styles.ContentWidth)
			if isCurrent {
				style = style.Foreground(styles.ProfileColor(p.ID))
			} else {
				style = style.Foreground(lipgloss.AdaptiveColor{Light: "#1a1a2e", Dark: "#FFFFFF"})
			}
			items = append(items, style.Render(displayName))
		}
		items = append(items, styles.EndpointStyle.Render(TruncateRunes(p.BaseURL, styles.ContentWidth-6)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...))

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("↑/↓: navigate • Enter: select • Esc: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Keyboard Shortcuts")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Ctrl+C", "Quit Application"},
		{"Ctrl+N", "New Chat Session"},
		{"Ctrl+B", "Select Backend"},
		{"Ctrl+T", "Toggle Backend"},
		{"Ctrl+R", "Recheck Backend Health"},
		{"Ctrl+S", "View Shortcuts (this menu)"},
		{"Ctrl+J", "Insert Newline"},
	}

	var items []string
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFCC80")).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E0E0E0"))

	for _, s := range shortcuts {
		line := fmt.Sprintf("%s %s", keyStyle.Render(s.key), descStyle.Render(s.desc))
		items = append(items, styles.ModalItemStyle.Render(line))
	}

	listContent := lipgloss.JoinVertical(lipgloss.Left, items...)
	content := lipgloss.JoinVertical(lipgloss.Left, title, listContent)

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("Esc/Enter: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderBottomBar() string {
	badge := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.ProfileColor(m.ActiveProfile.ID)).
		Padding(0, 1).
		Render(ProfileLabel(m.ActiveProfile))

	endpoint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(TruncateRunes(m.ActiveProfile.BaseURL, 30))

	health := lipgloss.NewStyle().
		Foreground(styles.HealthColor(m.Health)).
		Render("● " + styles.HealthLabel(m.Health))

	status := lipgloss.NewStyle().
		Foreground(styles.StatusColor(m.Chat.Status)).
		Render(string(m.Chat.Status))

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Render("Help: ^S")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, badge, "  ", endpoint, "  ", health)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Center, status, "  ", help)

	availableWidth := m.WindowWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide) - 2 // -2 for padding
	if availableWidth < 0 {
		availableWidth = 0
	}
	spacer := strings.Repeat(" ", availableWidth)

	bar := lipgloss.JoinHorizontal(lipgloss.Center, leftSide, spacer, rightSide)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(0, 1).
		Render(bar)
}

func GetWelcomeScreen(width, height int) string {
	art := `
 ╭──────────────────────────────────────────────╮
 │                                              │
 │   ┌─┐┬─┐┌─┐┌┬┐┌─┐┌┬┐  ┌┬┐┌─┐┌─┐┬┌─          │
 │   ├─┘├┬┘│ ││││├─┘ │    ││├┤ │  ├┴┐          │
 │   ┴  ┴└─└─┘┴ ┴┴   ┴   ─┴┘└─┘└─┘┴ ┴          │
 │                                              │
 ╰──────────────────────────────────────────────╯
`
	subtitle := "Ctrl+B to pick a backend, Enter to send."

	styledArt := styles.WelcomeArtStyle.Render(art)
	styledSubtitle := styles.WelcomeSubtitleStyle.Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, styledArt, "", styledSubtitle)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// renderLive draws the exchange in flight: fragments so far under a spinner.
func (m *Model) renderLive() string {
	label := styles.AiLabelStyle.
		Background(styles.ProfileColor(m.replyProfile.ID)).
		Render(ProfileLabel(m.replyProfile))

	parts := []string{label, fmt.Sprintf("%s Processing...", m.Spinner.View())}
	if n := len(m.Chat.Fragments); n > 0 {
		parts = append(parts,
			styles.AiMsgStyle.Render(RenderFragments(m.Chat.Fragments, m.Renderer)),
			styles.FragmentCountStyle.Render(fmt.Sprintf("%d parts received", n)),
		)
	}
	return strings.Join(parts, "\n")
}

func (m *Model) UpdateViewport() {
	processing := m.Chat.Status == models.StatusProcessing
	if len(m.Messages) == 0 && !processing {
		m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height))
		return
	}

	content := strings.Join(m.Messages, "\n\n")
	if processing {
		live := m.renderLive()
		if len(m.Messages) > 0 {
			content = content + "\n\n" + live
		} else {
			content = live
		}
	}
	m.Viewport.SetContent(content)
	m.Viewport.GotoBottom()
}

func (m *Model) renderModal(body string) string {
	modal := styles.ModalStyle.Width(ModalWidth).Render(body)
	return lipgloss.Place(
		m.WindowWidth,
		m.WindowHeight,
		lipgloss.Center,
		lipgloss.Center,
		modal,
	)
}

func (m *Model) View() string {
	if m.ProfileSelectorOpen {
		return m.renderModal(m.RenderProfileSelector())
	}
	if m.ShortcutsOpen {
		return m.renderModal(m.RenderShortcutsModal())
	}

	inputWidth := m.WindowWidth - 4
	inputBox := styles.InputBoxStyle.Width(inputWidth).Render(m.TextInput.View())

	chatContent := lipgloss.JoinVertical(lipgloss.Center,
		styles.TitleStyle.Render("PROMPTDECK"),
		"",
		m.Viewport.View(),
		"",
		inputBox,
	)
	chatArea := lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, chatContent)

	return lipgloss.JoinVertical(lipgloss.Left, chatArea, m.RenderBottomBar())
}
