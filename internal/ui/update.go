package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"promptdeck/internal/models"
	"promptdeck/internal/stream"
	"promptdeck/internal/styles"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.Chat.Status == models.StatusProcessing {
			m.UpdateViewport()
		}
		return m, spCmd

	case tea.KeyMsg:
		if m.ProfileSelectorOpen {
			all := m.Profiles.Profiles().All()
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "ctrl+b":
				m.ProfileSelectorOpen = false
				return m, nil
			case "up", "k":
				m.SelectedProfileIndex--
				if m.SelectedProfileIndex < 0 {
					m.SelectedProfileIndex = len(all) - 1
				}
				return m, nil
			case "down", "j":
				m.SelectedProfileIndex++
				if m.SelectedProfileIndex >= len(all) {
					m.SelectedProfileIndex = 0
				}
				return m, nil
			case "enter":
				m.ProfileSelectorOpen = false
				if m.SelectedProfileIndex < 0 || m.SelectedProfileIndex >= len(all) {
					return m, nil
				}
				return m, m.switchProfile(all[m.SelectedProfileIndex].ID)
			}
			return m, nil
		}

		if m.ShortcutsOpen {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "?", "ctrl+s":
				m.ShortcutsOpen = false
				return m, nil
			}
			return m, nil
		}

		if isNewlineShortcut(msg) {
			m.TextInput.InsertString("\n")
			m.updateInputLayout()
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyCtrlN:
			m.ResetSession()
			return m, nil

		case tea.KeyCtrlB:
			m.ProfileSelectorOpen = true
			m.ShortcutsOpen = false
			m.SelectedProfileIndex = profileIndex(m.Profiles.Profiles().All(), m.ActiveProfile.ID)
			return m, nil

		case tea.KeyCtrlT:
			p, err := m.Profiles.Toggle(context.Background())
			if err != nil {
				return m, func() tea.Msg { return ErrMsg(err) }
			}
			m.ActiveProfile = p
			return m, m.checkHealth()

		case tea.KeyCtrlR:
			return m, m.checkHealth()

		case tea.KeyCtrlS:
			m.ShortcutsOpen = true
			m.ProfileSelectorOpen = false
			return m, nil

		case tea.KeyEnter:
			if m.Chat.Status == models.StatusProcessing {
				return m, nil
			}
			input := strings.TrimSpace(m.TextInput.Value())
			if input == "" {
				return m, nil
			}

			if input == "/clear" || input == "/reset" {
				m.ResetSession()
				return m, nil
			}

			m.Messages = append(m.Messages, FormatUserMessage(input, m.Viewport.Width, len(m.Messages) == 0))
			m.TextInput.Reset()
			m.updateInputLayout()

			m.replyProfile = m.ActiveProfile
			m.updates = m.Session.Send(context.Background(), input)
			m.Chat = stream.Fresh()
			m.UpdateViewport()

			return m, tea.Batch(waitForUpdate(m.updates), m.Spinner.Tick)
		}

	case HealthMsg:
		if msg.ProfileID != m.ActiveProfile.ID {
			return m, nil
		}
		if msg.Healthy {
			m.Health = models.HealthHealthy
		} else {
			m.Health = models.HealthUnhealthy
		}
		return m, nil

	case ChatUpdateMsg:
		if msg.Updates != m.updates {
			return m, nil
		}
		m.Chat = msg.State
		m.UpdateViewport()
		return m, waitForUpdate(msg.Updates)

	case ChatDoneMsg:
		if msg.Updates != m.updates {
			return m, nil
		}
		m.updates = nil
		m.finishExchange()
		m.UpdateViewport()
		return m, nil

	case ErrMsg:
		m.Err = msg
		m.Messages = append(m.Messages, styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", msg)))
		m.UpdateViewport()
		return m, nil

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height

		ModalWidth = msg.Width - 10
		if ModalWidth > 60 {
			ModalWidth = 60
		}
		if ModalWidth < 30 {
			ModalWidth = 30
		}
		styles.ContentWidth = ModalWidth - 6

		chatWidth := msg.Width - 2
		if chatWidth > MaxChatWidth {
			chatWidth = MaxChatWidth
		}
		m.Viewport.Width = chatWidth - 2

		m.updateInputLayout()
		glamourStyle := "dark"
		if !lipgloss.HasDarkBackground() {
			glamourStyle = "light"
		}
		m.Renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath(glamourStyle),
			glamour.WithWordWrap(chatWidth-6),
		)
		m.UpdateViewport()
		return m, nil
	}

	m.TextInput, tiCmd = m.TextInput.Update(msg)
	m.updateInputLayout()

	// Filter out terminal background color queries and cursor reference codes that leak into the input
	val := m.TextInput.Value()
	if strings.Contains(val, "]11;rgb:") || strings.Contains(val, "1;rgb:") || strings.Contains(val, "[1;1R") {
		m.TextInput.Reset()
	}

	m.Viewport, vpCmd = m.Viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

// waitForUpdate blocks on the next snapshot of one send.
func waitForUpdate(ch <-chan models.ChatState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return ChatDoneMsg{Updates: ch}
		}
		return ChatUpdateMsg{State: st, Updates: ch}
	}
}

// checkHealth marks the badge as checking and probes the active profile.
func (m *Model) checkHealth() tea.Cmd {
	m.Health = models.HealthChecking
	p := m.ActiveProfile
	prober := m.Prober
	return func() tea.Msg {
		return HealthMsg{ProfileID: p.ID, Healthy: prober.ProbeHealth(context.Background(), p)}
	}
}

func (m *Model) switchProfile(id models.ProfileID) tea.Cmd {
	if id == m.ActiveProfile.ID {
		return nil
	}
	ctx := context.Background()
	if err := m.Profiles.SetActive(ctx, id); err != nil {
		return func() tea.Msg { return ErrMsg(err) }
	}
	m.ActiveProfile = m.Profiles.Active(ctx)
	m.Logger.Info("Backend profile changed", "profile", m.ActiveProfile.ID)
	return m.checkHealth()
}

// finishExchange moves the terminal snapshot into the transcript.
func (m *Model) finishExchange() {
	switch m.Chat.Status {
	case models.StatusComplete:
		content := RenderFragments(m.Chat.Fragments, m.Renderer)
		m.Messages = append(m.Messages, FormatAIMessage(m.replyProfile, content))
	case models.StatusError:
		m.Messages = append(m.Messages, styles.ErrorStyle.Render("Error: "+m.Chat.Error))
	}
	m.Chat = stream.Initial()
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "shift+return", "ctrl+j", "ctrl+enter", "alt+enter":
		return true
	default:
		return false
	}
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.WindowWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > MaxInputHeight {
		lineCount = MaxInputHeight
	}

	m.TextInput.MaxHeight = MaxInputHeight
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	inputBoxHeight := m.TextInput.Height() + 2
	reserved := inputBoxHeight + 5
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Height = viewportHeight
}

// ResetSession drops the transcript and any send in flight.
func (m *Model) ResetSession() {
	m.Session.Reset()
	m.updates = nil
	m.Chat = stream.Initial()
	m.Messages = []string{}
	m.Err = nil
	m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height))
	m.Viewport.GotoTop()
	m.TextInput.Reset()
	m.updateInputLayout()
}
