package ui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"promptdeck/internal/logging"
	"promptdeck/internal/models"
	"promptdeck/internal/stream"
)

func InitialModel(session ChatSession, prober HealthProber, profiles ProfileSwitcher, logger *slog.Logger) Model {
	ti := textarea.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = MaxInputHeight
	ti.SetHeight(2)
	ti.SetWidth(80)
	ti.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#B39DDB")).Bold(true)
	ti.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#B39DDB")).Bold(true)
	ti.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#B39DDB"))

	active := profiles.Active(context.Background())

	return Model{
		TextInput:            ti,
		Viewport:             viewport.New(60, 15),
		Spinner:              sp,
		Messages:             []string{},
		Logger:               logging.OrDefault(logger),
		Session:              session,
		Prober:               prober,
		Profiles:             profiles,
		ActiveProfile:        active,
		Health:               models.HealthChecking,
		Chat:                 stream.Initial(),
		SelectedProfileIndex: profileIndex(profiles.Profiles().All(), active.ID),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.TextInput.Cursor.BlinkCmd(),
		m.Spinner.Tick,
		m.checkHealth(),
	)
}

func NewProgram(session ChatSession, prober HealthProber, profiles ProfileSwitcher, logger *slog.Logger) *tea.Program {
	m := InitialModel(session, prober, profiles, logger)
	return tea.NewProgram(&m, tea.WithAltScreen())
}
