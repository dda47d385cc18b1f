package ui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"promptdeck/internal/models"
)

const (
	MaxChatWidth   = 100
	MaxInputHeight = 6
)

// ModalWidth tracks the terminal width; see the WindowSizeMsg handler.
var ModalWidth = 60

// ChatSession is the part of chat.Session the UI drives.
type ChatSession interface {
	Send(ctx context.Context, message string) <-chan models.ChatState
	Reset()
}

// HealthProber is the part of client.Client the status badge needs.
type HealthProber interface {
	ProbeHealth(ctx context.Context, p models.Profile) bool
}

// ProfileSwitcher is the part of profile.Resolver behind the backend selector.
type ProfileSwitcher interface {
	Profiles() models.Profiles
	Active(ctx context.Context) models.Profile
	SetActive(ctx context.Context, id models.ProfileID) error
	Toggle(ctx context.Context) (models.Profile, error)
}

type ErrMsg error

// HealthMsg is the result of one probe. It is dropped if the active
// profile changed while the probe ran.
type HealthMsg struct {
	ProfileID models.ProfileID
	Healthy   bool
}

// ChatUpdateMsg carries one snapshot from a send's update channel.
type ChatUpdateMsg struct {
	State   models.ChatState
	Updates <-chan models.ChatState
}

// ChatDoneMsg means the update channel closed.
type ChatDoneMsg struct {
	Updates <-chan models.ChatState
}

type Model struct {
	Viewport  viewport.Model
	Messages  []string
	TextInput textarea.Model
	Spinner   spinner.Model
	Renderer  *glamour.TermRenderer
	Logger    *slog.Logger
	Err       error

	Session  ChatSession
	Prober   HealthProber
	Profiles ProfileSwitcher

	ActiveProfile models.Profile
	Health        models.HealthStatus

	// Chat mirrors the latest snapshot of the send in flight.
	Chat         models.ChatState
	updates      <-chan models.ChatState
	replyProfile models.Profile

	WindowWidth  int
	WindowHeight int

	ProfileSelectorOpen  bool
	SelectedProfileIndex int
	ShortcutsOpen        bool
}
