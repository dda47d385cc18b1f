package styles

import "github.com/charmbracelet/lipgloss"

// ContentWidth is the inner width of modals; the UI resizes it with the window.
var ContentWidth = 54

// Palette shared by the transcript, modals and input box.
var (
	accent    = lipgloss.Color("#B39DDB")
	userColor = lipgloss.Color("#90CAF9")
	white     = lipgloss.Color("#FFFFFF")
	muted     = lipgloss.Color("#888888")
	body      = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#E0E0E0"}

	HintColor = lipgloss.Color("#545454")
)

func badge(bg lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(white).Background(bg).Bold(true).Padding(0, 1).MarginRight(1)
}

func leftRule(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(body).BorderLeft(true).BorderStyle(lipgloss.ThickBorder()).BorderForeground(c)
}

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)

	UserLabelStyle = badge(userColor)
	UserMsgStyle   = leftRule(userColor).PaddingLeft(2)

	// AiLabelStyle takes the replying profile's color at render time.
	AiLabelStyle = badge(accent)
	AiMsgStyle   = leftRule(accent).PaddingTop(1)

	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF9A9A")).Bold(true)

	FragmentCountStyle = lipgloss.NewStyle().Foreground(HintColor).PaddingLeft(2)

	InputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)

	WelcomeArtStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}).Bold(true)
	WelcomeSubtitleStyle = lipgloss.NewStyle().Foreground(HintColor).Italic(true)

	ModalStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(1, 2)
	ModalTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent).Width(ContentWidth).MarginBottom(1)
	ModalItemStyle     = lipgloss.NewStyle().Padding(0, 1).Width(ContentWidth)
	ModalSelectedStyle = ModalItemStyle.Background(lipgloss.Color("#5C5C7A")).Foreground(white)

	// EndpointStyle renders a profile's base URL under its name.
	EndpointStyle = lipgloss.NewStyle().Foreground(muted).PaddingLeft(4)
)

// ProfileColors keys are models.ProfileID values.
var ProfileColors = map[string]string{
	"gemini": "#CE93D8",
	"openai": "#A5D6A7",
}
