package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPurple      = lipgloss.Color("#7D56F4")
	ColorGreen       = lipgloss.Color("#25A065")
	ColorBlue        = lipgloss.Color("#4285F4")
	ColorRed         = lipgloss.Color("#E05252")
	ColorYellow      = lipgloss.Color("#E5C07B")
	ColorGray        = lipgloss.Color("#626262")
	ColorGrayDim     = lipgloss.Color("#404040")
	ColorWhite       = lipgloss.Color("#FFFFFF")
	ColorOffWhite    = lipgloss.Color("#D0D0D0")
	ColorMagenta     = lipgloss.Color("#C678DD")
	ColorSelectionBg = lipgloss.Color("#2D3B4D")
	ColorCyan        = lipgloss.Color("#56B6C2")
	ColorOrange      = lipgloss.Color("#D19A66")
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	HeaderCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	DayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorPurple).
			Padding(0, 1)

	PastDayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorOrange).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

// Habit row styles
var (
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorSelectionBg)

	NormalStyle = lipgloss.NewStyle()

	DoneStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	NotDoneStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	NoDataStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	UnloggedStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	StreakStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMagenta)
)

// Detail panel styles
var (
	DetailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorWhite)

	DetailLabelStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Width(14)

	DetailValueStyle = lipgloss.NewStyle().
				Foreground(ColorOffWhite)

	KeywordStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	NoteDateStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)
)

// Input styles
var (
	InputPromptStyle = lipgloss.NewStyle().
				Foreground(ColorPurple).
				Bold(true)

	SearchBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SearchCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)
)

// Status icons
const (
	IconDone     = "✓"
	IconNotDone  = "✗"
	IconNoData   = "·"
	IconUnlogged = "○"
	IconStreak   = "▲"
)
