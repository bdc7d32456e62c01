package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorFox     = lipgloss.Color("#F97316")
	ColorFoxDark = lipgloss.Color("#7C2D12")
	ColorRed     = lipgloss.Color("#EF4444")
	ColorGreen   = lipgloss.Color("#22C55E")
	ColorYellow  = lipgloss.Color("#FACC15")
	ColorCream   = lipgloss.Color("#FEF9C3")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorBlack   = lipgloss.Color("#000000")
	ColorMagenta = lipgloss.Color("#FF00FF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorFox)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	TaskNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorFox)

	ClockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen).
			Background(ColorBlack).
			Padding(0, 2)

	RunningStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	RecordingDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	OnlineStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	OfflineStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	ButtonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorFox).
			Padding(0, 1)

	ButtonDisabledStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Background(ColorDimGray).
				Padding(0, 1)

	ButtonDangerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorWhite).
				Background(ColorRed).
				Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	InfoTextStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	PartialTextStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	NoteStyle = lipgloss.NewStyle().
			Foreground(ColorCream)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DurationStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorFox)

	HistoryNameStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorFoxDark)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)
)
