package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/clock"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation"
	"github.com/Smailkiller/FOXFOCUS/internal/history"
	"github.com/Smailkiller/FOXFOCUS/internal/notify"
	"github.com/Smailkiller/FOXFOCUS/internal/session"
	"github.com/Smailkiller/FOXFOCUS/internal/ui"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	tea "github.com/charmbracelet/bubbletea"
)

// User-facing messages.
const (
	msgEmptyTaskName    = "Назовите задачу!"
	msgMicrophone       = "Ошибка доступа к микрофону."
	msgServer           = "Ошибка сервера. Попробуйте оффлайн режим (отключите интернет или используйте другой браузер)."
	msgRecognition      = "Ошибка распознавания."
	msgNothing          = "Речь не распознана (Тишина?)"
	msgNoOffline        = "Оффлайн режим не поддерживается вашим браузером. Подключитесь к интернету."
	msgNoNotes          = "Нет заметок..."
	msgEmptyHistory     = "Пусто"
	msgCopied           = "Скопировано"
	msgNothingToCopy    = "Нечего копировать"
	msgCopyFailed       = "Не удалось скопировать."
	msgAttemptInFlight  = "Диктовка уже идёт."
	msgNotCapturing     = "Диктовка не запущена."
	msgSessionActive    = "Задача уже запущена."
	msgNoSession        = "Нет активной задачи."
	msgInvalidAction    = "Действие сейчас недоступно."
	msgUnknown          = "Что-то пошло не так."
	placeholderTaskName = "Название задачи..."
	placeholderNote     = "Заметка..."
)

// Config holds the collaborators the TUI drives.
type Config struct {
	Lifecycle     *session.Lifecycle
	History       *history.Store
	Dictation     *dictation.Controller
	Network       dictation.Reachability
	ProbeInterval time.Duration
	Notifier      notify.Notifier
	Copy          func(text string) error
	Log           zerolog.Logger
}

// Model is the root bubbletea model for the FoxFocus TUI.
type Model struct {
	lifecycle     *session.Lifecycle
	history       *history.Store
	dictation     *dictation.Controller
	network       dictation.Reachability
	probeInterval time.Duration
	notifier      notify.Notifier
	copy          func(text string) error
	log           zerolog.Logger

	// Session state, refreshed from the lifecycle after every change
	session session.Session

	// Inputs
	nameInput textinput.Model
	noteInput textinput.Model

	// Dictation
	dictState   dictation.State
	dictMode    dictation.Mode
	dictSession string
	partialText string
	spinner     spinner.Model

	// Network
	online      bool
	onlineKnown bool

	// UI state
	showHistory bool
	width       int
	height      int

	// Errors
	errorMessage   string
	errorTransient bool
	infoMessage    string
}

// New creates a new Model with default state.
func New(cfg Config) Model {
	name := textinput.New()
	name.Placeholder = placeholderTaskName
	name.CharLimit = 120
	name.Prompt = "› "
	name.Focus()

	note := textinput.New()
	note.Placeholder = placeholderNote
	note.CharLimit = 500
	note.Prompt = "› "

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(ui.SpinnerStyle),
	)

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	interval := cfg.ProbeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return Model{
		lifecycle:     cfg.Lifecycle,
		history:       cfg.History,
		dictation:     cfg.Dictation,
		network:       cfg.Network,
		probeInterval: interval,
		notifier:      notifier,
		copy:          cfg.Copy,
		log:           cfg.Log,
		nameInput:     name,
		noteInput:     note,
		spinner:       sp,
	}
}

// Init starts the tick listener, the preview listener and the first probe.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		waitTickCmd(m.lifecycle.Ticks()),
	}
	if m.dictation != nil {
		cmds = append(cmds, waitPartialCmd(m.dictation.Partials()))
	}
	if m.network != nil {
		cmds = append(cmds, probeCmd(m.network))
	}
	return tea.Batch(cmds...)
}

// waitTickCmd waits for the next elapsed-time update from the lifecycle.
func waitTickCmd(ticks <-chan int) tea.Cmd {
	return func() tea.Msg {
		return TickMsg{Elapsed: <-ticks}
	}
}

// waitPartialCmd waits for the next live preview from the dictation backend.
func waitPartialCmd(partials <-chan string) tea.Cmd {
	return func() tea.Msg {
		return PartialTextMsg{Text: <-partials}
	}
}

// probeCmd checks connectivity once.
func probeCmd(network dictation.Reachability) tea.Cmd {
	return func() tea.Msg {
		return NetworkStatusMsg{Online: network.Online(context.Background())}
	}
}

// probeTickCmd schedules the next connectivity probe.
func probeTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return NetworkProbeTickMsg{}
	})
}

// startDictationCmd selects a backend and begins capturing for session id.
func startDictationCmd(c *dictation.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		mode, err := c.Start(context.Background(), id)
		return DictationStartedMsg{Mode: mode, Session: id, Err: err}
	}
}

// stopDictationCmd ends the capture and waits for the transcript.
func stopDictationCmd(c *dictation.Controller) tea.Cmd {
	return func() tea.Msg {
		res, err := c.Stop(context.Background())
		return DictationDoneMsg{Result: res, Err: err}
	}
}

var errCopyFailed = errors.New("copy to clipboard")

// copyCmd puts a formatted history entry on the clipboard.
func copyCmd(copyFn func(string) error, e session.Entry) tea.Cmd {
	return func() tea.Msg {
		if err := copyFn(history.Format(e)); err != nil {
			return CopiedMsg{Name: e.Name, Err: fmt.Errorf("%w: %w", errCopyFailed, err)}
		}
		return CopiedMsg{Name: e.Name}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.nameInput.Width = max(10, msg.Width-6)
		m.noteInput.Width = max(10, msg.Width-6)
		return m, nil

	case TickMsg:
		m.session = m.lifecycle.Snapshot()
		return m, waitTickCmd(m.lifecycle.Ticks())

	case PartialTextMsg:
		if m.dictState == dictation.StateCapturing {
			m.partialText = msg.Text
		}
		return m, waitPartialCmd(m.dictation.Partials())

	case NetworkStatusMsg:
		if !m.onlineKnown || m.online != msg.Online {
			m.log.Info().Bool("online", msg.Online).Msg("connectivity changed")
		}
		m.online = msg.Online
		m.onlineKnown = true
		return m, probeTickCmd(m.probeInterval)

	case NetworkProbeTickMsg:
		return m, probeCmd(m.network)

	case DictationStartedMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, dictation.ErrAttemptInFlight) {
				// another attempt owns the slot; follow it instead of losing it
				m.dictState, m.dictMode = m.dictation.State()
				return m, m.showError(msg.Err)
			}
			m.dictState = dictation.StateIdle
			m.dictSession = ""
			return m, m.showError(msg.Err)
		}
		m.dictMode = msg.Mode
		m.dictSession = msg.Session
		m.partialText = ""
		if m.lifecycle.ActiveID() != msg.Session {
			// the session ended while the backend was starting
			m.dictState = dictation.StateTranscribing
			return m, tea.Batch(stopDictationCmd(m.dictation), m.spinner.Tick)
		}
		m.dictState = dictation.StateCapturing
		return m, nil

	case DictationDoneMsg:
		owner := m.dictSession
		m.dictState = dictation.StateIdle
		m.dictSession = ""
		m.partialText = ""
		m.session = m.lifecycle.Snapshot()
		if msg.Err == nil {
			return m, nil
		}
		if errors.Is(msg.Err, session.ErrNoSession) || owner != m.lifecycle.ActiveID() {
			// the session was stopped while dictating; its result is dropped
			m.log.Info().Err(msg.Err).Str("session", owner).Msg("dictation result dropped")
			return m, nil
		}
		return m, m.showError(msg.Err)

	case CopiedMsg:
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		m.infoMessage = msgCopied + ": " + msg.Name
		return m, nil

	case spinner.TickMsg:
		if m.dictState != dictation.StateTranscribing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.infoMessage = ""

	switch msg.String() {
	case KeyQuit, KeyCtrlC:
		m.lifecycle.Close()
		return m, tea.Quit

	case KeyHistory:
		m.showHistory = !m.showHistory
		return m, nil

	case KeyCopyLatest:
		latest, ok := m.history.Latest()
		if !ok || m.copy == nil {
			m.infoMessage = msgNothingToCopy
			return m, nil
		}
		return m, copyCmd(m.copy, latest)

	case KeyEnter:
		if !m.session.Active() {
			return m.startSession()
		}
		return m.addNote()

	case KeyPause:
		return m.togglePause()

	case KeyStop:
		return m.stopSession()

	case KeyDictate:
		return m.toggleDictation()
	}

	return m.updateInputs(msg)
}

func (m Model) startSession() (tea.Model, tea.Cmd) {
	if err := m.lifecycle.Start(m.nameInput.Value()); err != nil {
		return m, m.showError(err)
	}
	m.session = m.lifecycle.Snapshot()
	m.nameInput.Reset()
	m.nameInput.Blur()
	m.errorMessage = ""
	return m, m.noteInput.Focus()
}

func (m Model) addNote() (tea.Model, tea.Cmd) {
	if err := m.lifecycle.AddNote(m.noteInput.Value()); err != nil {
		return m, m.showError(err)
	}
	m.noteInput.Reset()
	m.session = m.lifecycle.Snapshot()
	return m, nil
}

func (m Model) togglePause() (tea.Model, tea.Cmd) {
	var err error
	switch m.session.Status {
	case session.StatusRunning:
		err = m.lifecycle.Pause()
	case session.StatusPaused:
		err = m.lifecycle.Resume()
	default:
		return m, nil
	}
	if err != nil {
		return m, m.showError(err)
	}
	m.session = m.lifecycle.Snapshot()
	return m, nil
}

func (m Model) stopSession() (tea.Model, tea.Cmd) {
	if !m.session.Active() {
		return m, nil
	}
	entry, err := m.lifecycle.Stop()
	if err != nil {
		return m, m.showError(err)
	}
	m.log.Info().Str("id", entry.ID).Str("name", entry.Name).Int("duration", entry.Duration).Msg("session stopped")

	m.session = m.lifecycle.Snapshot()
	m.noteInput.Reset()
	m.noteInput.Blur()

	cmds := []tea.Cmd{m.nameInput.Focus()}
	if m.dictState == dictation.StateCapturing {
		m.dictState = dictation.StateTranscribing
		cmds = append(cmds, stopDictationCmd(m.dictation), m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) toggleDictation() (tea.Model, tea.Cmd) {
	if m.dictation == nil || !m.session.Active() {
		return m, nil
	}
	switch m.dictState {
	case dictation.StateIdle:
		m.errorMessage = ""
		m.dictState = dictation.StateStarting
		m.dictSession = m.session.ID
		return m, startDictationCmd(m.dictation, m.session.ID)
	case dictation.StateCapturing:
		m.dictState = dictation.StateTranscribing
		return m, tea.Batch(stopDictationCmd(m.dictation), m.spinner.Tick)
	}
	// disabled while the backend starts or the transcript resolves
	return m, nil
}

// updateInputs forwards a message to the focused text input.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.session.Active() {
		m.noteInput, cmd = m.noteInput.Update(msg)
	} else {
		m.nameInput, cmd = m.nameInput.Update(msg)
	}
	return m, cmd
}

// showError sets a transient error and raises a desktop notification for
// dictation failures.
func (m *Model) showError(err error) tea.Cmd {
	text := userMessage(err)
	m.errorMessage = text
	m.errorTransient = true
	if !errors.Is(err, session.ErrEmptyTaskName) {
		m.log.Warn().Err(err).Msg(text)
		m.notifier.Notify(text)
	}
	return clearTransientErrorCmd()
}

// userMessage maps an error onto the message shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyTaskName):
		return msgEmptyTaskName
	case errors.Is(err, dictation.ErrNoOfflineCapability),
		errors.Is(err, dictation.ErrUnsupportedPlatform):
		return msgNoOffline
	case errors.Is(err, dictation.ErrDeviceUnavailable):
		return msgMicrophone
	case errors.Is(err, dictation.ErrTranscriptionService):
		return msgServer
	case errors.Is(err, dictation.ErrNothingRecognized):
		return msgNothing
	case errors.Is(err, dictation.ErrRecognitionFailure):
		return msgRecognition
	case errors.Is(err, dictation.ErrAttemptInFlight):
		return msgAttemptInFlight
	case errors.Is(err, dictation.ErrNotCapturing):
		return msgNotCapturing
	case errors.Is(err, session.ErrSessionActive):
		return msgSessionActive
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, dictation.ErrNoSession):
		return msgNoSession
	case errors.Is(err, session.ErrInvalidTransition):
		return msgInvalidAction
	case errors.Is(err, errCopyFailed):
		return msgCopyFailed
	}
	return msgUnknown
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderTaskCard())

	if m.session.Active() {
		sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
		sections = append(sections, m.renderLogs())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderHistory())

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	} else if m.infoMessage != "" {
		sections = append(sections, ui.InfoTextStyle.Render(m.infoMessage))
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("🦊 FOXFOCUS") + " " + ui.SubtitleStyle.Render("Pixel Tracker")

	var net string
	switch {
	case !m.onlineKnown:
		net = ui.DimStyle.Render("…")
	case m.online:
		net = ui.OnlineStyle.Render("● online")
	default:
		net = ui.OfflineStyle.Render("○ offline")
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(net)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + net
}

func (m Model) renderTaskCard() string {
	var lines []string
	lines = append(lines, ui.PanelTitleActiveStyle.Render("Task"))

	if !m.session.Active() {
		lines = append(lines, m.nameInput.View())
		lines = append(lines, ui.ButtonStyle.Render("🦊 НАЧАТЬ"))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, ui.TaskNameStyle.Render(truncateToWidth(m.session.Name, m.width)))
	lines = append(lines, ui.ClockStyle.Render(clock.Format(m.session.Elapsed)))

	var toggle, status string
	if m.session.Status == session.StatusRunning {
		toggle = ui.ButtonStyle.Render("❚❚ ПАУЗА")
		status = ui.RunningStyle.Render("● " + m.session.Status.String())
	} else {
		toggle = ui.ButtonStyle.Render("▶ ПУСК")
		status = ui.PausedStyle.Render("❚❚ " + m.session.Status.String())
	}
	lines = append(lines, toggle+" "+ui.ButtonDangerStyle.Render("■ СТОП")+"  "+status)

	return strings.Join(lines, "\n")
}

func (m Model) renderLogs() string {
	var lines []string
	lines = append(lines, ui.PanelTitleActiveStyle.Render("Logs"))
	lines = append(lines, m.noteInput.View())
	lines = append(lines, m.renderDictationControl())

	if m.dictState == dictation.StateCapturing && m.partialText != "" {
		for _, wl := range wrapText(m.partialText+"▌", max(10, m.width-4)) {
			lines = append(lines, "  "+ui.PartialTextStyle.Render(wl))
		}
	}

	if len(m.session.Notes) == 0 {
		lines = append(lines, ui.DimStyle.Render("  "+msgNoNotes))
	}
	for _, note := range m.session.Notes {
		wrapped := wrapText(note, max(10, m.width-5))
		lines = append(lines, "🦊 "+ui.NoteStyle.Render(wrapped[0]))
		for _, wl := range wrapped[1:] {
			lines = append(lines, "   "+ui.NoteStyle.Render(wl))
		}
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderDictationControl() string {
	switch m.dictState {
	case dictation.StateCapturing:
		label := "AI"
		if m.dictMode == dictation.ModeLocal {
			label = "LOCAL"
		}
		return ui.RecordingDotStyle.Render("● ") + ui.ButtonDangerStyle.Render(fmt.Sprintf("■ СТОП (%s)", label))
	case dictation.StateStarting:
		return ui.ButtonDisabledStyle.Render("🎤 ...")
	case dictation.StateTranscribing:
		return ui.ButtonDisabledStyle.Render(m.spinner.View() + " ...")
	}

	if m.online {
		return ui.ButtonStyle.Render("🎤 ГОЛОС (ОНЛАЙН)")
	}
	return ui.ButtonStyle.Render("🎤 ГОЛОС (ЛОКАЛЬНО)")
}

func (m Model) renderHistory() string {
	entries := m.history.List()

	marker := "▴"
	if m.showHistory {
		marker = "▾"
	}
	header := ui.PanelTitleStyle.Render(fmt.Sprintf("History (%d)", len(entries))) + " " + ui.DimStyle.Render(marker)
	if !m.showHistory {
		return header
	}

	lines := []string{header}
	if len(entries) == 0 {
		lines = append(lines, ui.DimStyle.Render("  "+msgEmptyHistory))
	}
	for _, e := range entries {
		name := ui.HistoryNameStyle.Render(truncateToWidth(e.Name, max(10, m.width-14)))
		duration := ui.DurationStyle.Render(clock.Format(e.Duration))
		gap := m.width - lipgloss.Width(name) - lipgloss.Width(duration) - 2
		if gap < 1 {
			gap = 1
		}
		lines = append(lines, "  "+name+strings.Repeat(" ", gap)+duration)
		lines = append(lines, "  "+ui.TimestampStyle.Render(e.EndedAt.Format("15:04:05")+" · "+humanize.Time(e.EndedAt)))
		for _, note := range e.Notes {
			for _, wl := range wrapText("- "+note, max(10, m.width-6)) {
				lines = append(lines, "    "+ui.DimStyle.Render(wl))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("! ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	if m.session.Active() {
		parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Note"))
		parts = append(parts, ui.FooterKeyStyle.Render("^P")+ui.FooterDescStyle.Render(" Pause"))
		parts = append(parts, ui.FooterKeyStyle.Render("^S")+ui.FooterDescStyle.Render(" Stop"))
		parts = append(parts, ui.FooterKeyStyle.Render("^R")+ui.FooterDescStyle.Render(" Voice"))
	} else {
		parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Start"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("Tab")+ui.FooterDescStyle.Render(" History"))
	parts = append(parts, ui.FooterKeyStyle.Render("^Y")+ui.FooterDescStyle.Render(" Copy"))
	parts = append(parts, ui.FooterKeyStyle.Render("Esc")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	// Simple truncation for non-styled strings
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
