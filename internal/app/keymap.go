package app

// Key binding constants used in handleKey.
const (
	KeyQuit       = "esc"
	KeyCtrlC      = "ctrl+c"
	KeyEnter      = "enter"
	KeyPause      = "ctrl+p"
	KeyStop       = "ctrl+s"
	KeyDictate    = "ctrl+r"
	KeyHistory    = "tab"
	KeyCopyLatest = "ctrl+y"
)
