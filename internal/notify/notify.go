// Package notify raises desktop notifications for events the user may miss
// while the terminal is in the background.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Title is used for every notification.
const Title = "FoxFocus"

// Notifier delivers a short message to the user.
type Notifier interface {
	Notify(message string)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(string) {}

// Desktop sends notifications through the OS notification center.
type Desktop struct {
	log  zerolog.Logger
	send func(title, message string) error
}

// NewDesktop returns a notifier backed by beeep.
func NewDesktop(log zerolog.Logger) *Desktop {
	return &Desktop{log: log, send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

// Notify sends message. Delivery failures are logged only.
func (d *Desktop) Notify(message string) {
	if err := d.send(Title, message); err != nil {
		d.log.Debug().Err(err).Msg("desktop notification failed")
	}
}

// New picks the desktop notifier when enabled.
func New(desktop bool, log zerolog.Logger) Notifier {
	if desktop {
		return NewDesktop(log)
	}
	return Nop{}
}
