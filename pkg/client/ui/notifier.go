package ui

import (
	"log"

	"github.com/aeolun/yacs/pkg/protocol"
	"github.com/gen2brain/beeep"
)

const previewLength = 80

// BeepNotifier plays the new-message alert and optionally shows a desktop
// notification.
type BeepNotifier struct {
	desktop bool
	logger  *log.Logger

	beep   func() error
	notify func(title, body string) error
}

func NewBeepNotifier(desktop bool, logger *log.Logger) *BeepNotifier {
	return &BeepNotifier{
		desktop: desktop,
		logger:  logger,
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
}

// Notify alerts without blocking the caller
func (n *BeepNotifier) Notify(msg protocol.Message) {
	go n.alert(msg)
}

func (n *BeepNotifier) alert(msg protocol.Message) {
	if err := n.beep(); err != nil && n.logger != nil {
		n.logger.Printf("Alert failed: %v", err)
	}
	if !n.desktop {
		return
	}
	if err := n.notify("YACS: "+msg.Author, preview(msg.Body)); err != nil && n.logger != nil {
		n.logger.Printf("Desktop notification failed: %v", err)
	}
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLength {
		return body
	}
	return string(r[:previewLength-3]) + "..."
}
