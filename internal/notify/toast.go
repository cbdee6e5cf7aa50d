package notify

import "github.com/gen2brain/beeep"

// Toaster shows desktop notifications.
type Toaster interface {
	Toast(title, message string) error
}

// BeeepToaster shows notifications through the native notification service.
//
// beeep exposes no urgency or expiry, Alert is its highest priority variant
// and plays the system sound along with the notification.
type BeeepToaster struct {
	// Icon is an optional path to an icon.
	Icon string
}

func (t BeeepToaster) Toast(title, message string) error {
	return beeep.Alert(title, message, t.Icon)
}
