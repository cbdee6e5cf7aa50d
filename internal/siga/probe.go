package siga

import (
	"time"

	"sigawatch/internal/browser"
)

// Probe reports whether selector is on the page. With a zero wait the check is
// immediate, otherwise it waits up to `wait` for the element to be attached.
//
// Absence, timeouts and driver errors are all false.
func Probe(session browser.Session, selector string, wait time.Duration) bool {
	if wait <= 0 {
		found, err := session.Exists(selector)
		return err == nil && found
	}
	return session.WaitPresent(selector, wait) == nil
}
