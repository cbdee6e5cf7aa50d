// Package browser is the narrow set of page interactions the form flow needs,
// implemented on top of playwright.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the element does not exist on the page.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout means the element did not reach the expected state in time.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrIntercepted means another element (ex. an overlay) received the click.
	ErrIntercepted = errors.New("click intercepted")
)

// Element is a single element found on the page.
type Element interface {
	Attribute(name string) (string, error)
	Click() error
}

// Session is an open browser positioned at one page at a time.
//
// A Session is owned by a single run and is not safe for concurrent use.
type Session interface {
	// Exists checks for the element without waiting.
	Exists(selector string) (bool, error)
	// WaitPresent waits for the element to be attached to the page.
	WaitPresent(selector string, timeout time.Duration) error
	// WaitVisible waits for the element to be visible.
	WaitVisible(selector string, timeout time.Duration) error
	Elements(selector string) ([]Element, error)
	// SelectByValue selects the option of a <select> by its value and returns
	// the display text of the selected option.
	SelectByValue(selector, value string, timeout time.Duration) (string, error)
	Click(selector string, timeout time.Duration) error
	// Text returns the visible text of the first matching element.
	Text(selector string, timeout time.Duration) (string, error)
	// Content returns the html of the current page.
	Content() (string, error)
	Screenshot(path string) error
	Close() error
}

// Opener opens new sessions already positioned at the start page.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}
