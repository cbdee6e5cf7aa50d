// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sigawatch/internal/browser"
)

// Button is an element returned by Session.Elements.
type Button struct {
	Attrs    map[string]string
	ClickErr error

	clicked *int
}

func (b Button) Attribute(name string) (string, error) {
	return b.Attrs[name], nil
}

func (b Button) Click() error {
	if b.ClickErr != nil {
		return b.ClickErr
	}
	if b.clicked != nil {
		*b.clicked++
	}
	return nil
}

// Session is a scripted page. Every selector that is not in Present is missing.
type Session struct {
	mu sync.Mutex

	// Present lists the selectors that exist and are visible.
	Present map[string]bool
	// Options maps a <select> selector to its option values and labels.
	Options map[string]map[string]string
	Buttons map[string][]Button
	Texts   map[string]string
	// ClickErrs fails clicks on the given selector.
	ClickErrs     map[string]error
	HTML          string
	ContentErr    error
	ScreenshotErr error

	Screenshots []string
	Clicks      []string
	Selected    map[string]string
	Waits       []string
	ButtonClick int
	Closed      int
}

func NewSession() *Session {
	return &Session{
		Present:   map[string]bool{},
		Options:   map[string]map[string]string{},
		Buttons:   map[string][]Button{},
		Texts:     map[string]string{},
		ClickErrs: map[string]error{},
		Selected:  map[string]string{},
	}
}

func (s *Session) Exists(selector string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Present[selector], nil
}

func (s *Session) wait(selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Waits = append(s.Waits, selector)
	if !s.Present[selector] {
		return fmt.Errorf("%s: %w", selector, browser.ErrTimeout)
	}
	return nil
}

func (s *Session) WaitPresent(selector string, _ time.Duration) error {
	return s.wait(selector)
}

func (s *Session) WaitVisible(selector string, _ time.Duration) error {
	return s.wait(selector)
}

func (s *Session) Elements(selector string) ([]browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []browser.Element{}
	for _, b := range s.Buttons[selector] {
		b.clicked = &s.ButtonClick
		out = append(out, b)
	}
	return out, nil
}

func (s *Session) SelectByValue(selector, value string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	options, ok := s.Options[selector]
	if !ok || !s.Present[selector] {
		return "", fmt.Errorf("%s: %w", selector, browser.ErrTimeout)
	}
	label, ok := options[value]
	if !ok {
		return "", fmt.Errorf("%s: option %q: %w", selector, value, browser.ErrNotFound)
	}
	s.Selected[selector] = value
	return label, nil
}

func (s *Session) Click(selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ClickErrs[selector]; err != nil {
		return err
	}
	if !s.Present[selector] {
		return fmt.Errorf("%s: %w", selector, browser.ErrTimeout)
	}
	s.Clicks = append(s.Clicks, selector)
	return nil
}

func (s *Session) Text(selector string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.Texts[selector]
	if !ok {
		return "", fmt.Errorf("%s: %w", selector, browser.ErrTimeout)
	}
	return text, nil
}

func (s *Session) Content() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HTML, s.ContentErr
}

// Screenshot records the attempt even when ScreenshotErr is set.
func (s *Session) Screenshot(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Screenshots = append(s.Screenshots, path)
	return s.ScreenshotErr
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return nil
}

// Opener hands out the same Session on every Open.
type Opener struct {
	Session *Session
	Err     error
	Opened  int
}

func (o *Opener) Open(ctx context.Context) (browser.Session, error) {
	o.Opened++
	if o.Err != nil {
		return nil, o.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return o.Session, nil
}
