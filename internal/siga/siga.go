// Package siga drives the SIGA booking form and collects the free slots it lists.
package siga

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrElementNotFound  = errors.New("element not found")
	ErrClickIntercepted = errors.New("click intercepted")
	ErrInvalidSearch    = errors.New("invalid search")
	ErrSessionOpen      = errors.New("could not open browser session")
)

// FailureKind is the closed set of reasons a run can stop early.
type FailureKind int

const (
	FailureConfig FailureKind = iota + 1
	FailureSessionOpen
	FailureElementNotFound
	FailureClickIntercepted
)

func (k FailureKind) String() string {
	switch k {
	case FailureConfig:
		return "config"
	case FailureSessionOpen:
		return "session_open"
	case FailureElementNotFound:
		return "element_not_found"
	case FailureClickIntercepted:
		return "click_intercepted"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

func (k FailureKind) sentinel() error {
	switch k {
	case FailureConfig:
		return ErrInvalidSearch
	case FailureSessionOpen:
		return ErrSessionOpen
	case FailureClickIntercepted:
		return ErrClickIntercepted
	}
	return ErrElementNotFound
}

// StepError is returned by a stage that could not complete its interaction.
// It matches the sentinel of its Kind and the underlying cause with errors.Is.
type StepError struct {
	Step  string
	Value string
	Kind  FailureKind
	Err   error
}

func (e *StepError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s: %v", e.Step, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s(%s): %s: %v", e.Step, e.Value, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

// ErrorScreenshotName is the file a failed step saves its screenshot to.
// ex. log_set_category_error_03102024_101500.png
func ErrorScreenshotName(step string, t time.Time) string {
	return fmt.Sprintf("log_%s_error_%s.png", step, t.Format("02012006_150405"))
}

// ProgressScreenshotName is the file written at each checkpoint of a run.
func ProgressScreenshotName(checkpoint int) string {
	return fmt.Sprintf("log_step%d.png", checkpoint)
}

// NotificationHeader holds the labels of every option selected during a run.
type NotificationHeader struct {
	Entity      string
	Category    string
	Subcategory string
	Motive      string
	District    string
	Local       string
	// ServiceDesk is empty when the search does not select one.
	ServiceDesk string
}

// SlotTable groups free slots by the location they were listed under, groups
// keep the order they were first seen in.
//
// The zero value is an empty table.
type SlotTable struct {
	groups []string
	slots  map[string][]string
}

func (t *SlotTable) Add(group, slot string) {
	if t.slots == nil {
		t.slots = map[string][]string{}
	}
	if _, ok := t.slots[group]; !ok {
		t.groups = append(t.groups, group)
	}
	t.slots[group] = append(t.slots[group], slot)
}

// Groups returns the group keys in insertion order.
func (t *SlotTable) Groups() []string {
	out := make([]string, len(t.groups))
	copy(out, t.groups)
	return out
}

func (t *SlotTable) Slots(group string) []string {
	out := make([]string, len(t.slots[group]))
	copy(out, t.slots[group])
	return out
}

// Len is the number of groups.
func (t *SlotTable) Len() int {
	return len(t.groups)
}

// Count is the number of slots across all groups.
func (t *SlotTable) Count() int {
	n := 0
	for _, slots := range t.slots {
		n += len(slots)
	}
	return n
}

func (t *SlotTable) Empty() bool {
	return len(t.groups) == 0
}

func (t *SlotTable) Clear() {
	t.groups = nil
	t.slots = nil
}

// Map returns a copy of the table without ordering.
func (t *SlotTable) Map() map[string][]string {
	out := make(map[string][]string, len(t.groups))
	for _, g := range t.groups {
		out[g] = t.Slots(g)
	}
	return out
}
