package siga

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"sigawatch/internal/browser"
	"sigawatch/internal/components/chrono"
	"sigawatch/internal/components/telemetry"
	"sigawatch/internal/config"

	"go.opentelemetry.io/otel/metric"
)

const (
	report_step_failed      = "step"
	report_screenshot_error = "screenshot-error"
	report_screenshot_step  = "screenshot-step"
)

const (
	entityProbeSelector  = ".btn-selecionar-entidade"
	entityButtonSelector = "button.btn.btn-selecionar-entidade"
	nextProbeSelector    = ".set-date-button"
	nextButtonSelector   = "li#liProximoButton a.set-date-button"
)

// runState is what a single run threads through its stages.
type runState struct {
	ctx     context.Context
	session browser.Session
	search  config.Search
	header  NotificationHeader

	time          chrono.TimeAPI
	tel           telemetry.API
	screenshotDir string
	settle        time.Duration
	stepFailures  metric.Int64Counter
}

// wait is the fixed delay before touching a control, the page re-renders
// the form after every selection.
func (r *runState) wait() error {
	if r.settle <= 0 {
		return r.ctx.Err()
	}
	timer := time.NewTimer(r.settle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

func (r *runState) screenshot(name, reportID string) {
	path := filepath.Join(r.screenshotDir, name)
	err := r.session.Screenshot(path)
	if err != nil {
		r.tel.ReportWarning(reportID, err, path)
		return
	}
	r.tel.ReportDebug("screenshot saved", "path", path)
}

// fail saves exactly one screenshot of the page, reports the failure and
// returns it as a *StepError.
func (r *runState) fail(step, value string, cause error) error {
	kind := FailureElementNotFound
	if errors.Is(cause, browser.ErrIntercepted) {
		kind = FailureClickIntercepted
	}

	r.screenshot(ErrorScreenshotName(step, r.time.Now()), report_screenshot_error)
	r.tel.ReportCritical(report_step_failed, step, value, kind.String(), cause)
	if r.stepFailures != nil {
		r.stepFailures.Add(r.ctx, 1)
	}

	return &StepError{
		Step:  step,
		Value: value,
		Kind:  kind,
		Err:   cause,
	}
}

func (r *runState) selectOption(step, selector, value string, timeout time.Duration) (string, error) {
	err := r.session.WaitVisible(selector, timeout)
	if err != nil {
		return "", r.fail(step, value, err)
	}
	err = r.wait()
	if err != nil {
		return "", err
	}
	label, err := r.session.SelectByValue(selector, value, timeout)
	if err != nil {
		return "", r.fail(step, value, err)
	}
	r.tel.ReportInfo(fmt.Sprintf("option %q selected", label), "step", step)
	return label, nil
}

func setEntity(r *runState) error {
	value := r.search.EntityID()

	if !Probe(r.session, entityProbeSelector, 0) {
		return r.fail(StepEntity, value, fmt.Errorf(
			"cannot find entity %s button, please check if the webpage is working: %w",
			value, browser.ErrNotFound,
		))
	}
	buttons, err := r.session.Elements(entityButtonSelector)
	if err != nil {
		return r.fail(StepEntity, value, err)
	}
	for _, button := range buttons {
		id, err := button.Attribute("id")
		if err != nil || id != value {
			continue
		}
		label, err := button.Attribute("title")
		if err != nil {
			return r.fail(StepEntity, value, err)
		}
		err = button.Click()
		if err != nil {
			return r.fail(StepEntity, value, err)
		}
		r.tel.ReportInfo(fmt.Sprintf("button %q clicked", label), "step", StepEntity)
		r.header.Entity = label
		return nil
	}
	return r.fail(StepEntity, value, fmt.Errorf(
		"entity %s is not available at the moment: %w",
		value, browser.ErrNotFound,
	))
}

// advance clicks the "next" button of the form. The click is not retried
// when something covers the button.
func advance(step string, probe bool) func(*runState) error {
	return func(r *runState) error {
		if probe && !Probe(r.session, nextProbeSelector, 0) {
			return r.fail(step, "", fmt.Errorf("no next button: %w", browser.ErrNotFound))
		}
		err := r.session.WaitVisible(nextButtonSelector, 30*time.Second)
		if err != nil {
			return r.fail(step, "", err)
		}
		err = r.session.Click(nextButtonSelector, 30*time.Second)
		if err != nil {
			return r.fail(step, "", err)
		}
		r.tel.ReportInfo("next button clicked", "step", step)
		return nil
	}
}
