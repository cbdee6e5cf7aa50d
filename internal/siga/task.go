package siga

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sigawatch/internal/browser"
	"sigawatch/internal/components/assert"
	"sigawatch/internal/components/chrono"
	"sigawatch/internal/components/telemetry"
	"sigawatch/internal/config"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_run_config = "run.config"
	report_run_open   = "run.open"
	report_run_failed = "run"
	report_run_panic  = "run.panic"
)

// DefaultSettle is the delay before each dropdown is used.
const DefaultSettle = 2 * time.Second

// Dispatcher delivers the slots found by a run.
type Dispatcher interface {
	// Dispatch sends the slots and clears the table.
	Dispatch(ctx context.Context, header NotificationHeader, slots *SlotTable)
}

// Outcome is how a single run ended.
type Outcome int

const (
	OutcomeInvalid Outcome = iota
	OutcomeSkipped
	OutcomeFailed
	OutcomeCompleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeCompleted:
		return "completed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type TaskOptions struct {
	ScreenshotDir string
	// Settle is the delay before each dropdown is used, zero disables it.
	Settle time.Duration
}

func DefaultTaskOptions() TaskOptions {
	return TaskOptions{
		ScreenshotDir: ".",
		Settle:        DefaultSettle,
	}
}

// Task runs the whole booking form for one search and dispatches what it finds.
type Task struct {
	opener     browser.Opener
	dispatcher Dispatcher
	time       chrono.TimeAPI
	tel        telemetry.API
	scanner    Scanner
	options    TaskOptions

	tracer       trace.Tracer
	runs         metric.Int64Counter
	slotsFound   metric.Int64Counter
	stepFailures metric.Int64Counter
}

func NewTask(
	opener browser.Opener,
	dispatcher Dispatcher,
	time chrono.TimeAPI,
	tel telemetry.API,
	options TaskOptions,
) *Task {
	assert.NotNil(opener)
	assert.NotNil(dispatcher)
	assert.NotNil(time)
	assert.NotNil(tel)

	meter := otel.Meter("sigawatch.siga")
	runs, _ := meter.Int64Counter("siga.runs")
	slotsFound, _ := meter.Int64Counter("siga.slots_found")
	stepFailures, _ := meter.Int64Counter("siga.step_failures")

	return &Task{
		opener:       opener,
		dispatcher:   dispatcher,
		time:         time,
		tel:          telemetry.NewScopedAPI("siga", tel),
		scanner:      NewScanner(time, tel),
		options:      options,
		tracer:       otel.Tracer("sigawatch.siga"),
		runs:         runs,
		slotsFound:   slotsFound,
		stepFailures: stepFailures,
	}
}

// InWindow reports whether now is inside the active window of the search.
// The bounds are compared as HH:MM strings, a window that crosses midnight never matches.
func InWindow(search config.Search, now time.Time) bool {
	clock := now.Format("15:04")
	return search.StartTime <= clock && clock <= search.EndTime
}

func banner(title string) string {
	const width = 60
	pad := width - len(title)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	return strings.Repeat("-", left) + title + strings.Repeat("-", pad-left)
}

// RunOnce fills the form for the search, scans the results and dispatches them.
// It never fails, every problem is reported and reflected in the outcome.
func (t *Task) RunOnce(ctx context.Context, search config.Search) (outcome Outcome) {
	runID := uuid.NewString()
	started := time.Now()

	ctx, span := t.tracer.Start(ctx, "siga.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("search.title", search.Title),
	))
	t.tel.ReportInfo(banner(" Task Start "), "run", runID, "search", search.Title)
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			t.tel.ReportBroken(report_run_panic, err, runID, search.Title)
			span.RecordError(err)
			outcome = OutcomeFailed
		}
		span.SetAttributes(attribute.String("run.outcome", outcome.String()))
		span.End()
		t.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
		t.tel.ReportInfo(
			banner(" Task End "),
			"run", runID,
			"outcome", outcome.String(),
			"took", time.Since(started).String(),
		)
	}()

	err := search.Validate()
	if err != nil {
		t.tel.ReportCritical(report_run_config, &StepError{
			Step: "validate",
			Kind: FailureConfig,
			Err:  err,
		}, runID)
		return OutcomeInvalid
	}

	if !InWindow(search, t.time.Now()) {
		t.tel.ReportInfo(
			"outside business hours",
			"search", search.Title,
			"window", fmt.Sprintf("%s-%s", search.StartTime, search.EndTime),
		)
		return OutcomeSkipped
	}

	header, slots, err := t.check(ctx, runID, search)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
		return OutcomeFailed
	}

	t.slotsFound.Add(ctx, int64(slots.Count()))
	t.dispatcher.Dispatch(ctx, header, &slots)
	return OutcomeCompleted
}

// check owns the browser session for the duration of one run.
func (t *Task) check(ctx context.Context, runID string, search config.Search) (NotificationHeader, SlotTable, error) {
	t.tel.ReportInfo("starting browser", "run", runID)
	session, err := t.opener.Open(ctx)
	if err != nil {
		err = &StepError{Step: "open", Kind: FailureSessionOpen, Err: err}
		t.tel.ReportBroken(report_run_open, err, runID, search.Title)
		return NotificationHeader{}, SlotTable{}, err
	}
	defer func() {
		t.tel.ReportInfo("closing browser", "run", runID)
		session.Close()
	}()

	state := &runState{
		ctx:           ctx,
		session:       session,
		search:        search,
		time:          t.time,
		tel:           t.tel,
		screenshotDir: t.options.ScreenshotDir,
		settle:        t.options.Settle,
		stepFailures:  t.stepFailures,
	}

	for _, stage := range Stages {
		if !stage.Runs(search) {
			t.tel.ReportDebug("stage skipped", "run", runID, "stage", stage.Name)
			continue
		}
		if stage.Checkpoint > 0 {
			state.screenshot(ProgressScreenshotName(stage.Checkpoint), report_screenshot_step)
		}

		err := t.runStage(ctx, state, stage)
		if err != nil {
			t.reportFailure(runID, search, stage.Name, err)
			return NotificationHeader{}, SlotTable{}, err
		}
	}

	state.screenshot(ProgressScreenshotName(ScanCheckpoint), report_screenshot_step)
	slots, err := t.scanner.Scan(session, search.MaxDays)
	if err != nil {
		t.reportFailure(runID, search, "scan", err)
		return NotificationHeader{}, SlotTable{}, err
	}
	t.tel.ReportInfo("end of check", "run", runID, "groups", slots.Len())
	return state.header, slots, nil
}

func (t *Task) runStage(ctx context.Context, state *runState, stage Stage) error {
	ctx, span := t.tracer.Start(ctx, "siga.stage", trace.WithAttributes(
		attribute.String("stage", stage.Name),
	))
	defer span.End()

	state.ctx = ctx
	err := stage.run(state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage.Name)
	}
	return err
}

func (t *Task) reportFailure(runID string, search config.Search, stage string, err error) {
	var stepErr *StepError
	kind := "error"
	if errors.As(err, &stepErr) {
		kind = stepErr.Kind.String()
	}
	t.tel.ReportBroken(
		report_run_failed,
		err,
		runID,
		search.Title,
		stage,
		kind,
	)
}
