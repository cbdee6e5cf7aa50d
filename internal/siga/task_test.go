package siga

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sigawatch/internal/browser"
	"sigawatch/internal/browser/browsertest"
	"sigawatch/internal/components/chrono"
	"sigawatch/internal/components/telemetry"
	"sigawatch/internal/config"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type harness struct {
	session    *browsertest.Session
	opener     *browsertest.Opener
	dispatcher *fakeDispatcher
	tel        *telemetry.Recorder
	task       *Task
}

func newHarness(clock chrono.TimeAPI) harness {
	session := happySession()
	h := harness{
		session:    session,
		opener:     &browsertest.Opener{Session: session},
		dispatcher: &fakeDispatcher{},
		tel:        telemetry.NewRecorder(),
	}
	h.task = NewTask(h.opener, h.dispatcher, clock, h.tel, TaskOptions{ScreenshotDir: "shots"})
	return h
}

func errorScreenshots(session *browsertest.Session) []string {
	var out []string
	for _, s := range session.Screenshots {
		if strings.Contains(s, "_error_") {
			out = append(out, s)
		}
	}
	return out
}

func TestRunOnceCompleted(t *testing.T) {
	h := newHarness(testClock())

	outcome := h.task.RunOnce(context.Background(), testSearch())
	require.Equal(t, OutcomeCompleted, outcome)

	require.Equal(t, 1, h.opener.Opened)
	require.Equal(t, 1, h.session.Closed)
	require.Equal(t, 1, h.session.ButtonClick)
	require.Equal(t, []string{nextButtonSelector, nextButtonSelector}, h.session.Clicks)
	require.Equal(t, map[string]string{
		"#IdCategoria":        "22002",
		"#IdSubcategoria":     "22005",
		"#IdMotivo":           "22007",
		"#IdDistrito":         "11",
		"#IdLocalidade":       "58",
		"#IdLocalAtendimento": "01-AC",
	}, h.session.Selected)
	require.Equal(t, []string{
		filepath.Join("shots", "log_step1.png"),
		filepath.Join("shots", "log_step2.png"),
		filepath.Join("shots", "log_step3.png"),
		filepath.Join("shots", "log_step4.png"),
	}, h.session.Screenshots)

	require.Len(t, h.dispatcher.calls, 1)
	call := h.dispatcher.calls[0]
	expected := NotificationHeader{
		Entity:      "IRN",
		Category:    "Cartão de Cidadão",
		Subcategory: "Pedido",
		Motive:      "Renovação",
		District:    "Lisboa",
		Local:       "Lisboa",
		ServiceDesk: "Loja do Cidadão",
	}
	if diff := cmp.Diff(expected, call.header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"Lisboa - Loja do Cidadão"}, call.groups)
	require.Len(t, h.tel.Find(telemetry.LevelNameCritical, ""), 0)
}

func TestRunOnceOutsideWindowNeverOpens(t *testing.T) {
	searches := []config.Search{testSearch(), testSearch(), testSearch()}
	searches[0].StartTime, searches[0].EndTime = "11:00", "20:00"
	searches[1].StartTime, searches[1].EndTime = "08:00", "10:14"
	searches[2].StartTime, searches[2].EndTime = "22:00", "02:00"

	for _, search := range searches {
		h := newHarness(testClock())
		require.Equal(t, OutcomeSkipped, h.task.RunOnce(context.Background(), search))
		require.Equal(t, 0, h.opener.Opened, "%s-%s", search.StartTime, search.EndTime)
		require.Empty(t, h.dispatcher.calls)
	}
}

func TestRunOnceInvalidSearch(t *testing.T) {
	h := newHarness(testClock())
	search := testSearch()
	search.Service.Tema = 0

	require.Equal(t, OutcomeInvalid, h.task.RunOnce(context.Background(), search))
	require.Equal(t, 0, h.opener.Opened)

	reports := h.tel.Find(telemetry.LevelNameCritical, report_run_config)
	require.Len(t, reports, 1)
	err, ok := reports[0].Params[0].(error)
	require.True(t, ok)
	require.ErrorIs(t, err, ErrInvalidSearch)
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunOnceOpenFailure(t *testing.T) {
	h := newHarness(testClock())
	h.opener.Err = errors.New("chromium missing")

	require.Equal(t, OutcomeFailed, h.task.RunOnce(context.Background(), testSearch()))
	require.Equal(t, 0, h.session.Closed)
	require.Empty(t, h.dispatcher.calls)

	reports := h.tel.Find(telemetry.LevelNameBroken, report_run_open)
	require.Len(t, reports, 1)
	require.ErrorIs(t, reports[0].Params[0].(error), ErrSessionOpen)
}

func TestServiceDeskGuard(t *testing.T) {
	t.Run("runs with locality and desk", func(t *testing.T) {
		h := newHarness(testClock())
		require.Equal(t, OutcomeCompleted, h.task.RunOnce(context.Background(), testSearch()))
		require.Equal(t, "01-AC", h.session.Selected["#IdLocalAtendimento"])
		require.Equal(t, "Loja do Cidadão", h.dispatcher.calls[0].header.ServiceDesk)
	})

	t.Run("skipped without locality", func(t *testing.T) {
		h := newHarness(testClock())
		search := testSearch()
		search.Location.Localidade = 0

		require.Equal(t, OutcomeCompleted, h.task.RunOnce(context.Background(), search))
		_, selected := h.session.Selected["#IdLocalAtendimento"]
		require.False(t, selected)
		require.Equal(t, "Todas", h.dispatcher.calls[0].header.Local)
		require.Empty(t, h.dispatcher.calls[0].header.ServiceDesk)
	})

	t.Run("skipped without desk", func(t *testing.T) {
		h := newHarness(testClock())
		search := testSearch()
		search.Location.LocalAtendimento = ""

		require.Equal(t, OutcomeCompleted, h.task.RunOnce(context.Background(), search))
		_, selected := h.session.Selected["#IdLocalAtendimento"]
		require.False(t, selected)
		require.Empty(t, h.dispatcher.calls[0].header.ServiceDesk)
	})
}

func TestStepFailureReleasesSession(t *testing.T) {
	cases := []struct {
		step   string
		mutate func(s *browsertest.Session)
		kind   FailureKind
	}{
		{StepEntity, func(s *browsertest.Session) { delete(s.Present, entityProbeSelector) }, FailureElementNotFound},
		{StepCategory, func(s *browsertest.Session) { delete(s.Present, "#IdCategoria") }, FailureElementNotFound},
		{StepSubcategory, func(s *browsertest.Session) { delete(s.Options["#IdSubcategoria"], "22005") }, FailureElementNotFound},
		{StepMotive, func(s *browsertest.Session) { delete(s.Present, "#IdMotivo") }, FailureElementNotFound},
		{StepTwo, func(s *browsertest.Session) {
			s.ClickErrs[nextButtonSelector] = fmt.Errorf("overlay: %w", browser.ErrIntercepted)
		}, FailureClickIntercepted},
		{StepDistrict, func(s *browsertest.Session) { delete(s.Present, "#IdDistrito") }, FailureElementNotFound},
		{StepLocal, func(s *browsertest.Session) { delete(s.Present, "#IdLocalidade") }, FailureElementNotFound},
		{StepServiceDesk, func(s *browsertest.Session) { delete(s.Present, "#IdLocalAtendimento") }, FailureElementNotFound},
		{StepThree, func(s *browsertest.Session) { delete(s.Present, nextProbeSelector) }, FailureElementNotFound},
	}

	for _, c := range cases {
		t.Run(c.step, func(t *testing.T) {
			h := newHarness(testClock())
			c.mutate(h.session)

			require.Equal(t, OutcomeFailed, h.task.RunOnce(context.Background(), testSearch()))
			require.Equal(t, 1, h.session.Closed)
			require.Empty(t, h.dispatcher.calls)

			expectedShot := filepath.Join("shots", ErrorScreenshotName(c.step, testNow))
			require.Equal(t, []string{expectedShot}, errorScreenshots(h.session))

			critical := h.tel.Find(telemetry.LevelNameCritical, report_step_failed)
			require.Len(t, critical, 1)
			require.Equal(t, c.step, critical[0].Params[0])
			require.Equal(t, c.kind.String(), critical[0].Params[2])

			broken := h.tel.Find(telemetry.LevelNameBroken, report_run_failed)
			require.Len(t, broken, 1)
			var stepErr *StepError
			require.ErrorAs(t, broken[0].Params[0].(error), &stepErr)
			require.Equal(t, c.step, stepErr.Step)
			require.Equal(t, c.kind, stepErr.Kind)
		})
	}
}

func TestStepThreeChecksNextButtonWithoutWaiting(t *testing.T) {
	h := newHarness(testClock())
	delete(h.session.Present, nextProbeSelector)

	require.Equal(t, OutcomeFailed, h.task.RunOnce(context.Background(), testSearch()))
	require.NotContains(t, h.session.Waits, nextProbeSelector)

	h = newHarness(testClock())
	require.Equal(t, OutcomeCompleted, h.task.RunOnce(context.Background(), testSearch()))
	require.NotContains(t, h.session.Waits, nextProbeSelector)
}

func TestFailureScreenshotErrorDoesNotMaskCause(t *testing.T) {
	h := newHarness(testClock())
	delete(h.session.Present, "#IdMotivo")
	h.session.ScreenshotErr = errors.New("disk full")

	require.Equal(t, OutcomeFailed, h.task.RunOnce(context.Background(), testSearch()))
	require.Len(t, errorScreenshots(h.session), 1)
	require.Len(t, h.tel.Find(telemetry.LevelNameWarning, report_screenshot_error), 1)

	broken := h.tel.Find(telemetry.LevelNameBroken, report_run_failed)
	require.Len(t, broken, 1)
	err := broken[0].Params[0].(error)
	require.ErrorIs(t, err, ErrElementNotFound)
	require.ErrorIs(t, err, browser.ErrTimeout)
	require.NotContains(t, err.Error(), "disk full")
}

func TestEntityFailureMessages(t *testing.T) {
	state := func(session *browsertest.Session) *runState {
		return &runState{
			ctx:     context.Background(),
			session: session,
			search:  testSearch(),
			time:    testClock(),
			tel:     telemetry.NewRecorder(),
		}
	}

	broken := happySession()
	delete(broken.Present, entityProbeSelector)
	err := setEntity(state(broken))
	require.ErrorIs(t, err, ErrElementNotFound)
	require.Contains(t, err.Error(), "please check if the webpage is working")
	require.Len(t, broken.Screenshots, 1)

	unavailable := happySession()
	unavailable.Buttons[entityButtonSelector] = unavailable.Buttons[entityButtonSelector][:1]
	err = setEntity(state(unavailable))
	require.ErrorIs(t, err, ErrElementNotFound)
	require.Contains(t, err.Error(), "entity 1 is not available")
	require.Len(t, unavailable.Screenshots, 1)
	require.Equal(t, 0, unavailable.ButtonClick)
}

func TestRunOnceRecoversPanics(t *testing.T) {
	h := newHarness(testClock())
	h.dispatcher.panic = true

	require.NotPanics(t, func() {
		require.Equal(t, OutcomeFailed, h.task.RunOnce(context.Background(), testSearch()))
	})
	require.Equal(t, 1, h.session.Closed)
	require.Len(t, h.tel.Find(telemetry.LevelNameBroken, report_run_panic), 1)
}

func TestRunOnceSettleHonoursCancel(t *testing.T) {
	h := newHarness(testClock())
	h.task.options.Settle = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	require.Equal(t, OutcomeFailed, h.task.RunOnce(ctx, testSearch()))
	require.Equal(t, 1, h.session.Closed)
	require.Empty(t, h.dispatcher.calls)
}
