package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"sigawatch/internal/components/telemetry"

	pw "github.com/playwright-community/playwright-go"
)

const (
	report_playwright_close = "playwright.close"
	report_playwright_open  = "playwright.open"
)

// DefaultUserAgent is the user agent sent by headless sessions.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 4.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/37.0.2049.0 Safari/537.36"

var launchArgs = []string{
	"--window-size=1920,1080",
	"--disable-gpu",
	"--disable-web-security",
	"--no-sandbox",
	"--disable-extensions",
	"--ignore-certificate-errors",
	"--allow-running-insecure-content",
}

// common locations of a system chromium, used when no executable is configured.
var executableCandidates = []string{
	"/usr/bin/chromium",
	"/usr/bin/google-chrome",
	"/bin/google-chrome",
	"/usr/bin/chromium-browser",
}

type PlaywrightOptions struct {
	URL            string
	Headed         bool
	ExecutablePath string
	UserAgent      string
	NavTimeout     time.Duration
}

// PlaywrightOpener launches a fresh chromium for every session.
type PlaywrightOpener struct {
	options PlaywrightOptions
	tel     telemetry.API
}

func NewPlaywrightOpener(options PlaywrightOptions, tel telemetry.API) PlaywrightOpener {
	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
	}
	if options.NavTimeout == 0 {
		options.NavTimeout = 30 * time.Second
	}
	if options.ExecutablePath == "" {
		for _, p := range executableCandidates {
			if _, err := os.Stat(p); err == nil {
				options.ExecutablePath = p
				break
			}
		}
	}
	return PlaywrightOpener{
		options: options,
		tel:     telemetry.NewScopedAPI("browser", tel),
	}
}

// Install downloads the playwright driver and the bundled chromium.
func Install() error {
	return pw.Install(&pw.RunOptions{
		Browsers: []string{"chromium"},
	})
}

func (o PlaywrightOpener) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runtime, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	session := &playwrightSession{runtime: runtime, tel: o.tel}

	launch := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(!o.options.Headed),
		Args:     launchArgs,
	}
	if o.options.ExecutablePath != "" {
		launch.ExecutablePath = pw.String(o.options.ExecutablePath)
		o.tel.ReportDebug("using browser executable", "path", o.options.ExecutablePath)
	}
	session.browser, err = runtime.Chromium.Launch(launch)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("launch chromium: %w", err), session.Close())
	}

	browserCtx, err := session.browser.NewContext(pw.BrowserNewContextOptions{
		UserAgent:         pw.String(o.options.UserAgent),
		IgnoreHttpsErrors: pw.Bool(true),
		Viewport:          &pw.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new browser context: %w", err), session.Close())
	}
	session.page, err = browserCtx.NewPage()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new page: %w", err), session.Close())
	}

	o.tel.ReportInfo("navigating", "url", o.options.URL)
	_, err = session.page.Goto(o.options.URL, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateLoad,
		Timeout:   millis(o.options.NavTimeout),
	})
	if err != nil {
		err = fmt.Errorf("goto %s: %w", o.options.URL, classify(err))
		o.tel.ReportBroken(report_playwright_open, err)
		return nil, errors.Join(err, session.Close())
	}
	return session, nil
}

func millis(d time.Duration) *float64 {
	return pw.Float(float64(d.Milliseconds()))
}

// classify maps playwright failures onto the errors of this package, the original
// error is kept in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	// playwright retries clicks on covered elements until the timeout, the
	// call log carries the reason.
	if strings.Contains(err.Error(), "intercepts pointer events") {
		return fmt.Errorf("%w: %w", ErrIntercepted, err)
	}
	if errors.Is(err, pw.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

type playwrightSession struct {
	runtime *pw.Playwright
	browser pw.Browser
	page    pw.Page
	tel     telemetry.API
	closed  bool
}

func (s *playwrightSession) Exists(selector string) (bool, error) {
	count, err := s.page.Locator(selector).Count()
	if err != nil {
		return false, classify(err)
	}
	return count > 0, nil
}

func (s *playwrightSession) waitFor(selector string, state *pw.WaitForSelectorState, timeout time.Duration) error {
	err := s.page.Locator(selector).First().WaitFor(pw.LocatorWaitForOptions{
		State:   state,
		Timeout: millis(timeout),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", selector, classify(err))
	}
	return nil
}

func (s *playwrightSession) WaitPresent(selector string, timeout time.Duration) error {
	return s.waitFor(selector, pw.WaitForSelectorStateAttached, timeout)
}

func (s *playwrightSession) WaitVisible(selector string, timeout time.Duration) error {
	return s.waitFor(selector, pw.WaitForSelectorStateVisible, timeout)
}

func (s *playwrightSession) Elements(selector string) ([]Element, error) {
	locators, err := s.page.Locator(selector).All()
	if err != nil {
		return nil, classify(err)
	}
	out := make([]Element, len(locators))
	for i, l := range locators {
		out[i] = playwrightElement{locator: l}
	}
	return out, nil
}

func (s *playwrightSession) SelectByValue(selector, value string, timeout time.Duration) (string, error) {
	locator := s.page.Locator(selector).First()
	selected, err := locator.SelectOption(
		pw.SelectOptionValues{Values: &[]string{value}},
		pw.LocatorSelectOptionOptions{Timeout: millis(timeout)},
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", selector, classify(err))
	}
	if len(selected) == 0 {
		return "", fmt.Errorf("%s: option %q: %w", selector, value, ErrNotFound)
	}

	label, err := locator.Locator("option:checked").First().TextContent(pw.LocatorTextContentOptions{
		Timeout: millis(timeout),
	})
	if err != nil {
		return "", fmt.Errorf("%s: selected option: %w", selector, classify(err))
	}
	return strings.TrimSpace(label), nil
}

func (s *playwrightSession) Click(selector string, timeout time.Duration) error {
	err := s.page.Locator(selector).First().Click(pw.LocatorClickOptions{
		Timeout: millis(timeout),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", selector, classify(err))
	}
	return nil
}

func (s *playwrightSession) Text(selector string, timeout time.Duration) (string, error) {
	text, err := s.page.Locator(selector).First().InnerText(pw.LocatorInnerTextOptions{
		Timeout: millis(timeout),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", selector, classify(err))
	}
	return strings.TrimSpace(text), nil
}

func (s *playwrightSession) Content() (string, error) {
	return s.page.Content()
}

func (s *playwrightSession) Screenshot(path string) error {
	_, err := s.page.Screenshot(pw.PageScreenshotOptions{
		Path: pw.String(path),
	})
	return err
}

func (s *playwrightSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.runtime != nil {
		errs = append(errs, s.runtime.Stop())
	}
	err := errors.Join(errs...)
	if err != nil {
		s.tel.ReportWarning(report_playwright_close, err)
	}
	return err
}

type playwrightElement struct {
	locator pw.Locator
}

func (e playwrightElement) Attribute(name string) (string, error) {
	value, err := e.locator.GetAttribute(name)
	if err != nil {
		return "", classify(err)
	}
	return value, nil
}

func (e playwrightElement) Click() error {
	err := e.locator.Click()
	if err != nil {
		return classify(err)
	}
	return nil
}
