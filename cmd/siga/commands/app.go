package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"sigawatch/internal/browser"
	"sigawatch/internal/components/chrono"
	"sigawatch/internal/components/telemetry"
	"sigawatch/internal/config"
	"sigawatch/internal/notify"
	"sigawatch/internal/siga"
	libtelemetry "sigawatch/lib/telemetry"
)

const report_credentials = "credentials"

// app is everything a command needs, built from the settings and flags.
type app struct {
	settings config.Settings
	creds    config.Credentials
	searches []config.Search
	clock    chrono.StandardTime
	tel      telemetry.API

	logFile io.Closer
	otel    libtelemetry.Telemetry
}

func setup(ctx context.Context) (*app, error) {
	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		return nil, err
	}
	if *searchesPath != "" {
		settings.SearchFile = *searchesPath
	}

	clock, err := chrono.NewStandardTime(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	logFile, err := libtelemetry.InitSlog(*verbose, settings.LogDir, "siga", clock.Now())
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	a := &app{
		settings: settings,
		clock:    clock,
		tel:      telemetry.SlogAPI{},
		logFile:  logFile,
	}

	a.otel, err = libtelemetry.SetupFromEnv(ctx, libtelemetry.Service{
		Name:    "siga",
		Version: rootCmd.Version,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("setup telemetry: %w", err), a.close())
	}
	libtelemetry.InstrumentPerfStats(ctx, 30*time.Second)

	a.creds, err = config.LoadCredentials(*envPath)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("load credentials: %w", err), a.close())
	}
	if a.creds.Valid() {
		a.tel.ReportInfo("messages to telegram will be sent")
	} else {
		a.tel.ReportWarning(
			report_credentials,
			"BOT_TOKEN and BOT_CHAT_ID not found, messages to telegram will not be sent",
		)
	}

	a.searches, err = config.LoadSearches(settings.SearchFile, a.tel)
	if err != nil {
		return nil, errors.Join(err, a.close())
	}
	return a, nil
}

func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(a.otel.Shutdown(ctx), a.logFile.Close())
}

func (a *app) dispatcher() notify.Dispatcher {
	var chat notify.ChatSender
	if a.creds.Valid() {
		chat = notify.NewTelegramClient(a.settings.Telegram.BaseURL, a.creds, a.tel)
	}
	var mail notify.MailSender
	if a.settings.Smtp.Enabled() {
		mail = notify.NewMailer(a.settings.Smtp)
	}
	return notify.NewDispatcher(a.tel, notify.BeeepToaster{}, chat, mail)
}

func (a *app) task() (*siga.Task, error) {
	if a.settings.Browser.Install {
		a.tel.ReportInfo("installing browser")
		err := browser.Install()
		if err != nil {
			return nil, fmt.Errorf("install browser: %w", err)
		}
	}
	opener := browser.NewPlaywrightOpener(browser.PlaywrightOptions{
		URL:            a.settings.SiteURL,
		Headed:         a.settings.Browser.Headed,
		ExecutablePath: a.settings.Browser.ExecutablePath,
		UserAgent:      a.settings.Browser.UserAgent,
	}, a.tel)

	options := siga.DefaultTaskOptions()
	options.ScreenshotDir = a.settings.ScreenshotDir
	return siga.NewTask(opener, a.dispatcher(), a.clock, a.tel, options), nil
}
