package config

import (
	"fmt"

	"sigawatch/internal/components/chrono"
	"sigawatch/lib/configutil"
)

const (
	DefaultSettingsFile = "siga.json5"
	DefaultSiteURL      = "https://siga.marcacaodeatendimento.pt/Marcacao/Entidades"
	DefaultTelegramURL  = "https://api.telegram.org"
)

type BrowserSettings struct {
	// Headed shows the browser window, runs are headless otherwise.
	Headed         bool   `json:"headed"`
	ExecutablePath string `json:"executable_path"`
	// Install downloads the bundled chromium before the first run.
	Install   bool   `json:"install"`
	UserAgent string `json:"user_agent"`
}

type TelegramSettings struct {
	BaseURL string `json:"base_url"`
}

type SmtpSettings struct {
	Server   string   `json:"server"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// Enabled reports whether e-mail notifications are configured.
func (s SmtpSettings) Enabled() bool {
	return s.Server != "" && s.From != "" && len(s.To) > 0
}

// Address returns the host:port of the smtp server.
func (s SmtpSettings) Address() string {
	port := s.Port
	if port == 0 {
		port = 587
	}
	return fmt.Sprintf("%s:%d", s.Server, port)
}

// Settings configures the process, as opposed to Search which configures a single run.
type Settings struct {
	SiteURL       string           `json:"site_url"`
	Timezone      string           `json:"timezone"`
	ScreenshotDir string           `json:"screenshot_dir"`
	LogDir        string           `json:"log_dir"`
	SearchFile    string           `json:"search_file"`
	Browser       BrowserSettings  `json:"browser"`
	Telegram      TelegramSettings `json:"telegram"`
	Smtp          SmtpSettings     `json:"smtp"`
}

func DefaultSettings() Settings {
	return Settings{
		SiteURL:       DefaultSiteURL,
		Timezone:      chrono.DefaultLocation,
		ScreenshotDir: ".",
		LogDir:        ".",
		SearchFile:    DefaultSearchFile,
		Telegram: TelegramSettings{
			BaseURL: DefaultTelegramURL,
		},
	}
}

// LoadSettings reads the settings file and its local override, missing fields
// are taken from DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		path = DefaultSettingsFile
	}
	settings, err := configutil.ReadWithDefaults(path, DefaultSettings())
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}
