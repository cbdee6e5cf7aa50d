package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Credentials are the Telegram bot secrets.
type Credentials struct {
	BotToken  string
	BotChatID string
}

// Valid reports whether both secrets are present, the chat channel is disabled otherwise.
func (c Credentials) Valid() bool {
	return c.BotToken != "" && c.BotChatID != ""
}

// LoadCredentials reads BOT_TOKEN and BOT_CHAT_ID from the environment after
// loading the given dotenv files over it. Missing dotenv files are ignored.
func LoadCredentials(envFiles ...string) (Credentials, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		err := godotenv.Overload(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, err
		}
	}
	return Credentials{
		BotToken:  os.Getenv("BOT_TOKEN"),
		BotChatID: os.Getenv("BOT_CHAT_ID"),
	}, nil
}
