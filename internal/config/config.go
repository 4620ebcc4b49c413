package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required,notEmpty"`
	GuildID      string `env:"DISCORD_GUILD_ID"`

	Prefix       string `env:"COMMAND_PREFIX" envDefault:"!"`
	TextCommands bool   `env:"TEXT_COMMANDS" envDefault:"true"`
	Activity     string `env:"BOT_ACTIVITY" envDefault:"with commands"`

	Intents      []string `env:"DISCORD_INTENTS"`
	CacheEnable  []string `env:"DISCORD_CACHE_ENABLE"`
	CacheDisable []string `env:"DISCORD_CACHE_DISABLE"`

	AwaitSync     bool   `env:"AWAIT_COMMAND_SYNC" envDefault:"false"`
	SyncStatePath string `env:"SYNC_STATE_PATH"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads files (".env" when none are given) into the process
// environment, then parses it. Missing files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadFrom parses an explicit environment instead of the process one.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// CommandPrefix is the text command prefix, or "" when text commands are off.
func (c *Config) CommandPrefix() string {
	if !c.TextCommands {
		return ""
	}
	return c.Prefix
}
