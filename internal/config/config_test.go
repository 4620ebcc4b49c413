package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"DISCORD_TOKEN": "abc"})
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		DiscordToken: "abc",
		Prefix:       "!",
		TextCommands: true,
		Activity:     "with commands",
		LogLevel:     "info",
	}
	if diff := deep.Equal(cfg, want); diff != nil {
		t.Error(diff)
	}
	if cfg.CommandPrefix() != "!" {
		t.Fatalf("CommandPrefix() = %q", cfg.CommandPrefix())
	}
}

func TestLoadFromLists(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DISCORD_TOKEN":         "abc",
		"DISCORD_GUILD_ID":      "1234",
		"DISCORD_INTENTS":       "GUILDS,MESSAGE_CONTENT",
		"DISCORD_CACHE_ENABLE":  "VOICE_STATE",
		"DISCORD_CACHE_DISABLE": "PRESENCES,EMOJI",
		"AWAIT_COMMAND_SYNC":    "true",
		"TEXT_COMMANDS":         "false",
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(cfg.Intents, []string{"GUILDS", "MESSAGE_CONTENT"}); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(cfg.CacheDisable, []string{"PRESENCES", "EMOJI"}); diff != nil {
		t.Error(diff)
	}
	if !cfg.AwaitSync || cfg.GuildID != "1234" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.CommandPrefix() != "" {
		t.Fatal("text commands disabled but prefix returned")
	}
}

func TestLoadFromRequiresToken(t *testing.T) {
	if _, err := LoadFrom(map[string]string{}); err == nil {
		t.Fatal("expected error without DISCORD_TOKEN")
	}
	if _, err := LoadFrom(map[string]string{"DISCORD_TOKEN": ""}); err == nil {
		t.Fatal("expected error for empty DISCORD_TOKEN")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("DISCORD_TOKEN=from-file\nCOMMAND_PREFIX=?\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DISCORD_TOKEN", "")
	os.Unsetenv("DISCORD_TOKEN")
	t.Setenv("COMMAND_PREFIX", "")
	os.Unsetenv("COMMAND_PREFIX")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DiscordToken != "from-file" || cfg.Prefix != "?" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFileFallsBackToEnvironment(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DiscordToken != "from-env" {
		t.Fatalf("token = %q", cfg.DiscordToken)
	}
}
