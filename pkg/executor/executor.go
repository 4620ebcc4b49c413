// Package executor defines what a command is to easycommands: a named handler
// with metadata, authorization lists and refresh hooks that run during command
// sync. How executors are registered and declared to Discord lives in the
// registry and cmdsync packages.
package executor

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Conn is the live connection handed to refresh hooks. It is passed
// explicitly so hooks can be exercised against a fake.
type Conn interface {
	Guilds() []*discordgo.Guild
	GuildChannels(guildID string) ([]*discordgo.Channel, error)
	GuildRoles(guildID string) ([]*discordgo.Role, error)
}

// Executor is implemented by every command. Embed Base to get the metadata
// accessors and default refresh hooks.
type Executor interface {
	Name() string
	Description() string
	Aliases() []string

	// AuthorizedChannels and AuthorizedRoles return the IDs the executor is
	// limited to. Empty means unrestricted.
	AuthorizedChannels() []string
	AuthorizedRoles() []string

	RefreshAliases(conn Conn) error
	RefreshAuthorizedChannels(conn Conn) error
	RefreshAuthorizedRoles(conn Conn) error

	Execute(ctx *Context) error
}

// SlashExecutor is an executor that is declared to Discord as a slash command.
type SlashExecutor interface {
	Executor
	Options() []*discordgo.ApplicationCommandOption
	RefreshOptions()
}

// AsSlash reports whether e, or the executor it wraps, is slash-style.
func AsSlash(e Executor) (SlashExecutor, bool) {
	if e == nil {
		return nil, false
	}
	s, ok := Root(e).(SlashExecutor)
	return s, ok
}

// IsSlash is AsSlash without the value.
func IsSlash(e Executor) bool {
	_, ok := AsSlash(e)
	return ok
}

// Authorized reports whether an invocation from channelID by a member holding
// roleIDs may run e.
func Authorized(e Executor, channelID string, roleIDs []string) bool {
	if channels := e.AuthorizedChannels(); len(channels) > 0 && !slices.Contains(channels, channelID) {
		return false
	}
	roles := e.AuthorizedRoles()
	if len(roles) == 0 {
		return true
	}
	for _, r := range roleIDs {
		if slices.Contains(roles, r) {
			return true
		}
	}
	return false
}
