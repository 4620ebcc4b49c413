// Package session adapts a live *discordgo.Session to the connection
// interfaces used by executors and the command synchronizer. Reads prefer the
// gateway state cache and fall back to REST.
package session

import (
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Conn is safe for concurrent use once the session is ready.
type Conn struct {
	s *discordgo.Session
}

func New(s *discordgo.Session) *Conn {
	return &Conn{s: s}
}

// Session returns the wrapped session.
func (c *Conn) Session() *discordgo.Session { return c.s }

// ApplicationID returns the application ID from the READY payload, falling
// back to the bot user, which shares its ID.
func (c *Conn) ApplicationID() (string, error) {
	if st := c.s.State; st != nil {
		st.RLock()
		app, user := st.Application, st.User
		st.RUnlock()
		if app != nil && app.ID != "" {
			return app.ID, nil
		}
		if user != nil && user.ID != "" {
			return user.ID, nil
		}
	}
	u, err := c.s.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// Guilds returns the guilds in the state cache.
func (c *Conn) Guilds() []*discordgo.Guild {
	if c.s.State == nil {
		return nil
	}
	c.s.State.RLock()
	defer c.s.State.RUnlock()
	return slices.Clone(c.s.State.Guilds)
}

// GuildChannels returns the channels of a guild.
func (c *Conn) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	if st := c.s.State; st != nil && st.TrackChannels {
		if g, err := st.Guild(guildID); err == nil && len(g.Channels) > 0 {
			st.RLock()
			defer st.RUnlock()
			return slices.Clone(g.Channels), nil
		}
	}
	return c.s.GuildChannels(guildID)
}

// GuildRoles returns the roles of a guild.
func (c *Conn) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	if st := c.s.State; st != nil && st.TrackRoles {
		if g, err := st.Guild(guildID); err == nil && len(g.Roles) > 0 {
			st.RLock()
			defer st.RUnlock()
			return slices.Clone(g.Roles), nil
		}
	}
	return c.s.GuildRoles(guildID)
}

// BulkOverwriteCommands replaces the application's commands in one request.
// An empty guildID targets global commands.
func (c *Conn) BulkOverwriteCommands(guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	appID, err := c.ApplicationID()
	if err != nil {
		return nil, err
	}
	return c.s.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
}

// Commands reads back the commands Discord has on record.
func (c *Conn) Commands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	appID, err := c.ApplicationID()
	if err != nil {
		return nil, err
	}
	return c.s.ApplicationCommands(appID, guildID)
}
