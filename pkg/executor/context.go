package executor

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// Reply is what an executor sends back to the invoking user.
type Reply struct {
	Content   string
	Embeds    []*discordgo.MessageEmbed
	Ephemeral bool // only honored for interactions
}

// Responder delivers replies. The dispatcher installs SessionResponder; tests
// install their own.
type Responder interface {
	Respond(ctx *Context, r *Reply) error
}

// Context is what the runtime hands an executor. Exactly one of Interaction
// and Message is set.
type Context struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Message     *discordgo.MessageCreate

	// Invoked is the registry key the executor was reached through, which is
	// an alias for text invocations like "!p".
	Invoked string
	Args    []string

	Responder Responder
}

// IsSlash reports whether the invocation came from an interaction.
func (c *Context) IsSlash() bool { return c.Interaction != nil }

func (c *Context) GuildID() string {
	switch {
	case c.Interaction != nil:
		return c.Interaction.GuildID
	case c.Message != nil:
		return c.Message.GuildID
	}
	return ""
}

func (c *Context) ChannelID() string {
	switch {
	case c.Interaction != nil:
		return c.Interaction.ChannelID
	case c.Message != nil:
		return c.Message.ChannelID
	}
	return ""
}

// User returns the invoking user, or nil when the event carries none.
func (c *Context) User() *discordgo.User {
	switch {
	case c.Interaction != nil:
		if c.Interaction.Member != nil && c.Interaction.Member.User != nil {
			return c.Interaction.Member.User
		}
		return c.Interaction.User
	case c.Message != nil:
		return c.Message.Author
	}
	return nil
}

// RoleIDs returns the guild roles of the invoking member; empty in DMs.
func (c *Context) RoleIDs() []string {
	switch {
	case c.Interaction != nil && c.Interaction.Member != nil:
		return c.Interaction.Member.Roles
	case c.Message != nil && c.Message.Member != nil:
		return c.Message.Member.Roles
	}
	return nil
}

// Option returns the top-level slash option with the given name, or nil.
func (c *Context) Option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	if c.Interaction == nil || c.Interaction.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	for _, o := range c.Interaction.ApplicationCommandData().Options {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// StringOption returns the named string option, falling back to the first
// text argument for text invocations.
func (c *Context) StringOption(name string) string {
	if o := c.Option(name); o != nil && o.Type == discordgo.ApplicationCommandOptionString {
		return o.StringValue()
	}
	if !c.IsSlash() && len(c.Args) > 0 {
		return c.Args[0]
	}
	return ""
}

func (c *Context) Reply(content string) error {
	return c.respond(&Reply{Content: content})
}

func (c *Context) ReplyEphemeral(content string) error {
	return c.respond(&Reply{Content: content, Ephemeral: true})
}

func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return c.respond(&Reply{Embeds: []*discordgo.MessageEmbed{embed}})
}

func (c *Context) respond(r *Reply) error {
	if c.Responder == nil {
		return SessionResponder{}.Respond(c, r)
	}
	return c.Responder.Respond(c, r)
}

// SessionResponder replies through the discordgo session: an interaction
// response for slash invocations, a referenced message for text ones.
type SessionResponder struct{}

var errNoSession = errors.New("executor: context has no session")

func (SessionResponder) Respond(ctx *Context, r *Reply) error {
	if ctx.Session == nil {
		return errNoSession
	}

	if ctx.Interaction != nil {
		data := &discordgo.InteractionResponseData{
			Content: r.Content,
			Embeds:  r.Embeds,
		}
		if r.Ephemeral {
			data.Flags = discordgo.MessageFlagsEphemeral
		}
		return ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
	}

	if ctx.Message != nil {
		_, err := ctx.Session.ChannelMessageSendComplex(ctx.Message.ChannelID, &discordgo.MessageSend{
			Content:   r.Content,
			Embeds:    r.Embeds,
			Reference: ctx.Message.Reference(),
		})
		return err
	}

	return errors.New("executor: context has no event to reply to")
}
