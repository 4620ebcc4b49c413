package easycmd

import (
	"fmt"
	"strings"

	"github.com/keshon/easycommands/pkg/executor"
	"github.com/keshon/easycommands/pkg/logging"

	"github.com/bwmarrin/discordgo"
)

const suggestions = 3

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	log := logging.For(b.log, logging.Dispatch)

	name := i.ApplicationCommandData().Name
	ctx := &executor.Context{
		Session:     s,
		Interaction: i,
		Invoked:     name,
		Responder:   b.opts.Responder,
	}

	e, ok := b.registry.Get(name)
	if !ok {
		log.Warn().Str("command", name).Str("guild", i.GuildID).Msg("Interaction for unregistered command")
		b.notify(ctx, "This command is no longer available.")
		return
	}
	b.run(ctx, e)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || b.isSelf(s, m.Author.ID) {
		return
	}
	content, ok := strings.CutPrefix(m.Content, b.opts.Prefix)
	if !ok {
		return
	}
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return
	}

	key := fields[0]
	ctx := &executor.Context{
		Session:   s,
		Message:   m,
		Invoked:   key,
		Args:      fields[1:],
		Responder: b.opts.Responder,
	}

	e, ok := b.registry.Get(key)
	if !ok {
		if hints := b.registry.Suggest(key, suggestions); len(hints) > 0 {
			for n, h := range hints {
				hints[n] = "`" + b.opts.Prefix + h + "`"
			}
			b.notify(ctx, fmt.Sprintf("Unknown command `%s%s`. Did you mean %s?", b.opts.Prefix, key, strings.Join(hints, ", ")))
		}
		return
	}
	b.run(ctx, e)
}

// run checks authorization, executes e and reports failures to the user.
func (b *Bot) run(ctx *executor.Context, e executor.Executor) {
	log := logging.For(b.log, logging.Dispatch).With().
		Str("command", e.Name()).
		Str("invoked", ctx.Invoked).
		Str("guild", ctx.GuildID()).
		Str("channel", ctx.ChannelID()).
		Logger()

	if !executor.Authorized(e, ctx.ChannelID(), ctx.RoleIDs()) {
		log.Debug().Msg("Invocation not authorized")
		b.notify(ctx, "You are not allowed to use this command here.")
		return
	}

	if err := e.Execute(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		b.notify(ctx, fmt.Sprintf("Something went wrong: %v", err))
	}
}

// notify sends an ephemeral reply; failures are only logged.
func (b *Bot) notify(ctx *executor.Context, content string) {
	if err := ctx.ReplyEphemeral(content); err != nil {
		log := logging.For(b.log, logging.Dispatch)
		log.Warn().Err(err).Str("invoked", ctx.Invoked).Msg("Failed to notify user")
	}
}

func (b *Bot) isSelf(s *discordgo.Session, userID string) bool {
	if s == nil || s.State == nil {
		return false
	}
	s.State.RLock()
	defer s.State.RUnlock()
	return s.State.User != nil && s.State.User.ID == userID
}
