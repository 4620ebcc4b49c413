// Package defaults holds ready-made executors most bots want.
package defaults

import (
	"fmt"
	"strings"

	"github.com/keshon/easycommands/pkg/executor"
	"github.com/keshon/easycommands/pkg/registry"

	"github.com/bwmarrin/discordgo"
)

// EmbedColor is used by every embed the default executors send.
const EmbedColor = 0x5865F2

// Help lists the registered commands, or details one of them.
type Help struct {
	executor.SlashBase
	reg    *registry.Registry
	prefix string
}

// NewHelp returns a help executor over reg. prefix is shown in front of
// text-only commands; pass "" when text commands are disabled.
func NewHelp(reg *registry.Registry, prefix string) *Help {
	return &Help{
		SlashBase: executor.SlashBase{
			Base: executor.Base{Info: executor.Info{
				Name:        "help",
				Description: "Shows help",
				Aliases:     []string{"commands"},
			}},
			Schema: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "command",
				Description: "Show details for one command",
				Required:    false,
			}},
		},
		reg:    reg,
		prefix: prefix,
	}
}

func (h *Help) Execute(ctx *executor.Context) error {
	if name := ctx.StringOption("command"); name != "" {
		return h.detail(ctx, strings.TrimPrefix(name, h.prefix))
	}
	return ctx.ReplyEmbed(h.Overview())
}

// Overview lists every unique executor with its description and aliases.
func (h *Help) Overview() *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, ent := range h.reg.Unique() {
		fmt.Fprintf(&sb, "`%s` - %s", h.display(ent.Key, ent.Executor), orNone(ent.Executor.Description()))
		if aliases := ent.Executor.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(&sb, " (aliases: %s)", strings.Join(aliases, ", "))
		}
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		sb.WriteString("No commands registered.")
	}
	return &discordgo.MessageEmbed{
		Title:       "Commands",
		Description: sb.String(),
		Color:       EmbedColor,
	}
}

func (h *Help) detail(ctx *executor.Context, name string) error {
	e, ok := h.reg.Get(name)
	if !ok {
		msg := fmt.Sprintf("No command named `%s`.", name)
		if hints := h.reg.Suggest(name, 3); len(hints) > 0 {
			msg += " Did you mean " + strings.Join(hints, ", ") + "?"
		}
		return ctx.ReplyEphemeral(msg)
	}

	embed := &discordgo.MessageEmbed{
		Title:       h.display(e.Name(), e),
		Description: orNone(e.Description()),
		Color:       EmbedColor,
	}
	if aliases := e.Aliases(); len(aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Aliases", Value: strings.Join(aliases, ", ")})
	}
	if slash, ok := executor.AsSlash(e); ok {
		for _, o := range slash.Options() {
			req := "optional"
			if o.Required {
				req = "required"
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  fmt.Sprintf("%s (%s)", o.Name, req),
				Value: orNone(o.Description),
			})
		}
	}
	return ctx.ReplyEmbed(embed)
}

func (h *Help) display(key string, e executor.Executor) string {
	if executor.IsSlash(e) {
		return "/" + key
	}
	return h.prefix + key
}

func orNone(s string) string {
	if s == "" {
		return "No description"
	}
	return s
}
