package defaults

import (
	"fmt"

	"github.com/keshon/easycommands/pkg/executor"

	"github.com/bwmarrin/discordgo"
)

// Ping replies with the gateway heartbeat latency.
type Ping struct {
	executor.SlashBase
}

func NewPing(aliases ...string) *Ping {
	return &Ping{SlashBase: executor.SlashBase{Base: executor.Base{Info: executor.Info{
		Name:        "ping",
		Description: "Check bot latency",
		Aliases:     aliases,
	}}}}
}

func (p *Ping) Execute(ctx *executor.Context) error {
	var ms int64
	if ctx.Session != nil {
		ms = ctx.Session.HeartbeatLatency().Milliseconds()
	}
	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Pong!",
		Description: fmt.Sprintf("Latency: %dms", ms),
		Color:       EmbedColor,
	})
}
