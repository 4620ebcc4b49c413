package executor

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/go-test/deep"
)

type fakeConn struct {
	channels map[string][]*discordgo.Channel
	roles    map[string][]*discordgo.Role
	fail     string
}

func (f *fakeConn) Guilds() []*discordgo.Guild {
	return []*discordgo.Guild{{ID: "g1"}, {ID: "g2"}}
}

func (f *fakeConn) GuildChannels(id string) ([]*discordgo.Channel, error) {
	if id == f.fail {
		return nil, errors.New("boom")
	}
	return f.channels[id], nil
}

func (f *fakeConn) GuildRoles(id string) ([]*discordgo.Role, error) {
	if id == f.fail {
		return nil, errors.New("boom")
	}
	return f.roles[id], nil
}

func newConn() *fakeConn {
	return &fakeConn{
		channels: map[string][]*discordgo.Channel{
			"g1": {{ID: "100", Name: "General"}, {ID: "101", Name: "mod-only"}},
			"g2": {{ID: "200", Name: "bots"}},
		},
		roles: map[string][]*discordgo.Role{
			"g1": {{ID: "900", Name: "Moderator"}},
		},
	}
}

type slash struct{ SlashBase }

func (s *slash) Execute(*Context) error { return nil }

type plain struct{ Base }

func (p *plain) Execute(*Context) error { return nil }

func TestRefreshAliases(t *testing.T) {
	b := &Base{Info: Info{Name: "ping", Aliases: []string{"p", " pong ", "", "p", "ping"}}}
	if err := b.RefreshAliases(nil); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(b.Aliases(), []string{"p", "pong"}); diff != nil {
		t.Error(diff)
	}
}

func TestRefreshAuthorizedChannelsResolvesNames(t *testing.T) {
	b := &Base{Info: Info{Name: "purge", Channels: []string{"general", "200", "MOD-ONLY"}}}
	if err := b.RefreshAuthorizedChannels(newConn()); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(b.AuthorizedChannels(), []string{"100", "200", "101"}); diff != nil {
		t.Error(diff)
	}
}

func TestRefreshKeepsUnresolvedEntries(t *testing.T) {
	b := &Base{Info: Info{Name: "purge", Roles: []string{"moderator", "typo-role"}}}
	err := b.RefreshAuthorizedRoles(newConn())
	if err == nil || !strings.Contains(err.Error(), "typo-role") {
		t.Fatalf("err = %v, want unresolved role reported", err)
	}
	if diff := deep.Equal(b.AuthorizedRoles(), []string{"900", "typo-role"}); diff != nil {
		t.Error(diff)
	}
}

func TestRefreshCollectsGuildErrors(t *testing.T) {
	conn := newConn()
	conn.fail = "g2"
	b := &Base{Info: Info{Name: "purge", Channels: []string{"general"}}}

	err := b.RefreshAuthorizedChannels(conn)
	if err == nil || !strings.Contains(err.Error(), "guild g2") {
		t.Fatalf("err = %v, want guild g2 failure", err)
	}
	if diff := deep.Equal(b.AuthorizedChannels(), []string{"100"}); diff != nil {
		t.Error(diff)
	}
}

func TestRefreshWithoutRestrictionsIsNoop(t *testing.T) {
	b := &Base{Info: Info{Name: "ping"}}
	if err := b.RefreshAuthorizedChannels(nil); err != nil {
		t.Fatal(err)
	}
	if err := b.RefreshAuthorizedRoles(nil); err != nil {
		t.Fatal(err)
	}
	if len(b.AuthorizedChannels()) != 0 || len(b.AuthorizedRoles()) != 0 {
		t.Fatal("unrestricted executor gained restrictions")
	}
}

func TestAuthorized(t *testing.T) {
	open := &plain{}
	restricted := &plain{Base{Info: Info{Channels: []string{"100"}, Roles: []string{"900", "901"}}}}

	tests := []struct {
		name    string
		e       Executor
		channel string
		roles   []string
		want    bool
	}{
		{"unrestricted", open, "anything", nil, true},
		{"wrong channel", restricted, "200", []string{"900"}, false},
		{"missing role", restricted, "100", []string{"1"}, false},
		{"any role matches", restricted, "100", []string{"1", "901"}, true},
	}
	for _, tt := range tests {
		if got := Authorized(tt.e, tt.channel, tt.roles); got != tt.want {
			t.Errorf("%s: Authorized = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAsSlashLooksThroughWrappers(t *testing.T) {
	s := &slash{SlashBase{Base: Base{Info: Info{Name: "roll"}}}}
	noop := func(e Executor) Executor { return Wrap(e, nil) }

	wrapped := Apply(s, noop, noop)
	got, ok := AsSlash(wrapped)
	if !ok || got != s {
		t.Fatalf("AsSlash(wrapped) = %v, %v", got, ok)
	}
	if Root(wrapped) != s {
		t.Fatal("Root did not unwrap to the original executor")
	}
	if IsSlash(&plain{}) || IsSlash(nil) {
		t.Fatal("plain executors are not slash-style")
	}
}

func TestWrapOrder(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(e Executor) Executor {
			return Wrap(e, func(ctx *Context) error {
				order = append(order, tag)
				return e.Execute(ctx)
			})
		}
	}

	e := Apply(&plain{}, mw("inner"), mw("outer"))
	if err := e.Execute(&Context{}); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(order, []string{"outer", "inner"}); diff != nil {
		t.Error(diff)
	}
}

type recorder struct{ got []*Reply }

func (r *recorder) Respond(_ *Context, rep *Reply) error {
	r.got = append(r.got, rep)
	return nil
}

func TestContextAccessors(t *testing.T) {
	rec := &recorder{}
	msg := &Context{
		Message: &discordgo.MessageCreate{Message: &discordgo.Message{
			GuildID: "g1", ChannelID: "c1",
			Author: &discordgo.User{ID: "u1"},
			Member: &discordgo.Member{Roles: []string{"900"}},
		}},
		Args:      []string{"ping"},
		Responder: rec,
	}

	if msg.IsSlash() || msg.GuildID() != "g1" || msg.ChannelID() != "c1" || msg.User().ID != "u1" {
		t.Fatalf("message accessors wrong: %+v", msg)
	}
	if diff := deep.Equal(msg.RoleIDs(), []string{"900"}); diff != nil {
		t.Error(diff)
	}
	if got := msg.StringOption("command"); got != "ping" {
		t.Fatalf("StringOption = %q, want first arg", got)
	}
	if msg.Option("command") != nil {
		t.Fatal("text invocation has no slash options")
	}

	if err := msg.ReplyEphemeral("hi"); err != nil {
		t.Fatal(err)
	}
	if len(rec.got) != 1 || !rec.got[0].Ephemeral || rec.got[0].Content != "hi" {
		t.Fatalf("replies = %+v", rec.got)
	}
}

func TestSlashContextOptions(t *testing.T) {
	ctx := &Context{Interaction: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:   discordgo.InteractionApplicationCommand,
		Member: &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "help",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "command", Type: discordgo.ApplicationCommandOptionString, Value: "ping"},
			},
		},
	}}}

	if !ctx.IsSlash() || ctx.User().ID != "u1" {
		t.Fatal("slash accessors wrong")
	}
	if got := ctx.StringOption("command"); got != "ping" {
		t.Fatalf("StringOption = %q", got)
	}
	if ctx.StringOption("missing") != "" {
		t.Fatal("missing option returned a value")
	}
}

func TestSessionResponderWithoutSession(t *testing.T) {
	if err := (&Context{}).Reply("x"); err == nil {
		t.Fatal("expected error without a session")
	}
}
