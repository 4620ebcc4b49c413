package easycmd

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/go-test/deep"
	"github.com/rs/zerolog"
)

func newTestBot(t *testing.T, opts Options) *Bot {
	t.Helper()
	nop := zerolog.Nop()
	opts.Logger = &nop
	b, err := New("test-token", opts)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNewRejectsEmptyToken(t *testing.T) {
	if _, err := New("  ", Options{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestNewSeedsDefaultIntents(t *testing.T) {
	b := newTestBot(t, Options{})
	if diff := deep.Equal(b.GatewayIntents(), DefaultIntents); diff != nil {
		t.Error(diff)
	}
	if b.State() != Unconfigured {
		t.Fatalf("state = %v, want unconfigured", b.State())
	}
}

func TestAccumulatorsChainAndAppend(t *testing.T) {
	b := newTestBot(t, Options{})

	got := b.AddGatewayIntents(discordgo.IntentGuildPresences).
		AddEnabledCacheFlags(CacheVoice, CacheMembers).
		AddDisabledCacheFlags(CachePresences)
	if got != b {
		t.Fatal("accumulators must return the same bot")
	}
	b.AddGatewayIntents(discordgo.IntentDirectMessages)

	wantIntents := append(append([]discordgo.Intent{}, DefaultIntents...), discordgo.IntentGuildPresences, discordgo.IntentDirectMessages)
	if diff := deep.Equal(b.GatewayIntents(), wantIntents); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(b.EnabledCacheFlags(), []CacheFlag{CacheVoice, CacheMembers}); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(b.DisabledCacheFlags(), []CacheFlag{CachePresences}); diff != nil {
		t.Error(diff)
	}
	if b.State() != Configuring {
		t.Fatalf("state = %v, want configuring", b.State())
	}
}

func TestEffectiveIntents(t *testing.T) {
	base := combine(DefaultIntents)

	if got := newTestBot(t, Options{}).effectiveIntents(); got != base {
		t.Fatalf("intents = %b, want %b", got, base)
	}
	if got := newTestBot(t, Options{Prefix: "!"}).effectiveIntents(); got != base|discordgo.IntentMessageContent {
		t.Fatalf("text commands must add message content, got %b", got)
	}
}

func TestDisabledCacheFlagWins(t *testing.T) {
	b := newTestBot(t, Options{})
	b.AddEnabledCacheFlags(CacheVoice, CacheRoles).AddDisabledCacheFlags(CacheVoice)

	st := discordgo.NewState()
	st.TrackVoice, st.TrackRoles = false, false
	b.applyCacheFlags(st)

	if st.TrackVoice {
		t.Error("voice cache enabled although disabled")
	}
	if !st.TrackRoles {
		t.Error("roles cache not enabled")
	}
}

func TestExecutorsAndClear(t *testing.T) {
	b := newTestBot(t, Options{})
	b.AddExecutor(newCmd("ping", "p", "pong"))

	if n := len(b.Executors()); n != 3 {
		t.Fatalf("got %d keys, want 3", n)
	}
	b.ClearExecutors()
	if n := len(b.Executors()); n != 0 {
		t.Fatalf("got %d keys after clear, want 0", n)
	}
}

func TestRegisterListenersRecordsNames(t *testing.T) {
	b := newTestBot(t, Options{Prefix: "!"})
	b.RegisterListeners(func(*discordgo.Session, *discordgo.GuildCreate) {}, nil)

	want := []string{"easycmd.interactions", "easycmd.messages", "func(*discordgo.Session, *discordgo.GuildCreate)"}
	if diff := deep.Equal(b.listeners, want); diff != nil {
		t.Error(diff)
	}
}

func TestDefaultIntentsMatchNames(t *testing.T) {
	got, err := ParseIntents([]string{"GUILDS", "GUILD_MEMBERS", "GUILD_MESSAGES", "GUILD_MESSAGE_REACTIONS", "GUILD_VOICE_STATES"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, DefaultIntents); diff != nil {
		t.Error(diff)
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		want discordgo.Intent
		ok   bool
	}{
		{"GUILD_MESSAGES", discordgo.IntentGuildMessages, true},
		{"guild-members", discordgo.IntentGuildMembers, true},
		{"MEMBERS", discordgo.IntentGuildMembers, true},
		{" message content ", discordgo.IntentMessageContent, true},
		{"GUILD_BANS", discordgo.IntentGuildModeration, true},
		{"NOPE", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseIntent(tt.name)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseIntent(%q) = %v, %v", tt.name, got, err)
		}
	}
}

func TestParseCacheFlags(t *testing.T) {
	got, err := ParseCacheFlags([]string{"VOICE_STATE", "member_overrides", "emoji"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, []CacheFlag{CacheVoice, CacheMembers, CacheEmojis}); diff != nil {
		t.Error(diff)
	}
	if _, err := ParseCacheFlags([]string{"VOICE", "bogus"}); err == nil {
		t.Fatal("expected error for unknown cache flag")
	}
}

func TestAbandonedConnectResets(t *testing.T) {
	b := newTestBot(t, Options{})
	b.opened = true
	b.setState(Connecting)

	b.abandonConnect()

	if b.opened || b.State() != Configuring {
		t.Fatalf("opened = %v, state = %v", b.opened, b.State())
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCloseBeforeBuild(t *testing.T) {
	b := newTestBot(t, Options{})
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}
