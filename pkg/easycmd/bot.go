// Package easycmd is the builder-style entry point: collect intents, cache
// flags, listeners and executors, then Build to connect, sync the slash
// commands and start dispatching.
//
//	bot, err := easycmd.New(token, easycmd.Options{Prefix: "!"})
//	if err != nil { ... }
//	bot.AddExecutor(defaults.NewHelp(bot.Registry(), "!"), defaults.NewPing())
//	s, err := bot.Build(ctx)
package easycmd

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/keshon/easycommands/pkg/cmdsync"
	"github.com/keshon/easycommands/pkg/executor"
	"github.com/keshon/easycommands/pkg/logging"
	"github.com/keshon/easycommands/pkg/registry"
	"github.com/keshon/easycommands/pkg/retrylimit"
	"github.com/keshon/easycommands/pkg/session"
	"github.com/keshon/easycommands/pkg/syncstate"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize/english"
	"github.com/rs/zerolog"
)

// State is where a Bot is in its lifecycle.
type State int

const (
	Unconfigured State = iota
	Configuring
	Connecting
	Ready
	Synced
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configuring:
		return "configuring"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Synced:
		return "synced"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configures a Bot.
type Options struct {
	// Prefix enables text commands ("!help"). Empty disables them.
	Prefix string
	// GuildID syncs commands to one guild instead of globally.
	GuildID string
	// AwaitSync blocks Build on the command submission.
	AwaitSync bool
	// SyncState keeps fingerprints between runs. Nil keeps them in memory.
	SyncState *syncstate.Store
	Retry     *retrylimit.RetryConfig
	// Logger defaults to logging.New with default options.
	Logger *zerolog.Logger
	// Responder overrides how dispatch and executors reply.
	Responder executor.Responder
}

// Bot is configured from one goroutine before Build; dispatch afterwards is
// safe for concurrent use.
type Bot struct {
	opts Options
	log  zerolog.Logger

	session  *discordgo.Session
	conn     *session.Conn
	registry *registry.Registry
	sync     *cmdsync.Synchronizer

	mu            sync.Mutex
	state         State
	intents       []discordgo.Intent
	enabledCache  []CacheFlag
	disabledCache []CacheFlag
	listeners     []string
	opened        bool
}

// New creates the discordgo session without connecting and installs the
// interaction and message dispatchers.
func New(token string, opts Options) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("bot token is empty")
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log := logging.New(logging.Options{})
	if opts.Logger != nil {
		log = *opts.Logger
	}

	b := &Bot{
		opts:     opts,
		log:      log,
		session:  s,
		conn:     session.New(s),
		registry: registry.New(log),
		sync: cmdsync.New(log, cmdsync.Options{
			GuildID: opts.GuildID,
			Await:   opts.AwaitSync,
			State:   opts.SyncState,
			Retry:   opts.Retry,
		}),
		state:   Unconfigured,
		intents: slices.Clone(DefaultIntents),
	}

	s.AddHandler(b.onInteractionCreate)
	b.listeners = append(b.listeners, "easycmd.interactions")
	if opts.Prefix != "" {
		s.AddHandler(b.onMessageCreate)
		b.listeners = append(b.listeners, "easycmd.messages")
	}
	return b, nil
}

func (b *Bot) configuring() {
	if b.state == Unconfigured {
		b.state = Configuring
	}
}

// AddGatewayIntents adds intents on top of DefaultIntents.
func (b *Bot) AddGatewayIntents(intents ...discordgo.Intent) *Bot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configuring()
	b.intents = append(b.intents, intents...)
	return b
}

// AddEnabledCacheFlags turns state caches on.
func (b *Bot) AddEnabledCacheFlags(flags ...CacheFlag) *Bot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configuring()
	b.enabledCache = append(b.enabledCache, flags...)
	return b
}

// AddDisabledCacheFlags turns state caches off. Disabled wins over enabled.
func (b *Bot) AddDisabledCacheFlags(flags ...CacheFlag) *Bot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configuring()
	b.disabledCache = append(b.disabledCache, flags...)
	return b
}

// RegisterListeners adds discordgo event handlers, e.g.
// func(*discordgo.Session, *discordgo.GuildCreate).
func (b *Bot) RegisterListeners(listeners ...interface{}) *Bot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configuring()
	for _, l := range listeners {
		if l == nil {
			continue
		}
		b.session.AddHandler(l)
		b.listeners = append(b.listeners, fmt.Sprintf("%T", l))
	}
	return b
}

// AddExecutor registers executors under their names and aliases.
func (b *Bot) AddExecutor(executors ...executor.Executor) *Bot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configuring()
	b.registry.Add(executors...)
	return b
}

// ClearExecutors empties the registry. The next Build syncs an empty set.
func (b *Bot) ClearExecutors() *Bot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configuring()
	b.registry.Clear()
	return b
}

func (b *Bot) GatewayIntents() []discordgo.Intent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.intents)
}

func (b *Bot) EnabledCacheFlags() []CacheFlag {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.enabledCache)
}

func (b *Bot) DisabledCacheFlags() []CacheFlag {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.disabledCache)
}

// Executors returns a copy of the key -> executor mapping.
func (b *Bot) Executors() map[string]executor.Executor {
	return b.registry.All()
}

func (b *Bot) Registry() *registry.Registry { return b.registry }
func (b *Bot) Session() *discordgo.Session  { return b.session }

// Synchronizer exposes the command synchronizer, e.g. to Wait in tests.
func (b *Bot) Synchronizer() *cmdsync.Synchronizer { return b.sync }

func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bot) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// effectiveIntents is the union of the configured intents, plus message
// content when text commands are enabled.
func (b *Bot) effectiveIntents() discordgo.Intent {
	i := combine(b.intents)
	if b.opts.Prefix != "" {
		i |= discordgo.IntentMessageContent
	}
	return i
}

func (b *Bot) applyCacheFlags(st *discordgo.State) {
	for _, f := range b.enabledCache {
		f.apply(st, true)
	}
	for _, f := range b.disabledCache {
		f.apply(st, false)
	}
}

// Build connects, waits for READY, syncs the registered slash commands and
// logs what Discord has on record. Calling it again reconnects and re-syncs.
// With Options.AwaitSync a failed submission is returned; the session stays
// open in the Ready state until Close.
func (b *Bot) Build(ctx context.Context) (*discordgo.Session, error) {
	b.mu.Lock()
	reconnect := b.opened
	b.state = Connecting
	b.session.Identify.Intents = b.effectiveIntents()
	if b.session.State != nil {
		b.applyCacheFlags(b.session.State)
	}
	b.mu.Unlock()

	startLog := logging.For(b.log, logging.Startup)
	if reconnect {
		startLog.Info().Msg("Closing previous connection")
		b.sync.Wait()
		if err := b.session.Close(); err != nil {
			startLog.Warn().Err(err).Msg("Failed to close previous connection")
		}
		b.mu.Lock()
		b.opened = false
		b.mu.Unlock()
	}

	connectStart := time.Now()
	ready := make(chan *discordgo.Ready, 1)
	remove := b.session.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
		ready <- r
	})

	if err := b.session.Open(); err != nil {
		remove()
		b.setState(Configuring)
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}
	b.mu.Lock()
	b.opened = true
	b.mu.Unlock()

	var r *discordgo.Ready
	select {
	case r = <-ready:
	case <-ctx.Done():
		remove()
		b.abandonConnect()
		return nil, fmt.Errorf("waiting for READY: %w", ctx.Err())
	}
	b.setState(Ready)

	loadStart := time.Now()
	startLog.Info().Msg("------- Loading EasyCommands -------")
	if r.User != nil {
		startLog.Info().
			Str("user", r.User.Username).
			Int("guilds", len(r.Guilds)).
			Msgf("Connected as %s to %s", r.User.Username, english.Plural(len(r.Guilds), "guild", "guilds"))
	}
	b.mu.Lock()
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()
	listenLog := logging.For(b.log, logging.Listeners)
	listenLog.Info().
		Strs("listeners", listeners).
		Msg(strings.Join(listeners, ", "))

	res := b.sync.Sync(ctx, b.registry, b.conn)
	if res.Err != nil {
		syncLog := logging.For(b.log, logging.Sync)
		syncLog.Error().Err(res.Err).Msg("Command sync failed")
		if b.opts.AwaitSync {
			return nil, fmt.Errorf("failed to sync commands: %w", res.Err)
		}
	}
	b.setState(Synced)

	b.logRemoteCommands()

	timeLog := logging.For(b.log, logging.Timing)
	timeLog.Info().
		Dur("load", time.Since(loadStart)).
		Dur("total", time.Since(connectStart)).
		Msgf("EasyCommands finished loading in %dms, total %dms",
			time.Since(loadStart).Milliseconds(), time.Since(connectStart).Milliseconds())

	return b.session, nil
}

// abandonConnect closes a session that never reached READY.
func (b *Bot) abandonConnect() {
	if err := b.session.Close(); err != nil {
		startLog := logging.For(b.log, logging.Startup)
		startLog.Warn().Err(err).Msg("Failed to close session after cancelled connect")
	}
	b.mu.Lock()
	b.opened = false
	b.state = Configuring
	b.mu.Unlock()
}

// logRemoteCommands reads back the registered commands. With a
// fire-and-forget sync this may still show the previous set.
func (b *Bot) logRemoteCommands() {
	log := logging.For(b.log, logging.Executors)
	cmds, err := b.conn.Commands(b.opts.GuildID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read back registered commands")
		return
	}
	log.Info().Msg("- Logging registered Executors")
	log.Info().Msg("- [Slash]")
	for _, c := range cmds {
		log.Info().Str("id", c.ID).Msgf("/%s : %s", c.Name, c.ID)
	}
}

// Close waits for pending command submissions and closes the connection.
func (b *Bot) Close() error {
	b.sync.Wait()
	b.mu.Lock()
	opened := b.opened
	b.opened = false
	if b.state > Configuring {
		b.state = Configuring
	}
	b.mu.Unlock()
	if !opened {
		return nil
	}
	return b.session.Close()
}
