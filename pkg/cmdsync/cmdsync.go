// Package cmdsync pushes the slash executors of a registry to Discord as one
// bulk overwrite, running every executor's refresh hooks on the way.
package cmdsync

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/keshon/easycommands/pkg/executor"
	"github.com/keshon/easycommands/pkg/jobmgr"
	"github.com/keshon/easycommands/pkg/logging"
	"github.com/keshon/easycommands/pkg/registry"
	"github.com/keshon/easycommands/pkg/retrylimit"
	"github.com/keshon/easycommands/pkg/syncstate"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize/english"
	"github.com/rs/zerolog"
)

// Conn is the live connection a sync runs against.
type Conn interface {
	executor.Conn
	BulkOverwriteCommands(guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
}

// Options configures a Synchronizer.
type Options struct {
	// GuildID scopes the commands to one guild. Empty means global.
	GuildID string
	// Await makes Sync block on the submission and report its error.
	Await bool
	// State holds fingerprints of the previous submission. Nil means in-memory.
	State *syncstate.Store
	// Retry overrides retrylimit.DefaultRetryConfig.
	Retry   *retrylimit.RetryConfig
	Limiter *retrylimit.AdaptiveLimiter
}

// Result describes one Sync.
type Result struct {
	Declarations []*discordgo.ApplicationCommand
	Visited      int // unique executors
	HookErrors   int
	Diff         Diff
	// Pending is true when the submission was handed to a background job.
	Pending bool
	// Err is the submission error. Only set when awaiting.
	Err error
}

// Synchronizer is safe for concurrent use. Submissions run one at a time in
// the order their Syncs started, so the last Sync's payload is the one Discord
// ends up with.
type Synchronizer struct {
	opts    Options
	log     zerolog.Logger
	jobs    *jobmgr.Manager
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig

	mu   sync.Mutex
	seq  int
	tail chan struct{} // closed when the latest queued submission finishes
}

// New creates a Synchronizer.
func New(log zerolog.Logger, opts Options) *Synchronizer {
	s := &Synchronizer{
		opts: opts,
		log:  logging.For(log, logging.Sync),
	}
	if s.opts.State == nil {
		s.opts.State = syncstate.NewMemory()
	}

	s.limiter = opts.Limiter
	if s.limiter == nil {
		s.limiter = retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
	}
	s.retry = retrylimit.DefaultRetryConfig()
	if opts.Retry != nil {
		s.retry = *opts.Retry
	}
	s.retry.Logger = s.log

	s.jobs = jobmgr.NewManager(s.report)
	return s
}

// Scope is the scope label used in logs, jobs and the state store.
func (s *Synchronizer) Scope() string {
	if s.opts.GuildID == "" {
		return "global"
	}
	return s.opts.GuildID
}

// Sync builds a declaration for every unique slash executor in reg, runs
// every executor's refresh hooks against conn and submits the declarations
// in a single bulk overwrite.
func (s *Synchronizer) Sync(ctx context.Context, reg *registry.Registry, conn Conn) Result {
	var res Result
	entries := reg.Unique()
	res.Visited = len(entries)
	res.Declarations = make([]*discordgo.ApplicationCommand, 0, len(entries))

	for _, ent := range entries {
		e := ent.Executor
		if ent.Key != e.Name() {
			s.log.Warn().
				Str("name", e.Name()).
				Str("key", ent.Key).
				Msg("Executor name was taken by a later registration; using remaining key")
		}
		if slash, ok := executor.AsSlash(e); ok {
			slash.RefreshOptions()
			decl := declaration(ent.Key, e.Description(), slash.Options())
			s.validate(decl)
			res.Declarations = append(res.Declarations, decl)
		}
		res.HookErrors += s.runHooks(ent.Key, e, conn)
	}

	next := make(syncstate.Fingerprints, len(res.Declarations))
	for _, d := range res.Declarations {
		next[d.Name] = Fingerprint(d)
	}
	res.Diff = diff(s.opts.State.Get(s.opts.GuildID), next)

	s.log.Info().
		Str("scope", s.Scope()).
		Int("added", len(res.Diff.Added)).
		Int("changed", len(res.Diff.Changed)).
		Int("removed", len(res.Diff.Removed)).
		Int("unchanged", len(res.Diff.Unchanged)).
		Msgf("Submitting %s from %s",
			english.Plural(len(res.Declarations), "command", "commands"),
			english.Plural(res.Visited, "executor", "executors"))

	name, prev, done := s.enqueue()
	submit := func(ctx context.Context) error {
		defer close(done)
		if prev != nil {
			select {
			case <-prev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return s.submit(ctx, conn, res.Declarations, next)
	}

	if s.opts.Await {
		res.Err = submit(ctx)
		return res
	}

	if err := s.jobs.StartAsync(ctx, name, submit); err != nil {
		close(done)
		s.log.Error().Err(err).Msg("Command submission not started")
		res.Err = err
		return res
	}
	res.Pending = true
	return res
}

// enqueue reserves the next submission slot. The submission must wait for
// prev and close done when it finishes.
func (s *Synchronizer) enqueue() (name string, prev <-chan struct{}, done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	prev = s.tail
	done = make(chan struct{})
	s.tail = done
	return fmt.Sprintf("commands:%s#%d", s.Scope(), s.seq), prev, done
}

// Wait blocks until background submissions have finished.
func (s *Synchronizer) Wait() {
	s.jobs.Wait()
}

func (s *Synchronizer) submit(ctx context.Context, conn Conn, decls []*discordgo.ApplicationCommand, fps syncstate.Fingerprints) error {
	err := retrylimit.WithRetry(ctx, func() error {
		_, err := conn.BulkOverwriteCommands(s.opts.GuildID, decls)
		return err
	}, s.limiter, s.retry)
	if err != nil {
		return fmt.Errorf("bulk overwrite of %s: %w", english.Plural(len(decls), "command", "commands"), err)
	}

	if err := s.opts.State.Put(s.opts.GuildID, fps); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record command fingerprints")
	}
	return nil
}

func (s *Synchronizer) report(st jobmgr.Status) {
	switch st.State {
	case jobmgr.Running:
		s.log.Debug().Str("job", st.Job).Msg("Command submission started")
	case jobmgr.Done:
		s.log.Info().Str("job", st.Job).Dur("elapsed", st.Elapsed).Msg("Commands submitted")
	case jobmgr.Failed:
		s.log.Error().Err(st.Err).Str("job", st.Job).Dur("elapsed", st.Elapsed).Msg("Command submission failed")
	}
}

// runHooks returns the number of hooks that failed.
func (s *Synchronizer) runHooks(key string, e executor.Executor, conn Conn) int {
	hooks := []struct {
		name string
		fn   func(executor.Conn) error
	}{
		{"aliases", e.RefreshAliases},
		{"channels", e.RefreshAuthorizedChannels},
		{"roles", e.RefreshAuthorizedRoles},
	}

	failed := 0
	for _, h := range hooks {
		if err := h.fn(conn); err != nil {
			failed++
			s.log.Warn().Err(err).Str("executor", key).Str("hook", h.name).Msg("Refresh hook failed")
		}
	}
	return failed
}

func declaration(name, description string, opts []*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
	if opts == nil {
		opts = []*discordgo.ApplicationCommandOption{}
	}
	return &discordgo.ApplicationCommand{
		Type:        discordgo.ChatApplicationCommand,
		Name:        name,
		Description: description,
		Options:     opts,
	}
}

var commandName = regexp.MustCompile(`^[-_\p{L}\p{N}]{1,32}$`)

// validate warns about declarations Discord will refuse. They are still
// submitted so the error surfaces from Discord.
func (s *Synchronizer) validate(d *discordgo.ApplicationCommand) {
	if !commandName.MatchString(d.Name) {
		s.log.Warn().Str("name", d.Name).Msg("Command name is not a valid slash command name")
	} else if strings.ToLower(d.Name) != d.Name {
		s.log.Warn().Str("name", d.Name).Msg("Slash command names must be lower case")
	}
	if n := utf8.RuneCountInString(d.Description); n < 1 || n > 100 {
		s.log.Warn().Str("name", d.Name).Int("length", n).Msg("Slash command description must be 1-100 characters")
	}
}
