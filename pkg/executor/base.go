package executor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/keshon/easycommands/pkg/util"

	"github.com/bwmarrin/discordgo"
)

// Info is the static metadata of an executor. Channels and Roles accept IDs
// or names; names are resolved by the refresh hooks.
type Info struct {
	Name        string
	Description string
	Aliases     []string
	Channels    []string
	Roles       []string
}

// Base implements everything in Executor except Execute. Embed it by value in
// a pointer executor:
//
//	type Ping struct{ executor.Base }
//
//	func NewPing() *Ping {
//		return &Ping{Base: executor.Base{Info: executor.Info{Name: "ping", Description: "Pong"}}}
//	}
type Base struct {
	Info Info

	mu       sync.RWMutex
	aliases  []string
	channels []string
	roles    []string
	resolved bool
}

func (b *Base) Name() string        { return b.Info.Name }
func (b *Base) Description() string { return b.Info.Description }

func (b *Base) Aliases() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.aliases != nil {
		return b.aliases
	}
	return b.Info.Aliases
}

func (b *Base) AuthorizedChannels() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.resolved && b.channels != nil {
		return b.channels
	}
	return b.Info.Channels
}

func (b *Base) AuthorizedRoles() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.resolved && b.roles != nil {
		return b.roles
	}
	return b.Info.Roles
}

// RefreshAliases drops blank and duplicate aliases, and aliases equal to the
// primary name.
func (b *Base) RefreshAliases(Conn) error {
	seen := map[string]bool{b.Info.Name: true}
	clean := make([]string, 0, len(b.Info.Aliases))
	for _, a := range b.Info.Aliases {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		clean = append(clean, a)
	}

	b.mu.Lock()
	b.aliases = clean
	b.mu.Unlock()
	return nil
}

// RefreshAuthorizedChannels resolves Info.Channels against the channels of
// every guild on conn.
func (b *Base) RefreshAuthorizedChannels(conn Conn) error {
	if len(b.Info.Channels) == 0 {
		return nil
	}

	channels, fetchErr := fetchAll(conn.Guilds(), "channels", conn.GuildChannels)
	errs := []error{fetchErr}
	known := map[string]string{} // lower-cased name or ID -> ID
	for _, c := range channels {
		known[c.ID] = c.ID
		known[strings.ToLower(c.Name)] = c.ID
	}

	ids, err := resolve("channel", b.Info.Channels, known)
	if err != nil {
		errs = append(errs, err)
	}

	b.mu.Lock()
	b.channels = ids
	b.resolved = true
	b.mu.Unlock()
	return errors.Join(errs...)
}

// RefreshAuthorizedRoles resolves Info.Roles against the roles of every guild
// on conn.
func (b *Base) RefreshAuthorizedRoles(conn Conn) error {
	if len(b.Info.Roles) == 0 {
		return nil
	}

	roles, fetchErr := fetchAll(conn.Guilds(), "roles", conn.GuildRoles)
	errs := []error{fetchErr}
	known := map[string]string{}
	for _, r := range roles {
		known[r.ID] = r.ID
		known[strings.ToLower(r.Name)] = r.ID
	}

	ids, err := resolve("role", b.Info.Roles, known)
	if err != nil {
		errs = append(errs, err)
	}

	b.mu.Lock()
	b.roles = ids
	b.resolved = true
	b.mu.Unlock()
	return errors.Join(errs...)
}

const fetchWorkers = 4

// fetchAll calls fetch for every guild concurrently and concatenates the
// results in guild order.
func fetchAll[T any](guilds []*discordgo.Guild, what string, fetch func(guildID string) ([]T, error)) ([]T, error) {
	per := make([][]T, len(guilds))
	err := util.Parallel(context.Background(), guilds, fetchWorkers, func(_ context.Context, i int, g *discordgo.Guild) error {
		items, err := fetch(g.ID)
		if err != nil {
			return fmt.Errorf("guild %s %s: %w", g.ID, what, err)
		}
		per[i] = items
		return nil
	})
	return slices.Concat(per...), err
}

// resolve maps wanted names or IDs to IDs. Unresolved entries are kept as-is
// so a misspelt name restricts the executor instead of opening it up.
func resolve(kind string, wanted []string, known map[string]string) ([]string, error) {
	ids := make([]string, 0, len(wanted))
	var missing []string
	for _, w := range wanted {
		if id, ok := known[w]; ok {
			ids = append(ids, id)
			continue
		}
		if id, ok := known[strings.ToLower(w)]; ok {
			ids = append(ids, id)
			continue
		}
		missing = append(missing, w)
		ids = append(ids, w)
	}
	if len(missing) > 0 {
		return ids, fmt.Errorf("unresolved %s(s): %s", kind, strings.Join(missing, ", "))
	}
	return ids, nil
}

// SlashBase is Base plus a fixed option schema, for slash executors whose
// options never change at runtime.
type SlashBase struct {
	Base
	Schema []*discordgo.ApplicationCommandOption
}

func (s *SlashBase) Options() []*discordgo.ApplicationCommandOption { return s.Schema }

// RefreshOptions is a no-op for a fixed schema.
func (s *SlashBase) RefreshOptions() {}
