// Package registry maps invocation keys (primary names and aliases) to
// executors. It validates metadata on the way in but never rejects an
// executor: problems are logged as warnings.
package registry

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/keshon/easycommands/pkg/executor"
	"github.com/keshon/easycommands/pkg/logging"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
)

// Entry is one executor instance together with the key it is declared under.
type Entry struct {
	Key      string
	Executor executor.Executor
}

type slot struct {
	exec executor.Executor
	seq  uint64 // registration that produced this slot
}

// Registry is not safe for concurrent mutation; fill it before connecting.
type Registry struct {
	entries map[string]slot
	seq     uint64
	log     zerolog.Logger
}

// New returns an empty registry that reports warnings to log.
func New(log zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]slot),
		log:     logging.For(log, logging.Executors),
	}
}

// Add registers each executor under its name and every alias. Existing keys
// are overwritten.
func (r *Registry) Add(executors ...executor.Executor) *Registry {
	for _, e := range executors {
		if e == nil {
			r.log.Warn().Msg("Skipping nil executor")
			continue
		}
		r.seq++
		s := slot{exec: e, seq: r.seq}
		typ := fmt.Sprintf("%T", executor.Root(e))

		name := e.Name()
		if name == "" {
			r.log.Warn().Str("executor", typ).Msg("Executor doesn't have a name and could cause errors")
		}
		if e.Description() == "" {
			r.log.Warn().Str("executor", typ).Str("name", name).Msg("Executor doesn't have a description")
		}
		r.put(name, s, typ)

		for _, alias := range e.Aliases() {
			if alias == "" {
				r.log.Warn().Str("executor", typ).Str("name", name).Msg("Executor has an empty alias and could cause errors")
			}
			r.put(alias, s, typ)
		}
	}
	return r
}

func (r *Registry) put(key string, s slot, typ string) {
	if prev, ok := r.entries[key]; ok && !sameInstance(prev, s) {
		r.log.Warn().
			Str("key", key).
			Str("previous", fmt.Sprintf("%T", executor.Root(prev.exec))).
			Str("executor", typ).
			Msg("Key already registered; overwriting")
	}
	r.entries[key] = s
}

// Clear removes every entry.
func (r *Registry) Clear() *Registry {
	clear(r.entries)
	return r
}

// All returns a copy of the key -> executor mapping.
func (r *Registry) All() map[string]executor.Executor {
	out := make(map[string]executor.Executor, len(r.entries))
	for k, s := range r.entries {
		out[k] = s.exec
	}
	return out
}

// Get returns the executor registered under key.
func (r *Registry) Get(key string) (executor.Executor, bool) {
	s, ok := r.entries[key]
	return s.exec, ok
}

// Len returns the number of keys, aliases included.
func (r *Registry) Len() int { return len(r.entries) }

// Keys returns all keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Unique returns one entry per executor instance, ordered by key. The key is
// the executor's own name while that name still points at it; otherwise the
// first key that does, so Entry.Key differs from Executor.Name().
func (r *Registry) Unique() []Entry {
	type group struct {
		first string
		named bool
		exec  executor.Executor
	}

	groups := map[any]*group{}
	var order []any
	for _, k := range r.Keys() {
		s := r.entries[k]
		id := identity(s)
		g, ok := groups[id]
		if !ok {
			g = &group{first: k, exec: s.exec}
			groups[id] = g
			order = append(order, id)
		}
		if k == s.exec.Name() {
			g.named = true
		}
	}

	out := make([]Entry, 0, len(order))
	for _, id := range order {
		g := groups[id]
		key := g.first
		if g.named {
			key = g.exec.Name()
		}
		out = append(out, Entry{Key: key, Executor: g.exec})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Suggest returns up to limit keys that fuzzily match key, best first.
func (r *Registry) Suggest(key string, limit int) []string {
	if key == "" || limit <= 0 {
		return nil
	}
	ranks := fuzzy.RankFindFold(key, r.Keys())
	sort.Stable(ranks)

	var out []string
	for _, rk := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, rk.Target)
	}
	return out
}

// identity is the executor itself when it can be a map key, otherwise the
// registration sequence it came from. Comparability is checked on the dynamic
// value, since a comparable struct type can still hold a slice in an
// interface field.
func identity(s slot) any {
	if v := reflect.ValueOf(s.exec); v.IsValid() && v.Comparable() {
		return s.exec
	}
	return s.seq
}

func sameInstance(a, b slot) bool {
	return identity(a) == identity(b)
}
