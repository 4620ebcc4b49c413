// Package middleware holds executor wrappers applied with executor.Apply:
//
//	e := executor.Apply(defaults.NewPing(),
//	    middleware.GuildOnly(),
//	    middleware.Cooldown(5*time.Second, 1),
//	    middleware.CommandLogger(log),
//	)
package middleware

import (
	"sync"
	"time"

	"github.com/keshon/easycommands/pkg/executor"
	"github.com/keshon/easycommands/pkg/logging"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// GuildOnly silently ignores invocations outside a guild.
func GuildOnly() executor.Middleware {
	return func(e executor.Executor) executor.Executor {
		return executor.Wrap(e, func(ctx *executor.Context) error {
			if ctx.GuildID() == "" {
				return nil
			}
			return e.Execute(ctx)
		})
	}
}

// CommandLogger logs every invocation after it ran, with its outcome.
func CommandLogger(log zerolog.Logger) executor.Middleware {
	log = logging.For(log, logging.Dispatch)
	return func(e executor.Executor) executor.Executor {
		return executor.Wrap(e, func(ctx *executor.Context) error {
			start := time.Now()
			err := e.Execute(ctx)

			ev := log.Info()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			if u := ctx.User(); u != nil {
				ev = ev.Str("user", u.Username).Str("user_id", u.ID)
			}
			ev.Str("command", e.Name()).
				Str("invoked", ctx.Invoked).
				Bool("slash", ctx.IsSlash()).
				Str("guild", ctx.GuildID()).
				Str("channel", ctx.ChannelID()).
				Dur("took", time.Since(start)).
				Msg("Command executed")
			return err
		})
	}
}

// Cooldown limits each user to burst invocations per interval. Refused
// invocations only get an ephemeral notice.
func Cooldown(interval time.Duration, burst int) executor.Middleware {
	if burst < 1 {
		burst = 1
	}
	return func(e executor.Executor) executor.Executor {
		limits := newUserLimits(interval, burst)
		return executor.Wrap(e, func(ctx *executor.Context) error {
			u := ctx.User()
			if u == nil || limits.allow(u.ID, time.Now()) {
				return e.Execute(ctx)
			}
			return ctx.ReplyEphemeral("Slow down, try again in a moment.")
		})
	}
}

// userLimits keeps one limiter per user. Limiters that have refilled
// completely are dropped, since a fresh one behaves the same.
type userLimits struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	refill    time.Duration
	lastSweep time.Time
	limiters  map[string]*rate.Limiter
}

func newUserLimits(interval time.Duration, burst int) *userLimits {
	return &userLimits{
		every:    rate.Every(interval),
		burst:    burst,
		refill:   interval * time.Duration(burst),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (u *userLimits) allow(userID string, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if now.Sub(u.lastSweep) >= u.refill {
		u.sweep(now)
	}
	l, ok := u.limiters[userID]
	if !ok {
		l = rate.NewLimiter(u.every, u.burst)
		u.limiters[userID] = l
	}
	return l.AllowN(now, 1)
}

func (u *userLimits) sweep(now time.Time) {
	for id, l := range u.limiters {
		if l.TokensAt(now) >= float64(u.burst) {
			delete(u.limiters, id)
		}
	}
	u.lastSweep = now
}

func (u *userLimits) len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.limiters)
}
