package easycmd

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// DefaultIntents are seeded into every new Bot.
var DefaultIntents = []discordgo.Intent{
	discordgo.IntentGuilds,
	discordgo.IntentGuildMembers,
	discordgo.IntentGuildMessages,
	discordgo.IntentGuildMessageReactions,
	discordgo.IntentGuildVoiceStates,
}

var intentNames = map[string]discordgo.Intent{
	"GUILDS":                        discordgo.IntentGuilds,
	"GUILD_MEMBERS":                 discordgo.IntentGuildMembers,
	"MEMBERS":                       discordgo.IntentGuildMembers,
	"GUILD_MODERATION":              discordgo.IntentGuildModeration,
	"GUILD_BANS":                    discordgo.IntentGuildModeration,
	"GUILD_EMOJIS":                  discordgo.IntentGuildEmojis,
	"GUILD_EMOJIS_AND_STICKERS":     discordgo.IntentGuildEmojis,
	"GUILD_INTEGRATIONS":            discordgo.IntentGuildIntegrations,
	"GUILD_WEBHOOKS":                discordgo.IntentGuildWebhooks,
	"GUILD_INVITES":                 discordgo.IntentGuildInvites,
	"GUILD_VOICE_STATES":            discordgo.IntentGuildVoiceStates,
	"GUILD_PRESENCES":               discordgo.IntentGuildPresences,
	"GUILD_MESSAGES":                discordgo.IntentGuildMessages,
	"GUILD_MESSAGE_REACTIONS":       discordgo.IntentGuildMessageReactions,
	"GUILD_MESSAGE_TYPING":          discordgo.IntentGuildMessageTyping,
	"GUILD_MESSAGE_POLLS":           discordgo.IntentGuildMessagePolls,
	"DIRECT_MESSAGES":               discordgo.IntentDirectMessages,
	"DIRECT_MESSAGE_REACTIONS":      discordgo.IntentDirectMessageReactions,
	"DIRECT_MESSAGE_TYPING":         discordgo.IntentDirectMessageTyping,
	"DIRECT_MESSAGE_POLLS":          discordgo.IntentDirectMessagePolls,
	"MESSAGE_CONTENT":               discordgo.IntentMessageContent,
	"SCHEDULED_EVENTS":              discordgo.IntentGuildScheduledEvents,
	"GUILD_SCHEDULED_EVENTS":        discordgo.IntentGuildScheduledEvents,
	"AUTO_MODERATION_CONFIGURATION": discordgo.IntentAutoModerationConfiguration,
	"AUTO_MODERATION_EXECUTION":     discordgo.IntentAutoModerationExecution,
}

// ParseIntent maps a gateway intent name such as "GUILD_MESSAGES" or
// "message-content" to its value.
func ParseIntent(name string) (discordgo.Intent, error) {
	if i, ok := intentNames[normalize(name)]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("unknown gateway intent %q", name)
}

// ParseIntents parses every name, failing on the first unknown one.
func ParseIntents(names []string) ([]discordgo.Intent, error) {
	out := make([]discordgo.Intent, 0, len(names))
	for _, n := range names {
		i, err := ParseIntent(n)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// CacheFlag selects one of the discordgo state caches.
type CacheFlag int

const (
	CacheChannels CacheFlag = iota
	CacheThreads
	CacheEmojis
	CacheStickers
	CacheMembers
	CacheThreadMembers
	CacheRoles
	CacheVoice
	CachePresences
)

var cacheFlagNames = map[string]CacheFlag{
	"CHANNELS":         CacheChannels,
	"THREADS":          CacheThreads,
	"EMOJI":            CacheEmojis,
	"EMOJIS":           CacheEmojis,
	"STICKER":          CacheStickers,
	"STICKERS":         CacheStickers,
	"MEMBERS":          CacheMembers,
	"MEMBER_OVERRIDES": CacheMembers,
	"THREAD_MEMBERS":   CacheThreadMembers,
	"ROLES":            CacheRoles,
	"ROLE_TAGS":        CacheRoles,
	"VOICE":            CacheVoice,
	"VOICE_STATE":      CacheVoice,
	"PRESENCES":        CachePresences,
	"ONLINE_STATUS":    CachePresences,
	"ACTIVITY":         CachePresences,
}

func (f CacheFlag) String() string {
	switch f {
	case CacheChannels:
		return "CHANNELS"
	case CacheThreads:
		return "THREADS"
	case CacheEmojis:
		return "EMOJIS"
	case CacheStickers:
		return "STICKERS"
	case CacheMembers:
		return "MEMBERS"
	case CacheThreadMembers:
		return "THREAD_MEMBERS"
	case CacheRoles:
		return "ROLES"
	case CacheVoice:
		return "VOICE"
	case CachePresences:
		return "PRESENCES"
	}
	return fmt.Sprintf("CacheFlag(%d)", int(f))
}

// ParseCacheFlag maps a cache name such as "VOICE_STATE" to its flag.
func ParseCacheFlag(name string) (CacheFlag, error) {
	if f, ok := cacheFlagNames[normalize(name)]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown cache flag %q", name)
}

// ParseCacheFlags parses every name, failing on the first unknown one.
func ParseCacheFlags(names []string) ([]CacheFlag, error) {
	out := make([]CacheFlag, 0, len(names))
	for _, n := range names {
		f, err := ParseCacheFlag(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// apply toggles the state cache behind f.
func (f CacheFlag) apply(st *discordgo.State, on bool) {
	switch f {
	case CacheChannels:
		st.TrackChannels = on
	case CacheThreads:
		st.TrackThreads = on
	case CacheEmojis:
		st.TrackEmojis = on
	case CacheStickers:
		st.TrackStickers = on
	case CacheMembers:
		st.TrackMembers = on
	case CacheThreadMembers:
		st.TrackThreadMembers = on
	case CacheRoles:
		st.TrackRoles = on
	case CacheVoice:
		st.TrackVoice = on
	case CachePresences:
		st.TrackPresences = on
	}
}

func normalize(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.NewReplacer("-", "_", " ", "_").Replace(name)
}

func combine(intents []discordgo.Intent) discordgo.Intent {
	var out discordgo.Intent
	for _, i := range intents {
		out |= i
	}
	return out
}
