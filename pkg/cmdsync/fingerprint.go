package cmdsync

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// Fingerprint hashes a declaration as the bulk overwrite sends it. Fields
// Discord assigns (ID, application, guild, version) are left out, and an
// empty option list hashes like a missing one. Option order is kept; Discord
// shows options in the order they are declared.
func Fingerprint(cmd *discordgo.ApplicationCommand) string {
	wire := *cmd
	wire.ID, wire.ApplicationID, wire.GuildID, wire.Version = "", "", "", ""
	if len(wire.Options) == 0 {
		wire.Options = nil
	}
	data, err := json.Marshal(&wire)
	if err != nil {
		// unencodable choice value; Discord will reject it anyway
		data = []byte(wire.Name + "\x00" + wire.Description)
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Diff is how a set of declarations compares to the last submitted one.
type Diff struct {
	Added     []string
	Changed   []string
	Removed   []string
	Unchanged []string
}

func diff(prev, next map[string]string) Diff {
	var d Diff
	for name, fp := range next {
		old, ok := prev[name]
		switch {
		case !ok:
			d.Added = append(d.Added, name)
		case old != fp:
			d.Changed = append(d.Changed, name)
		default:
			d.Unchanged = append(d.Unchanged, name)
		}
	}
	for name := range prev {
		if _, ok := next[name]; !ok {
			d.Removed = append(d.Removed, name)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Changed)
	sort.Strings(d.Removed)
	sort.Strings(d.Unchanged)
	return d
}
