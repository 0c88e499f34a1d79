package directory

import (
	"fmt"
	"strings"
)

// Match finds the id of the entry called name. Rules, in order:
//
//   - unique exact name, case-insensitive, leading '#' ignored
//   - "guild/channel" qualified name
//   - unique name prefix
//
// A name shared by several entries (#general in two guilds) does not match;
// the caller has to qualify it with the guild. Ambiguous prefixes do not
// match either.
func Match(entries []Entry, name string) (string, bool) {
	query := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
	if query == "" || len(entries) == 0 {
		return "", false
	}

	var exact []Entry
	for _, e := range entries {
		if strings.ToLower(e.Name) == query {
			exact = append(exact, e)
		}
	}
	switch len(exact) {
	case 0:
	case 1:
		return exact[0].ID, true
	default:
		return "", false
	}

	if i := strings.LastIndex(query, "/"); i > 0 {
		guild := query[:i]
		channel := strings.TrimPrefix(query[i+1:], "#")
		for _, e := range entries {
			if strings.ToLower(e.Guild) == guild && strings.ToLower(e.Name) == channel {
				return e.ID, true
			}
		}
	}

	var found []Entry
	for _, e := range entries {
		if strings.HasPrefix(strings.ToLower(e.Name), query) {
			found = append(found, e)
		}
	}
	if len(found) == 1 {
		return found[0].ID, true
	}
	return "", false
}

// FormatEntries renders entries for humans and for the send_message list action.
func FormatEntries(entries []Entry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		label := e.Name
		switch {
		case label == "":
			label = e.ID
		case e.Kind == KindChannel && !strings.HasPrefix(label, "#"):
			label = "#" + label
		}

		var details []string
		if e.Guild != "" {
			details = append(details, "guild: "+e.Guild)
		}
		details = append(details, "id: "+e.ID)
		if e.Home {
			details = append(details, "home")
		}
		lines = append(lines, fmt.Sprintf("%s:%s (%s)", e.Platform, label, strings.Join(details, ", ")))
	}
	return lines
}
