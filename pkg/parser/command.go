package parser

import "strings"

// ParseCommand splits a message into a Command.
//
// Returns false when text does not start with a slash. A "@botname" suffix
// on the keyword, as sent in group chats, is split off into Mention.
func ParseCommand(text string) (Command, bool) {
	raw := strings.TrimSpace(text)
	fields := strings.Fields(raw)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	var mention string
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name, mention = name[:at], name[at+1:]
	}
	if name == "" {
		return Command{}, false
	}

	cmd := Command{Name: name, Mention: mention, Raw: raw}
	if len(fields) > 1 {
		cmd.Arg = fields[1]
	}
	return cmd, true
}

// AddressedTo reports whether the command is meant for the bot with the given
// username. Commands without a mention are addressed to every bot, and an
// empty username accepts any mention. Usernames compare case-insensitively.
func (c Command) AddressedTo(username string) bool {
	username = strings.TrimPrefix(username, "@")
	if c.Mention == "" || username == "" {
		return true
	}
	return strings.EqualFold(c.Mention, username)
}
