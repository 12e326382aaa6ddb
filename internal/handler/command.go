package handler

import (
	"strings"
)

const CommandRequest = "request"

type Command struct {
	Name     string // lowercased
	Argument string // remaining words joined by single spaces
}

// parseCommand splits a prefixed message into a command and its argument.
// Words are separated by runs of spaces only, so newlines and tabs inside
// the argument survive. It returns nil when content does not start with
// prefix or names no command.
func parseCommand(content, prefix string) *Command {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return nil
	}

	body := strings.TrimSpace(content[len(prefix):])
	if body == "" {
		return nil
	}

	words := strings.FieldsFunc(body, func(r rune) bool { return r == ' ' })
	return &Command{
		Name:     strings.ToLower(words[0]),
		Argument: strings.Join(words[1:], " "),
	}
}
