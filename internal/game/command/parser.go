package command

import "strings"

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command, preserving spacing (used
	// by say/emote/tell/whisper's message portion).
	RawArgs string
}

// Parse splits a text line into a command and arguments.
//
// Precondition: line should be trimmed of leading/trailing whitespace.
// Postcondition: Returns a ParseResult. If line is empty, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	spaceIdx := strings.IndexByte(line, ' ')
	if spaceIdx < 0 {
		return ParseResult{Command: strings.ToLower(line)}
	}

	cmd := strings.ToLower(line[:spaceIdx])
	rest := strings.TrimSpace(line[spaceIdx+1:])

	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}

	return ParseResult{Command: cmd, Args: args, RawArgs: rest}
}

// explicitIDPrefix is the `@id:<uuid>` direct-addressing form supported by
// tell/whisper target resolution; examine, listen and attack match names only.
const explicitIDPrefix = "@id:"

// ParseTarget splits text into a target specifier and a remaining message,
// using quoted, `@id:<uuid>` and first-word target forms:
//   - a leading quoted string (`"Old Man Jenkins" hello`) takes the quoted
//     text as the target verbatim;
//   - a leading `@id:<uuid>` token takes the UUID as an explicit target id;
//   - otherwise the first word is the target and the rest is the message.
//     Callers match that one word as a name prefix against present
//     characters; longer candidate prefixes spanning several words are not
//     tried, so a multi-word name must be quoted.
func ParseTarget(text string) (target, rest string, explicitID bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}

	if strings.HasPrefix(text, `"`) {
		if end := strings.IndexByte(text[1:], '"'); end >= 0 {
			target = text[1 : end+1]
			rest = strings.TrimSpace(text[end+2:])
			return target, rest, false
		}
	}

	if strings.HasPrefix(text, explicitIDPrefix) {
		remainder := text[len(explicitIDPrefix):]
		spaceIdx := strings.IndexByte(remainder, ' ')
		if spaceIdx < 0 {
			return remainder, "", true
		}
		return remainder[:spaceIdx], strings.TrimSpace(remainder[spaceIdx+1:]), true
	}

	spaceIdx := strings.IndexByte(text, ' ')
	if spaceIdx < 0 {
		return text, "", false
	}
	return text[:spaceIdx], strings.TrimSpace(text[spaceIdx+1:]), false
}
