package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/blobwar/strategy"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var searchOptions = []string{"-depth", "-threads", "-depthkeyed", "-pass"}

var commandMetadata = map[string]CommandMetadata{
	"ai": {
		Options: append([]string{"-time"}, searchOptions...),
		Args:    strategyNames(),
	},
	"search": {
		Options: searchOptions,
		Args:    strategyNames(),
	},
	"anytime": {
		Options: []string{"-time", "-maxdepth", "-threads", "-depthkeyed", "-pass"},
		Args:    strategyNames(),
	},
	"bot": {
		Options: []string{"-depth", "-time", "-channel"},
		Args:    strategyNames(),
	},
	"autoplay": {
		Options: []string{
			"-games", "-depth", "-depth2", "-time", "-threads", "-opening",
			"-board", "-seeds", "-logfile", "-db", "-histogram",
		},
		Args: strategyNames(),
	},
	"set": {
		Args: settable,
	},
	"help": {
		Args: []string{"strategies", "ai", "search", "anytime", "autoplay", "bot", "script", "state"},
	},
}

var commandNames = []string{
	"help", "new", "load", "state", "show", "moves", "play", "pass", "undo",
	"ai", "search", "anytime", "bot", "autoplay", "export", "set", "script", "exit",
}

var boolValues = []string{"true", "false"}

func strategyNames() []string {
	var names []string
	for _, k := range strategy.Kinds() {
		names = append(names, k.String())
	}
	return names
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// If we can't parse, fall back to simple space splitting
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch lastCompleteField {
		case "-depthkeyed", "-histogram":
			completions = boolValues
		case "-board":
			completions = []string{"standard"}
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			// Return only the part that needs to be added
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
