package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aeolun/yacs/pkg/client/ui/modal"
)

// CommandKind identifies a line typed into the compose box
type CommandKind int

const (
	CommandSend CommandKind = iota
	CommandJoin
	CommandMore
	CommandAttach
	CommandDrop
	CommandMute
	CommandRefresh
	CommandFiles
	CommandCreateChannel
	CommandDeleteChannel
	CommandRenameChannel
	CommandToggleChannelPrivilege
	CommandKick
	CommandDeleteResource
	CommandDeleteMessage
	CommandHelp
	CommandQuit
)

// Command is a parsed input line. Text carries the message body, path, name,
// nick or resource id; ID carries a channel or message id.
type Command struct {
	Kind CommandKind
	Text string
	ID   uint64
}

var ErrUnknownCommand = errors.New("unknown command")

type commandDef struct {
	name  string
	usage string
	help  string
	kind  CommandKind
	parse func(kind CommandKind, rest string) (Command, bool)
}

var commandDefs = []commandDef{
	{"join", "/join <channel>", "Switch to a channel", CommandJoin, parseID},
	{"more", "/more", "Load older messages", CommandMore, parseNone},
	{"attach", "/attach <path>", "Upload a file for the next message", CommandAttach, parseText},
	{"drop", "/drop <name>", "Cancel a pending attachment", CommandDrop, parseText},
	{"files", "/files <message>", "Show the attachments of a message", CommandFiles, parseID},
	{"mute", "/mute", "Toggle the new message alert", CommandMute, parseNone},
	{"refresh", "/refresh", "Reload the channel list", CommandRefresh, parseNone},
	{"mkchan", "/mkchan <name>", "Create a channel", CommandCreateChannel, parseText},
	{"rmchan", "/rmchan <channel>", "Delete a channel", CommandDeleteChannel, parseID},
	{"renchan", "/renchan <channel> <name>", "Rename a channel", CommandRenameChannel, parseIDText},
	{"privchan", "/privchan <channel>", "Toggle admin-only posting", CommandToggleChannelPrivilege, parseID},
	{"kick", "/kick <nick>", "Disconnect a user", CommandKick, parseWord},
	{"rmres", "/rmres <resource>", "Delete an uploaded file", CommandDeleteResource, parseWord},
	{"rmmsg", "/rmmsg <message>", "Delete a message", CommandDeleteMessage, parseID},
	{"help", "/help", "Show this help", CommandHelp, parseNone},
	{"quit", "/quit", "Leave", CommandQuit, parseNone},
}

// ParseInput turns a compose line into a command. Lines not starting with
// '/' are messages; a leading "//" sends a literal '/'.
func ParseInput(line string) (Command, error) {
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CommandSend, Text: line}, nil
	}
	if strings.HasPrefix(line, "//") {
		return Command{Kind: CommandSend, Text: line[1:]}, nil
	}

	name, rest, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
	rest = strings.TrimSpace(rest)
	for _, def := range commandDefs {
		if def.name != strings.ToLower(name) {
			continue
		}
		cmd, ok := def.parse(def.kind, rest)
		if !ok {
			return Command{}, fmt.Errorf("usage: %s", def.usage)
		}
		return cmd, nil
	}
	return Command{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
}

func parseNone(kind CommandKind, rest string) (Command, bool) {
	return Command{Kind: kind}, rest == ""
}

func parseText(kind CommandKind, rest string) (Command, bool) {
	return Command{Kind: kind, Text: rest}, rest != ""
}

func parseWord(kind CommandKind, rest string) (Command, bool) {
	return Command{Kind: kind, Text: rest}, rest != "" && !strings.ContainsAny(rest, " \t")
}

func parseID(kind CommandKind, rest string) (Command, bool) {
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return Command{}, false
	}
	return Command{Kind: kind, ID: id}, true
}

func parseIDText(kind CommandKind, rest string) (Command, bool) {
	first, text, _ := strings.Cut(rest, " ")
	cmd, ok := parseID(kind, first)
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return Command{}, false
	}
	cmd.Text = text
	return cmd, true
}

func helpEntries() []modal.HelpEntry {
	entries := make([]modal.HelpEntry, 0, len(commandDefs)+3)
	for _, def := range commandDefs {
		entries = append(entries, modal.HelpEntry{Usage: def.usage, Help: def.help})
	}
	return append(entries,
		modal.HelpEntry{Usage: "ctrl+n / ctrl+p", Help: "Next / previous channel"},
		modal.HelpEntry{Usage: "pgup at top", Help: "Load older messages"},
		modal.HelpEntry{Usage: "ctrl+c", Help: "Quit"},
	)
}
