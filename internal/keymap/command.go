// Package keymap implements the line-oriented key/value interpreter and
// the stores it runs against.
package keymap

import "strings"

// Kind identifies what an input line asks for.
type Kind int

const (
	KindNone    Kind = iota // blank line
	KindComment             // "# ..."
	KindLookup              // "key"
	KindDelete              // "key ="
	KindSet                 // "key = value"
	KindList                // "="
	KindFind                // "= value"
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindComment:
		return "comment"
	case KindLookup:
		return "lookup"
	case KindDelete:
		return "delete"
	case KindSet:
		return "set"
	case KindList:
		return "list"
	case KindFind:
		return "find"
	default:
		return "unknown"
	}
}

// Command is one parsed input line.
type Command struct {
	Kind  Kind
	Key   string
	Value string
}

// ParseLine classifies line. The first '=' separates key from value and
// whitespace around either is dropped; whitespace inside them is kept.
func ParseLine(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: KindNone}
	}
	if strings.HasPrefix(trimmed, "#") {
		return Command{Kind: KindComment}
	}

	key, value, found := strings.Cut(trimmed, "=")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch {
	case !found:
		return Command{Kind: KindLookup, Key: key}
	case key == "" && value == "":
		return Command{Kind: KindList}
	case key == "":
		return Command{Kind: KindFind, Value: value}
	case value == "":
		return Command{Kind: KindDelete, Key: key}
	default:
		return Command{Kind: KindSet, Key: key, Value: value}
	}
}
