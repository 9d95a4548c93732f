package util

import "unicode/utf8"

// Split breaks line into tokens separated by runs of any characters in
// delimiters. Leading, trailing and repeated delimiters never produce
// empty tokens, so Split("/a//b/", "/") is ["a", "b"]. Use "/" to split a
// pathname and " " to split a shell command.
//
// Characters are compared by their exact encoding: a byte that is not
// valid UTF-8 only matches the same byte, never U+FFFD or another
// invalid byte.
func Split(line, delimiters string) []string {
	delims := make(map[string]struct{})
	for i := 0; i < len(delimiters); {
		n := unitLen(delimiters[i:])
		delims[delimiters[i:i+n]] = struct{}{}
		i += n
	}

	tokens := []string{}
	start := -1
	for i := 0; i < len(line); {
		n := unitLen(line[i:])
		if _, ok := delims[line[i:i+n]]; ok {
			if start >= 0 {
				tokens = append(tokens, line[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += n
	}
	if start >= 0 {
		tokens = append(tokens, line[start:])
	}
	return tokens
}

// unitLen is the length of the UTF-8 sequence at the start of s, or 1
// for an invalid byte.
func unitLen(s string) int {
	_, n := utf8.DecodeRuneInString(s)
	return n
}
