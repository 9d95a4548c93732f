package util

import (
	"io"
	"strings"
)

// JoinSeq renders items separated by single spaces with no trailing
// separator. A nil format falls back to ToString.
func JoinSeq[T any](items []T, format func(T) string) string {
	var b strings.Builder
	_ = WriteSeq(&b, items, format)
	return b.String()
}

// WriteSeq writes the JoinSeq rendering of items to w.
func WriteSeq[T any](w io.Writer, items []T, format func(T) string) error {
	if format == nil {
		format = ToString[T]
	}
	for i, item := range items {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, format(item)); err != nil {
			return err
		}
	}
	return nil
}
