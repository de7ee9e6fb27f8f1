package util

import (
	"strings"
	"unicode/utf8"
)

// NormalizeCommand trims s and strips a "@botname" suffix from its first word,
// so "/pause@my_bot" and " /pause " both become "/pause".
func NormalizeCommand(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "/") {
		return s
	}
	word, rest, _ := strings.Cut(s, " ")
	if at := strings.IndexByte(word, '@'); at > 0 {
		word = word[:at]
	}
	if rest == "" {
		return word
	}
	return word + " " + rest
}

// SplitChunks splits text into pieces of at most max runes, preferring line breaks.
func SplitChunks(text string, max int) []string {
	if text == "" {
		return nil
	}
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}
	var chunks []string
	var b strings.Builder
	n := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		for utf8.RuneCountInString(line) > 0 {
			room := max - n
			if room == 0 {
				chunks = append(chunks, b.String())
				b.Reset()
				n = 0
				room = max
			}
			r := []rune(line)
			if len(r) <= room {
				b.WriteString(line)
				n += len(r)
				break
			}
			if n > 0 {
				// flush before splitting a long line
				chunks = append(chunks, b.String())
				b.Reset()
				n = 0
				continue
			}
			b.WriteString(string(r[:room]))
			n += room
			line = string(r[room:])
		}
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
