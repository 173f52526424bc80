// pkg/relation/tokens.go
package relation

import (
	"strings"
	"unicode"

	"github.com/arc-language/nouzen/pkg/store"
)

// ParseTokens splits an APT relation list such as
// "libc6 (>= 2.34), zlib1g:any, awk | mawk" into tokens.
//
// The name of each entry ends at the first whitespace, ':' or '('.
// Architecture qualifiers are dropped and only the first alternative is kept.
func ParseTokens(text string) []store.Token {
	var tokens []store.Token
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		end := strings.IndexFunc(part, func(r rune) bool {
			return unicode.IsSpace(r) || r == ':' || r == '(' || r == '|'
		})
		if end == -1 {
			tokens = append(tokens, store.Token{Name: part})
			continue
		}
		if end == 0 {
			continue
		}

		name, rest := part[:end], part[end:]
		if strings.HasPrefix(rest, ":") {
			if i := strings.IndexFunc(rest, func(r rune) bool { return unicode.IsSpace(r) || r == '(' || r == '|' }); i != -1 {
				rest = rest[i:]
			} else {
				rest = ""
			}
		}
		if i := strings.Index(rest, "|"); i != -1 {
			rest = rest[:i]
		}

		tokens = append(tokens, store.Token{Name: name, Constraint: strings.TrimSpace(rest)})
	}
	return tokens
}

// FormatTokens joins tokens back into an APT relation list.
func FormatTokens(tokens []store.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.String()
	}
	return strings.Join(parts, ", ")
}
