// pkg/relation/maintainer.go
package relation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/arc-language/nouzen/pkg/core"
	"github.com/arc-language/nouzen/pkg/store"
)

// ParseMaintainers parses a comma-separated list of "Name <email>" or bare
// "Name" entries.
func ParseMaintainers(text string) ([]store.Maintainer, error) {
	var out []store.Maintainer
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty entry in %q", core.ErrMalformedMaintainer, text)
		}

		open := strings.IndexByte(part, '<')
		if open == -1 {
			if strings.ContainsRune(part, '>') {
				return nil, fmt.Errorf("%w: unbalanced '>' in %q", core.ErrMalformedMaintainer, part)
			}
			out = append(out, store.Maintainer{Name: part})
			continue
		}

		if open == 0 {
			return nil, fmt.Errorf("%w: missing name in %q", core.ErrMalformedMaintainer, part)
		}
		if !unicode.IsSpace(rune(part[open-1])) {
			return nil, fmt.Errorf("%w: missing space before '<' in %q", core.ErrMalformedMaintainer, part)
		}
		if !strings.HasSuffix(part, ">") {
			return nil, fmt.Errorf("%w: missing '>' in %q", core.ErrMalformedMaintainer, part)
		}

		email := part[open+1 : len(part)-1]
		if email == "" {
			return nil, fmt.Errorf("%w: empty email in %q", core.ErrMalformedMaintainer, part)
		}
		if strings.ContainsAny(email, "<>") {
			return nil, fmt.Errorf("%w: unbalanced brackets in %q", core.ErrMalformedMaintainer, part)
		}

		out = append(out, store.Maintainer{
			Name:  strings.TrimSpace(part[:open]),
			Email: email,
		})
	}
	return out, nil
}
