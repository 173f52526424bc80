// pkg/relation/apk.go
package relation

import (
	"strings"

	"github.com/arc-language/nouzen/pkg/store"
)

// ParseAPKList converts a space-separated APKINDEX list (p: or D:) into tokens.
// Conflict entries ("!name") are skipped; use ParseAPKDepends to keep them.
func ParseAPKList(text string) []store.Token {
	depends, _ := ParseAPKDepends(text)
	return depends
}

// ParseAPKDepends converts an APKINDEX D: list into depends and breaks.
//
//	"so:libc.musl-x86_64.so.1 cmd:sh pc:zlib>=1.2 !musl<1.2.5-r21 !musl>1.2.5-r21"
//
// yields depends "libc.musl-x86_64.so.1, sh, pc-zlib (>= 1.2)" and breaks
// "musl (= 1.2.5-r21)".
func ParseAPKDepends(text string) (depends, breaks []store.Token) {
	for _, entry := range strings.Fields(text) {
		negated := strings.HasPrefix(entry, "!")
		if negated {
			entry = entry[1:]
		}
		tok, ok := convertAPKEntry(entry)
		if !ok {
			continue
		}
		if negated {
			breaks = mergeBounds(breaks, tok)
		} else {
			depends = append(depends, tok)
		}
	}
	return depends, breaks
}

func convertAPKEntry(entry string) (store.Token, bool) {
	if strings.HasPrefix(entry, "cmd:") {
		entry = entry[len("cmd:"):]
	} else if strings.HasPrefix(entry, "so:") {
		entry = entry[len("so:"):]
	}

	op := strings.IndexAny(entry, "<>=~")
	name, rest := entry, ""
	if op != -1 {
		name, rest = entry[:op], entry[op:]
	}
	name = strings.ReplaceAll(name, ":", "-")
	if name == "" {
		return store.Token{}, false
	}

	tok := store.Token{Name: name}
	if rest == "" {
		return tok, true
	}

	n := 1
	if len(rest) > 1 && rest[1] == '=' && rest[0] != '=' {
		n = 2
	}
	operator, version := rest[:n], rest[n:]
	if version != "" {
		tok.Constraint = "(" + operator + " " + version + ")"
	}
	return tok, true
}

// mergeBounds folds "name (< v)" and "name (> v)" into "name (= v)".
func mergeBounds(tokens []store.Token, tok store.Token) []store.Token {
	for i, prev := range tokens {
		if prev.Name != tok.Name {
			continue
		}
		pv, pop := splitConstraint(prev.Constraint)
		tv, top := splitConstraint(tok.Constraint)
		if pv != "" && pv == tv && ((pop == "<" && top == ">") || (pop == ">" && top == "<")) {
			tokens[i].Constraint = "(= " + pv + ")"
			return tokens
		}
	}
	return append(tokens, tok)
}

func splitConstraint(c string) (version, op string) {
	c = strings.TrimSuffix(strings.TrimPrefix(c, "("), ")")
	fields := strings.Fields(c)
	if len(fields) != 2 {
		return "", ""
	}
	return fields[1], fields[0]
}
