// pkg/control/parser.go
package control

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Paragraph is one "Key: value" stanza. Keys keep their first-seen order.
type Paragraph struct {
	keys   []string
	values map[string]string
}

// NewParagraph returns an empty paragraph.
func NewParagraph() *Paragraph {
	return &Paragraph{values: make(map[string]string)}
}

// Set stores value under key.
func (p *Paragraph) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key, or "".
func (p *Paragraph) Get(key string) string {
	return p.values[key]
}

// Has reports whether key is present.
func (p *Paragraph) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Uint parses the value for key. Missing keys yield 0.
func (p *Paragraph) Uint(key string) (uint64, error) {
	v, ok := p.values[key]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", key, err)
	}
	return n, nil
}

// Bool parses "1"/"0", "yes"/"no" and "true"/"false".
func (p *Paragraph) Bool(key string) (bool, bool) {
	switch strings.ToLower(p.values[key]) {
	case "1", "yes", "true":
		return true, true
	case "0", "no", "false":
		return false, true
	}
	return false, false
}

// Keys returns the keys in order.
func (p *Paragraph) Keys() []string {
	return p.keys
}

// Len returns the number of fields.
func (p *Paragraph) Len() int {
	return len(p.keys)
}

// Format writes the paragraph in "Key: value" form.
func (p *Paragraph) Format(w io.Writer) error {
	for _, key := range p.keys {
		value := strings.ReplaceAll(p.values[key], "\n", "\n ")
		if _, err := fmt.Fprintf(w, "%s: %s\n", key, value); err != nil {
			return err
		}
	}
	return nil
}

// Parse reads blank-line separated paragraphs. Lines starting with a space or
// tab continue the previous field.
func Parse(r io.Reader) ([]*Paragraph, error) {
	var paragraphs []*Paragraph
	err := Walk(r, func(p *Paragraph) error {
		paragraphs = append(paragraphs, p)
		return nil
	})
	return paragraphs, err
}

// Walk calls fn for each paragraph as it is read.
func Walk(r io.Reader, fn func(*Paragraph) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // Handle large descriptions

	var current *Paragraph
	var lastKey string

	flush := func() error {
		if current == nil || current.Len() == 0 {
			current = nil
			return nil
		}
		p := current
		current = nil
		lastKey = ""
		return fn(p)
	}

	for scanner.Scan() {
		line := scanner.Text()

		// Empty line ends the stanza
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if current != nil && lastKey != "" {
				cont := strings.TrimSpace(line)
				if cont == "." {
					cont = ""
				}
				current.values[lastKey] += "\n" + cont
			}
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		if current == nil {
			current = NewParagraph()
		}
		lastKey = strings.TrimSpace(parts[0])
		current.Set(lastKey, strings.TrimSpace(parts[1]))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning control data: %w", err)
	}

	return flush()
}
