// Package jsdoc reads the annotation comments attached to externs
// declarations and turns each declaration into an annotated symbol.
package jsdoc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is wrapped by every error caused by an annotation that
// cannot be parsed or contradicts its declaration.
var ErrMalformed = errors.New("malformed annotation")

// Tag is one `@name payload` entry of a doc comment.
type Tag struct {
	Name string

	// Type is the text between the braces following the tag name, without
	// the braces. Empty when the tag has no braced type.
	Type string

	// HasType distinguishes `@type {}` from a tag without braces.
	HasType bool

	// Text is the remainder after the type.
	Text string

	// Line is the zero-based line offset of the tag inside the comment.
	Line int
}

// Comment is a parsed doc comment.
type Comment struct {
	Description string
	Tags        []Tag
}

// Has reports whether the comment carries a tag with the given name.
func (c *Comment) Has(name string) bool {
	for _, t := range c.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// All returns the tags with any of the given names, in comment order.
func (c *Comment) All(names ...string) []Tag {
	var out []Tag
	for _, t := range c.Tags {
		for _, n := range names {
			if t.Name == n {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// IsDocComment reports whether text is a `/** */` comment.
func IsDocComment(text string) bool {
	return strings.HasPrefix(text, "/**") && !strings.HasPrefix(text, "/**/") && strings.HasSuffix(text, "*/")
}

// ParseComment splits a `/** ... */` comment into its description and tags.
// A tag payload continues across lines until the next tag.
func ParseComment(text string) (*Comment, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "/**")
	body = strings.TrimSuffix(body, "*/")

	c := &Comment{}
	var desc []string
	var cur *tagBuilder
	var builders []*tagBuilder

	for i, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "@") {
			cur = &tagBuilder{line: i}
			cur.text.WriteString(line)
			builders = append(builders, cur)
			continue
		}
		if cur != nil {
			if line != "" {
				cur.text.WriteByte(' ')
				cur.text.WriteString(line)
			}
			continue
		}
		if line != "" {
			desc = append(desc, line)
		}
	}
	c.Description = strings.Join(desc, " ")

	for _, b := range builders {
		tag, err := b.build()
		if err != nil {
			return nil, err
		}
		c.Tags = append(c.Tags, tag)
	}
	return c, nil
}

type tagBuilder struct {
	line int
	text strings.Builder
}

func (b *tagBuilder) build() (Tag, error) {
	s := b.text.String()[1:]
	end := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '{' })
	if end < 0 {
		end = len(s)
	}
	tag := Tag{Name: s[:end], Line: b.line}
	if tag.Name == "" {
		return Tag{}, fmt.Errorf("%w: empty tag name", ErrMalformed)
	}
	rest := strings.TrimSpace(s[end:])
	if strings.HasPrefix(rest, "{") {
		depth := 0
		closeAt := -1
		for i := 0; i < len(rest); i++ {
			switch rest[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				closeAt = i
				break
			}
		}
		if closeAt < 0 {
			return Tag{}, fmt.Errorf("%w: @%s: unbalanced braces in %q", ErrMalformed, tag.Name, rest)
		}
		tag.HasType = true
		tag.Type = strings.TrimSpace(rest[1:closeAt])
		rest = strings.TrimSpace(rest[closeAt+1:])
	}
	tag.Text = rest
	return tag, nil
}

// firstWord splits s at the first run of whitespace.
func firstWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}
