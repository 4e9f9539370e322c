package jsdoc

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gnana997/ambient/pkg/model"
)

// ParseType parses a type expression as written between the braces of a
// @type, @return, @typedef or @extends tag.
func ParseType(src string) (model.Type, error) {
	p := &typeParser{src: src}
	p.skipSpace()
	if p.eof() {
		return model.Type{}, fmt.Errorf("%w: empty type expression", ErrMalformed)
	}
	t, err := p.union()
	if err != nil {
		return model.Type{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return model.Type{}, p.errorf("unexpected %q", p.rest())
	}
	return t, nil
}

// ParamType is the parsed payload of an @param type.
type ParamType struct {
	Type     model.Type
	Optional bool
	Variadic bool
}

// ParseParamType parses an @param type expression, accepting the leading
// `...` variadic marker and the trailing `=` optional marker.
func ParseParamType(src string) (ParamType, error) {
	s := strings.TrimSpace(src)
	var pt ParamType
	if rest, ok := strings.CutPrefix(s, "..."); ok {
		pt.Variadic = true
		s = strings.TrimSpace(rest)
		// `...[T]` is an older spelling of `...T`.
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	if rest, ok := strings.CutSuffix(s, "="); ok {
		pt.Optional = true
		s = strings.TrimSpace(rest)
	}
	if pt.Variadic && pt.Optional {
		return ParamType{}, fmt.Errorf("%w: parameter cannot be both variadic and optional", ErrMalformed)
	}
	if s == "" {
		if pt.Variadic {
			pt.Type = model.Unknown()
			return pt, nil
		}
		return ParamType{}, fmt.Errorf("%w: empty type expression", ErrMalformed)
	}
	t, err := ParseType(s)
	if err != nil {
		return ParamType{}, err
	}
	pt.Type = t
	return pt, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) eof() bool { return p.pos >= len(p.src) }

func (p *typeParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) rest() string { return p.src[p.pos:] }

func (p *typeParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) accept(c byte) bool {
	p.skipSpace()
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(c byte) error {
	if !p.accept(c) {
		if p.eof() {
			return p.errorf("expected %q, got end of expression", c)
		}
		return p.errorf("expected %q at %q", c, p.rest())
	}
	return nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: type %q: %s", ErrMalformed, p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) union() (model.Type, error) {
	first, err := p.term()
	if err != nil {
		return model.Type{}, err
	}
	alts := []model.Type{first}
	for p.accept('|') {
		t, err := p.term()
		if err != nil {
			return model.Type{}, err
		}
		alts = append(alts, t)
	}
	if len(alts) == 1 {
		return first, nil
	}
	return model.Union(alts...), nil
}

// atTermEnd reports whether the next token closes the current term, which
// makes a lone `?` mean the unknown type.
func (p *typeParser) atTermEnd() bool {
	p.skipSpace()
	switch p.peek() {
	case 0, '|', ')', '>', ',', '=', '}':
		return true
	}
	return false
}

func (p *typeParser) term() (model.Type, error) {
	p.skipSpace()
	switch p.peek() {
	case '?':
		p.pos++
		if p.atTermEnd() {
			return model.Unknown(), nil
		}
		t, err := p.term()
		if err != nil {
			return model.Type{}, err
		}
		return t.AsNullable(), nil
	case '!':
		p.pos++
		t, err := p.term()
		if err != nil {
			return model.Type{}, err
		}
		return t.AsNonNull(), nil
	}

	t, err := p.primary()
	if err != nil {
		return model.Type{}, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '?':
			p.pos++
			t = t.AsNullable()
			continue
		case '!':
			p.pos++
			t = t.AsNonNull()
			continue
		}
		return t, nil
	}
}

func (p *typeParser) primary() (model.Type, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return model.Type{}, p.errorf("missing type")
	case c == '*':
		p.pos++
		return model.Unknown(), nil
	case c == '(':
		p.pos++
		t, err := p.union()
		if err != nil {
			return model.Type{}, err
		}
		if err := p.expect(')'); err != nil {
			return model.Type{}, err
		}
		return t, nil
	case c == '{':
		if err := p.skipBalanced('{', '}'); err != nil {
			return model.Type{}, err
		}
		return model.Ref("Object"), nil
	case isNameStart(c):
		name := p.name()
		if name == "function" {
			return p.functionType()
		}
		args, err := p.typeArgs()
		if err != nil {
			return model.Type{}, err
		}
		if len(args) > 0 && (name == "void" || model.IsPrimitive(name)) {
			return model.Type{}, p.errorf("%s does not take type arguments", name)
		}
		return named(name, args), nil
	default:
		return model.Type{}, p.errorf("unexpected %q", p.rest())
	}
}

// functionType consumes `(params)` and an optional `:R` after the
// `function` keyword. The signature is not kept.
func (p *typeParser) functionType() (model.Type, error) {
	p.skipSpace()
	if p.peek() != '(' {
		return model.Type{}, p.errorf("expected parameter list after function")
	}
	if err := p.skipBalanced('(', ')'); err != nil {
		return model.Type{}, err
	}
	if p.accept(':') {
		if _, err := p.term(); err != nil {
			return model.Type{}, err
		}
	}
	return model.Ref("Function"), nil
}

func (p *typeParser) typeArgs() ([]model.Type, error) {
	p.skipSpace()
	if strings.HasPrefix(p.rest(), ".<") {
		p.pos++
	}
	if !p.accept('<') {
		return nil, nil
	}
	var args []model.Type
	for {
		t, err := p.union()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		if p.accept(',') {
			continue
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *typeParser) name() string {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == '.' {
			// `Array.<T>` stops the name before the dot.
			if p.pos+1 < len(p.src) && isNameStart(p.src[p.pos+1]) {
				p.pos++
				continue
			}
			break
		}
		if !isNamePart(c) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) skipBalanced(open, close byte) error {
	depth := 0
	for !p.eof() {
		switch p.src[p.pos] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
		p.pos++
	}
	return p.errorf("unbalanced %q", open)
}

func named(name string, args []model.Type) model.Type {
	switch {
	case name == "void":
		return model.Void()
	case model.IsPrimitive(name):
		return model.Primitive(name)
	default:
		return model.Ref(name, args...)
	}
}

func isNameStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
