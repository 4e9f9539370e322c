package jsdoc

import (
	"fmt"
	"strings"

	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/source"
)

// Parse turns one declaration block into an annotated symbol. file is
// recorded as the symbol's location. Errors wrap ErrMalformed.
//
// Declarations without any annotation still produce a symbol whose types
// are unknown.
func Parse(file string, b source.Block) (*model.Symbol, error) {
	stmt := b.Stmt
	if stmt.Kind == source.StmtOther {
		return nil, fmt.Errorf("statement %q declares nothing", stmt.BodyDetail)
	}
	if len(stmt.Path) == 0 {
		return nil, fmt.Errorf("%w: declaration has no name", ErrMalformed)
	}

	c := &Comment{}
	if b.Doc != "" {
		var err error
		if c, err = ParseComment(b.Doc); err != nil {
			return nil, err
		}
	}

	sym := &model.Symbol{
		Name:       stmt.Path[len(stmt.Path)-1],
		Location:   model.Location{File: file, Line: stmt.Line, Column: stmt.Column},
		Body:       stmt.Body,
		BodyDetail: stmt.BodyDetail,
	}
	if owner := stmt.Path[:len(stmt.Path)-1]; len(owner) > 0 {
		att := &model.Attachment{}
		if len(owner) > 1 && owner[len(owner)-1] == "prototype" {
			att.Prototype = true
			owner = owner[:len(owner)-1]
		}
		att.Path = append([]string(nil), owner...)
		sym.AttachTo = att
	}

	a, err := readAnnotations(c)
	if err != nil {
		return nil, err
	}
	sym.Templates = a.templates
	sym.See = a.see
	sym.Deprecated = a.deprecated
	sym.Extends = a.extends

	sym.Kind = deriveKind(stmt, a, sym.AttachTo)

	if a.typ != nil && (len(a.params) > 0 || a.ret != nil) {
		return nil, fmt.Errorf("%w: @type cannot be combined with @param or @return", ErrMalformed)
	}

	switch {
	case sym.Kind == model.SymbolTypedef:
		sym.DeclaredType = *a.typedef
	case sym.Kind == model.SymbolConstructor || sym.Kind == model.SymbolInterface:
		sym.DeclaredType = model.Ref(sym.QualifiedName())
	case sym.Kind.Callable():
		sym.DeclaredType = model.Unknown()
		if a.ret != nil {
			sym.DeclaredType = *a.ret
		}
	case a.typ != nil:
		sym.DeclaredType = *a.typ
	default:
		sym.DeclaredType = model.Unknown()
	}

	if sym.Kind.Callable() {
		params, err := bindParams(stmt, a.params)
		if err != nil {
			return nil, err
		}
		sym.Params = params
	}
	return sym, nil
}

type paramTag struct {
	name string
	ParamType
}

type annotations struct {
	typ        *model.Type
	ret        *model.Type
	typedef    *model.Type
	params     []paramTag
	extends    []model.Type
	templates  []string
	see        []string
	deprecated string

	constructor bool
	iface       bool
}

func readAnnotations(c *Comment) (*annotations, error) {
	a := &annotations{}
	for _, t := range c.Tags {
		switch t.Name {
		case "type", "const", "define":
			if t.Name != "type" && !t.HasType {
				continue
			}
			if a.typ != nil {
				return nil, fmt.Errorf("%w: more than one type declared", ErrMalformed)
			}
			typ, err := tagType(t)
			if err != nil {
				return nil, err
			}
			a.typ = &typ
		case "return", "returns":
			if a.ret != nil {
				return nil, fmt.Errorf("%w: duplicate @%s", ErrMalformed, t.Name)
			}
			typ, err := tagType(t)
			if err != nil {
				return nil, err
			}
			a.ret = &typ
		case "typedef":
			if a.typedef != nil {
				return nil, fmt.Errorf("%w: duplicate @typedef", ErrMalformed)
			}
			typ, err := tagType(t)
			if err != nil {
				return nil, err
			}
			a.typedef = &typ
		case "param":
			p, err := readParam(t)
			if err != nil {
				return nil, err
			}
			a.params = append(a.params, p)
		case "extends", "implements":
			typ, err := tagType(t)
			if err != nil {
				return nil, err
			}
			a.extends = append(a.extends, typ.AsNonNull())
		case "template":
			for _, n := range strings.FieldsFunc(t.Text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
				a.templates = append(a.templates, n)
			}
		case "see":
			a.see = append(a.see, t.Text)
		case "deprecated":
			a.deprecated = t.Text
			if a.deprecated == "" {
				a.deprecated = "deprecated"
			}
		case "constructor":
			a.constructor = true
		case "interface", "record":
			a.iface = true
		}
	}
	if a.constructor && a.iface {
		return nil, fmt.Errorf("%w: @constructor and @interface are exclusive", ErrMalformed)
	}
	return a, nil
}

// tagType parses the braced type of t. A few tags allow the type without
// braces as the first word.
func tagType(t Tag) (model.Type, error) {
	src := t.Type
	if !t.HasType {
		src, _ = firstWord(t.Text)
	}
	if src == "" {
		return model.Type{}, fmt.Errorf("%w: @%s without a type", ErrMalformed, t.Name)
	}
	typ, err := ParseType(src)
	if err != nil {
		return model.Type{}, fmt.Errorf("@%s: %w", t.Name, err)
	}
	return typ, nil
}

func readParam(t Tag) (paramTag, error) {
	if !t.HasType {
		return paramTag{}, fmt.Errorf("%w: @param %s has no type", ErrMalformed, strings.TrimSpace(t.Text))
	}
	pt, err := ParseParamType(t.Type)
	if err != nil {
		return paramTag{}, fmt.Errorf("@param: %w", err)
	}
	name, _ := firstWord(t.Text)
	// [name] and [name=default] mark an optional parameter.
	if strings.HasPrefix(name, "[") {
		name = strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")
		name, _, _ = strings.Cut(name, "=")
		pt.Optional = true
	}
	if name == "" {
		return paramTag{}, fmt.Errorf("%w: @param {%s} has no name", ErrMalformed, t.Type)
	}
	return paramTag{name: name, ParamType: pt}, nil
}

func deriveKind(stmt source.Statement, a *annotations, att *model.Attachment) model.SymbolKind {
	signature := len(a.params) > 0 || a.ret != nil
	switch {
	case a.constructor:
		return model.SymbolConstructor
	case a.iface:
		return model.SymbolInterface
	case a.typedef != nil:
		return model.SymbolTypedef
	case att != nil && att.Prototype:
		if (stmt.Callable && a.typ == nil) || signature {
			return model.SymbolMethod
		}
		return model.SymbolProperty
	case (stmt.Callable && a.typ == nil) || signature:
		return model.SymbolFunction
	case stmt.Body == model.BodyNamespace && a.typ == nil:
		return model.SymbolNamespace
	case att != nil:
		return model.SymbolProperty
	default:
		return model.SymbolVariable
	}
}

// bindParams matches @param tags against the parameters written in the
// declaration. Without tags every written parameter is unknown.
func bindParams(stmt source.Statement, tags []paramTag) ([]model.Param, error) {
	var params []model.Param
	switch {
	case len(tags) == 0:
		for _, sp := range stmt.Params {
			params = append(params, model.Param{Name: sp.Name, Type: model.Unknown(), Variadic: sp.Rest})
		}
	case !stmt.Callable:
		// A stub such as `Foo.prototype.bar;` has no parameter list of its
		// own, so the tags define it.
		for _, t := range tags {
			params = append(params, model.Param{Name: t.name, Type: t.Type, Optional: t.Optional, Variadic: t.Variadic})
		}
	default:
		if len(tags) != len(stmt.Params) {
			return nil, fmt.Errorf("%w: %d @param tags for %d declared parameters", ErrMalformed, len(tags), len(stmt.Params))
		}
		for i, t := range tags {
			sp := stmt.Params[i]
			if t.name != sp.Name {
				return nil, fmt.Errorf("%w: @param %s does not match parameter %d (%s)", ErrMalformed, t.name, i+1, sp.Name)
			}
			params = append(params, model.Param{Name: t.name, Type: t.Type, Optional: t.Optional, Variadic: t.Variadic || sp.Rest})
		}
	}
	if err := CheckVariadicLast(params); err != nil {
		return nil, err
	}
	return params, nil
}

// CheckVariadicLast rejects a parameter list with a variadic parameter
// anywhere but last.
func CheckVariadicLast(params []model.Param) error {
	for i, p := range params {
		if p.Variadic && i != len(params)-1 {
			return fmt.Errorf("%w: variadic parameter %s must be last", ErrMalformed, p.Name)
		}
	}
	return nil
}
