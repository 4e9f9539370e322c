package jsdoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/source"
)

func block(doc string, stmt source.Statement) source.Block {
	return source.Block{Doc: doc, Stmt: stmt}
}

func TestParseTypedVariable(t *testing.T) {
	sym, err := Parse("console.js", block("/** @type {Console} */", source.Statement{
		Kind: source.StmtVar, Path: []string{"console"}, Keyword: "var", Line: 2, Column: 1,
	}))
	require.NoError(t, err)

	assert.Equal(t, "console", sym.QualifiedName())
	assert.Equal(t, model.SymbolVariable, sym.Kind)
	assert.Equal(t, "Console", sym.DeclaredType.String())
	assert.Nil(t, sym.AttachTo)
	assert.Equal(t, model.Location{File: "console.js", Line: 2, Column: 1}, sym.Location)
}

func TestParsePrototypeMethod(t *testing.T) {
	doc := `/**
 * @param {*} condition
 * @param {...*} var_args
 */`
	sym, err := Parse("console.js", block(doc, source.Statement{
		Kind:     source.StmtAssign,
		Path:     []string{"Console", "prototype", "assert"},
		Callable: true,
		Params:   []source.StatementParam{{Name: "condition"}, {Name: "var_args"}},
		Body:     model.BodyEmptyFunction,
	}))
	require.NoError(t, err)

	assert.Equal(t, model.SymbolMethod, sym.Kind)
	assert.Equal(t, "Console.prototype.assert", sym.QualifiedName())
	require.NotNil(t, sym.AttachTo)
	assert.True(t, sym.AttachTo.Prototype)
	assert.Equal(t, []string{"Console"}, sym.AttachTo.Path)
	assert.True(t, sym.DeclaredType.IsUnknown())

	require.Len(t, sym.Params, 2)
	assert.Equal(t, "condition", sym.Params[0].Name)
	assert.True(t, sym.Params[0].Type.IsUnknown())
	assert.False(t, sym.Params[0].Variadic)
	assert.Equal(t, "var_args", sym.Params[1].Name)
	assert.True(t, sym.Params[1].Variadic)
}

func TestParseDerivesKinds(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		stmt source.Statement
		want model.SymbolKind
		typ  string
	}{
		{
			name: "constructor",
			doc:  "/** @constructor */",
			stmt: source.Statement{Kind: source.StmtFunction, Path: []string{"Console"}, Callable: true, Body: model.BodyEmptyFunction},
			want: model.SymbolConstructor,
			typ:  "Console",
		},
		{
			name: "interface",
			doc:  "/** @interface */",
			stmt: source.Statement{Kind: source.StmtFunction, Path: []string{"EventListener"}, Callable: true, Body: model.BodyEmptyFunction},
			want: model.SymbolInterface,
			typ:  "EventListener",
		},
		{
			name: "typedef",
			doc:  "/** @typedef {(string|number)} */",
			stmt: source.Statement{Kind: source.StmtVar, Path: []string{"Key"}},
			want: model.SymbolTypedef,
			typ:  "(number|string)",
		},
		{
			name: "namespace",
			doc:  "",
			stmt: source.Statement{Kind: source.StmtVar, Path: []string{"goog"}, Body: model.BodyNamespace},
			want: model.SymbolNamespace,
			typ:  "*",
		},
		{
			name: "static function",
			doc:  "/** @return {number} */",
			stmt: source.Statement{Kind: source.StmtAssign, Path: []string{"Date", "now"}, Callable: true, Body: model.BodyEmptyFunction},
			want: model.SymbolFunction,
			typ:  "number",
		},
		{
			name: "prototype property",
			doc:  "/** @type {number} */",
			stmt: source.Statement{Kind: source.StmtStub, Path: []string{"Console", "prototype", "memory"}},
			want: model.SymbolProperty,
			typ:  "number",
		},
		{
			name: "static property",
			doc:  "/** @const {string} */",
			stmt: source.Statement{Kind: source.StmtStub, Path: []string{"goog", "VERSION"}},
			want: model.SymbolProperty,
			typ:  "string",
		},
		{
			name: "method stub from tags",
			doc:  "/** @param {string} s\n * @return {void} */",
			stmt: source.Statement{Kind: source.StmtStub, Path: []string{"Console", "prototype", "log"}},
			want: model.SymbolMethod,
			typ:  "void",
		},
		{
			name: "function typed value",
			doc:  "/** @type {Function} */",
			stmt: source.Statement{Kind: source.StmtVar, Path: []string{"handler"}, Callable: true, Body: model.BodyEmptyFunction},
			want: model.SymbolVariable,
			typ:  "Function",
		},
		{
			name: "unannotated global",
			doc:  "",
			stmt: source.Statement{Kind: source.StmtVar, Path: []string{"x"}},
			want: model.SymbolVariable,
			typ:  "*",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := Parse("a.js", block(tt.doc, tt.stmt))
			require.NoError(t, err)
			assert.Equal(t, tt.want, sym.Kind)
			assert.Equal(t, tt.typ, sym.DeclaredType.String())
		})
	}
}

func TestParseStubParamsFromTags(t *testing.T) {
	sym, err := Parse("a.js", block("/** @param {string} s\n * @param {number=} n */", source.Statement{
		Kind: source.StmtStub, Path: []string{"Console", "prototype", "log"},
	}))
	require.NoError(t, err)
	require.Len(t, sym.Params, 2)
	assert.Equal(t, "s: string", sym.Params[0].String())
	assert.Equal(t, "n: number=", sym.Params[1].String())
}

func TestParseUnannotatedParams(t *testing.T) {
	sym, err := Parse("a.js", block("", source.Statement{
		Kind: source.StmtFunction, Path: []string{"f"}, Callable: true,
		Params: []source.StatementParam{{Name: "a"}, {Name: "rest", Rest: true}},
		Body:   model.BodyEmptyFunction,
	}))
	require.NoError(t, err)
	require.Len(t, sym.Params, 2)
	assert.True(t, sym.Params[0].Type.IsUnknown())
	assert.True(t, sym.Params[1].Variadic)
}

func TestParseOptionalBracketName(t *testing.T) {
	sym, err := Parse("a.js", block("/** @param {string} [label=default] */", source.Statement{
		Kind: source.StmtFunction, Path: []string{"f"}, Callable: true,
		Params: []source.StatementParam{{Name: "label"}},
		Body:   model.BodyEmptyFunction,
	}))
	require.NoError(t, err)
	require.Len(t, sym.Params, 1)
	assert.True(t, sym.Params[0].Optional)
}

func TestParseExtendsAndMetadata(t *testing.T) {
	doc := `/**
 * @constructor
 * @extends {?EventTarget}
 * @template T
 * @see https://example.com/node
 * @deprecated Use Element.
 */`
	sym, err := Parse("a.js", block(doc, source.Statement{
		Kind: source.StmtFunction, Path: []string{"Node"}, Callable: true, Body: model.BodyEmptyFunction,
	}))
	require.NoError(t, err)
	require.Len(t, sym.Extends, 1)
	assert.Equal(t, "EventTarget", sym.Extends[0].String())
	assert.Equal(t, []string{"T"}, sym.Templates)
	assert.Equal(t, []string{"https://example.com/node"}, sym.See)
	assert.Equal(t, "Use Element.", sym.Deprecated)
}

func TestParseMalformed(t *testing.T) {
	fn := func(params ...source.StatementParam) source.Statement {
		return source.Statement{Kind: source.StmtFunction, Path: []string{"f"}, Callable: true, Params: params, Body: model.BodyEmptyFunction}
	}
	tests := []struct {
		name string
		doc  string
		stmt source.Statement
	}{
		{"param name mismatch", "/** @param {number} b */", fn(source.StatementParam{Name: "a"})},
		{"param count mismatch", "/** @param {number} a */", fn(source.StatementParam{Name: "a"}, source.StatementParam{Name: "b"})},
		{"variadic not last", "/** @param {...*} a\n * @param {number} b */", fn(source.StatementParam{Name: "a"}, source.StatementParam{Name: "b"})},
		{"empty type", "/** @type {} */", source.Statement{Kind: source.StmtVar, Path: []string{"x"}}},
		{"unbalanced type", "/** @type {(number} */", source.Statement{Kind: source.StmtVar, Path: []string{"x"}}},
		{"param without type", "/** @param a */", fn(source.StatementParam{Name: "a"})},
		{"type with params", "/** @type {number}\n * @param {number} a */", fn(source.StatementParam{Name: "a"})},
		{"two types", "/** @type {number}\n * @type {string} */", source.Statement{Kind: source.StmtVar, Path: []string{"x"}}},
		{"two typedefs", "/** @typedef {number}\n * @typedef {string} */", source.Statement{Kind: source.StmtVar, Path: []string{"Id"}}},
		{"type arguments on primitive", "/** @type {number<string>} */", source.Statement{Kind: source.StmtVar, Path: []string{"x"}}},
		{"constructor and interface", "/** @constructor\n * @interface */", fn()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("a.js", block(tt.doc, tt.stmt))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestCheckVariadicLast(t *testing.T) {
	ok := []model.Param{{Name: "a"}, {Name: "b", Variadic: true}}
	assert.NoError(t, CheckVariadicLast(ok))

	bad := []model.Param{{Name: "a", Variadic: true}, {Name: "b"}}
	assert.True(t, errors.Is(CheckVariadicLast(bad), ErrMalformed))
}

func TestParseRejectsNonDeclarations(t *testing.T) {
	_, err := Parse("a.js", block("", source.Statement{Kind: source.StmtOther, BodyDetail: "if_statement"}))
	assert.Error(t, err)
}
