package source

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/parser"
	"github.com/gnana997/ambient/pkg/parser/queries"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSplitter(t *testing.T) *Splitter {
	t.Helper()
	pm := parser.NewParserManager(testLogger())
	qm := queries.NewQueryManager(pm, testLogger())
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return NewSplitter(pm, qm, testLogger())
}

const consoleSource = `/**
 * @fileoverview Console externs.
 * @externs
 */

/** @type {Console} */
var console;

/**
 * @param {*} condition
 * @param {...*} var_args
 */
Console.prototype.assert = function(condition, var_args) {};

/** @type {number} */
Console.prototype.memory;
`

func TestSplitConsoleExterns(t *testing.T) {
	s := newTestSplitter(t)

	file, err := s.Split("console.js", []byte(consoleSource))
	require.NoError(t, err)

	assert.Equal(t, "console.js", file.Path)
	assert.Equal(t, parser.LanguageJavaScript, file.Language)
	assert.True(t, file.Externs)
	assert.Equal(t, "Console externs.", file.Overview)
	assert.Len(t, file.ContentHash, 64)
	assert.Equal(t, len(consoleSource), file.Size)

	require.Len(t, file.Blocks, 3)

	v := file.Blocks[0]
	assert.Equal(t, "/** @type {Console} */", v.Doc)
	assert.Equal(t, 6, v.DocLine)
	assert.Equal(t, StmtVar, v.Stmt.Kind)
	assert.Equal(t, []string{"console"}, v.Stmt.Path)
	assert.Equal(t, "var", v.Stmt.Keyword)
	assert.Equal(t, model.BodyNone, v.Stmt.Body)
	assert.Equal(t, 7, v.Stmt.Line)

	fn := file.Blocks[1]
	assert.Contains(t, fn.Doc, "@param {...*} var_args")
	assert.Equal(t, StmtAssign, fn.Stmt.Kind)
	assert.Equal(t, []string{"Console", "prototype", "assert"}, fn.Stmt.Path)
	assert.True(t, fn.Stmt.Callable)
	assert.Equal(t, model.BodyEmptyFunction, fn.Stmt.Body)
	assert.Equal(t, []StatementParam{{Name: "condition"}, {Name: "var_args"}}, fn.Stmt.Params)

	stub := file.Blocks[2]
	assert.Equal(t, StmtStub, stub.Stmt.Kind)
	assert.Equal(t, []string{"Console", "prototype", "memory"}, stub.Stmt.Path)
	assert.Equal(t, model.BodyNone, stub.Stmt.Body)
}

func TestSplitDocAttachment(t *testing.T) {
	s := newTestSplitter(t)

	src := `/** @type {number} */
// detached by this comment
var a;

var b;

/** @type {string} */
var c;
`
	file, err := s.Split("a.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, file.Blocks, 3)

	assert.Empty(t, file.Blocks[0].Doc)
	assert.Empty(t, file.Blocks[1].Doc)
	assert.Equal(t, "/** @type {string} */", file.Blocks[2].Doc)
	assert.False(t, file.Externs)
}

func TestSplitMultipleDeclarators(t *testing.T) {
	s := newTestSplitter(t)

	file, err := s.Split("a.js", []byte("/** @type {number} */\nvar a, b;\n"))
	require.NoError(t, err)
	require.Len(t, file.Blocks, 2)
	assert.Equal(t, []string{"a"}, file.Blocks[0].Stmt.Path)
	assert.Equal(t, []string{"b"}, file.Blocks[1].Stmt.Path)
	assert.Equal(t, file.Blocks[0].Doc, file.Blocks[1].Doc)
}

func TestSplitClassifiesBodies(t *testing.T) {
	s := newTestSplitter(t)

	tests := []struct {
		name   string
		src    string
		kind   StatementKind
		body   model.BodyKind
		detail string
	}{
		{"bare var", "var x;", StmtVar, model.BodyNone, ""},
		{"namespace", "var goog = {};", StmtVar, model.BodyNamespace, ""},
		{"number literal", "var x = 1;", StmtVar, model.BodyLiteral, ""},
		{"negative literal", "var x = -1;", StmtVar, model.BodyLiteral, ""},
		{"string const", `const VERSION = "1.0";`, StmtVar, model.BodyLiteral, ""},
		{"literal object", "var o = {a: 1, b: 'x'};", StmtVar, model.BodyLiteral, ""},
		{"literal array", "var o = [1, 2];", StmtVar, model.BodyLiteral, ""},
		{"call initializer", "var x = compute();", StmtVar, model.BodyImplementation, "call_expression"},
		{"arithmetic", "var x = 1 + 2;", StmtVar, model.BodyImplementation, "binary_expression"},
		{"empty function decl", "function alert(message) {}", StmtFunction, model.BodyEmptyFunction, ""},
		{"function with body", "function f() { return 1; }", StmtFunction, model.BodyImplementation, "function body"},
		{"empty function expr", "a.b = function() {};", StmtAssign, model.BodyEmptyFunction, ""},
		{"function expr body", "a.b = function() { doIt(); };", StmtAssign, model.BodyImplementation, "function body"},
		{"arrow expression", "a.b = () => 1;", StmtAssign, model.BodyImplementation, "expression body"},
		{"assign namespace", "a.b = {};", StmtAssign, model.BodyNamespace, ""},
		{"stub", "a.b.c;", StmtStub, model.BodyNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := s.Split("t.js", []byte(tt.src))
			require.NoError(t, err)
			require.Len(t, file.Blocks, 1)
			st := file.Blocks[0].Stmt
			assert.Equal(t, tt.kind, st.Kind)
			assert.Equal(t, tt.body, st.Body)
			assert.Equal(t, tt.detail, st.BodyDetail)
		})
	}
}

func TestSplitOtherStatements(t *testing.T) {
	s := newTestSplitter(t)

	file, err := s.Split("t.js", []byte("if (x) { y(); }\nfoo();\na[0] = 1;\n"))
	require.NoError(t, err)
	require.Len(t, file.Blocks, 3)

	assert.Equal(t, StmtOther, file.Blocks[0].Stmt.Kind)
	assert.Equal(t, "if_statement", file.Blocks[0].Stmt.BodyDetail)
	assert.Equal(t, model.BodyImplementation, file.Blocks[0].Stmt.Body)
	assert.Equal(t, 1, file.Blocks[0].Stmt.Line)

	assert.Equal(t, StmtOther, file.Blocks[1].Stmt.Kind)
	assert.Equal(t, "expression_statement", file.Blocks[1].Stmt.BodyDetail)

	// Computed member targets do not declare anything.
	assert.Equal(t, StmtOther, file.Blocks[2].Stmt.Kind)
	assert.Equal(t, 3, file.Blocks[2].Stmt.Line)
}

func TestSplitParameters(t *testing.T) {
	s := newTestSplitter(t)

	file, err := s.Split("t.js", []byte("function f(a, b = 1, ...rest) {}"))
	require.NoError(t, err)
	require.Len(t, file.Blocks, 1)
	assert.Equal(t, []StatementParam{
		{Name: "a"},
		{Name: "b"},
		{Name: "rest", Rest: true},
	}, file.Blocks[0].Stmt.Params)
}

func TestSplitTypeScriptDeclarations(t *testing.T) {
	s := newTestSplitter(t)

	src := `/**
 * @param {string} message
 * @return {void}
 */
declare function alert(message: string): void;

/** @type {Console} */
declare var console: Console;
`
	file, err := s.Split("lib.d.ts", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, parser.LanguageTypeScript, file.Language)
	require.Len(t, file.Blocks, 2)

	fn := file.Blocks[0].Stmt
	assert.Equal(t, StmtFunction, fn.Kind)
	assert.Equal(t, []string{"alert"}, fn.Path)
	assert.Equal(t, []StatementParam{{Name: "message"}}, fn.Params)
	assert.Equal(t, model.BodyNone, fn.Body)

	v := file.Blocks[1].Stmt
	assert.Equal(t, StmtVar, v.Kind)
	assert.Equal(t, "var", v.Keyword)
	assert.Equal(t, []string{"console"}, v.Path)
}

func TestSplitUnknownExtensionDefaultsToJavaScript(t *testing.T) {
	s := newTestSplitter(t)

	file, err := s.Split("externs.txt", []byte("var x;"))
	require.NoError(t, err)
	assert.Equal(t, parser.LanguageJavaScript, file.Language)
	require.Len(t, file.Blocks, 1)
}

func TestSplitSameContentSameHash(t *testing.T) {
	s := newTestSplitter(t)

	a, err := s.Split("a.js", []byte("var x;"))
	require.NoError(t, err)
	b, err := s.Split("b.js", []byte("var x;"))
	require.NoError(t, err)
	c, err := s.Split("c.js", []byte("var y;"))
	require.NoError(t, err)

	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.NotEqual(t, a.ContentHash, c.ContentHash)
}
