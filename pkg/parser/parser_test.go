package parser

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const consoleExterns = `/** @type {Console} */
var console;

/**
 * @param {*} condition
 * @param {...*} var_args
 */
Console.prototype.assert = function(condition, var_args) {};
`

func TestParseJavaScriptExterns(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte(consoleExterns), LanguageJavaScript)
	require.NoError(t, err)
	require.NotNil(t, tree)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError())

	sexp := root.ToSexp()
	assert.Contains(t, sexp, "variable_declaration")
	assert.Contains(t, sexp, "assignment_expression")
}

func TestParseTypeScriptDeclarations(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	src := []byte("/** @param {string} s */\ndeclare function log(s: string): void;\n")
	tree, err := manager.Parse(src, LanguageTypeScript)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, "program", tree.RootNode().Kind())
	assert.Contains(t, tree.RootNode().ToSexp(), "function_signature")
}

func TestParseFile(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	for _, name := range []string{"console.js", "dom.d.ts", "node.mjs"} {
		t.Run(name, func(t *testing.T) {
			tree, err := manager.ParseFile([]byte("var x;"), name)
			require.NoError(t, err)
			defer tree.Close()
			assert.Equal(t, "program", tree.RootNode().Kind())
		})
	}

	_, err := manager.ParseFile([]byte("x"), "README.md")
	assert.Error(t, err)
}

func TestParseKeepsTreeWithSyntaxErrors(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte("var = ;;; function ("), LanguageJavaScript)
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
}

func TestLazyInitialization(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	assert.Equal(t, 0, manager.GetStats().ParsersCreated)

	tree, err := manager.Parse([]byte("var a;"), LanguageJavaScript)
	require.NoError(t, err)
	tree.Close()

	stats := manager.GetStats()
	assert.Equal(t, 1, stats.ParsersCreated)
	assert.Equal(t, int64(1), stats.ParsesCalled)

	tree, err = manager.Parse([]byte("var b;"), LanguageJavaScript)
	require.NoError(t, err)
	tree.Close()

	stats = manager.GetStats()
	assert.Equal(t, 1, stats.ParsersCreated, "parser should be reused")
	assert.Equal(t, int64(2), stats.ParsesCalled)

	tree, err = manager.Parse([]byte("declare var c: number;"), LanguageTypeScript)
	require.NoError(t, err)
	tree.Close()
	assert.Equal(t, 2, manager.GetStats().ParsersCreated)
}

func TestParseUnknownLanguage(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	tree, err := manager.Parse([]byte("var x;"), LanguageUnknown)
	assert.Error(t, err)
	assert.Nil(t, tree)
}

func TestLanguageDetection(t *testing.T) {
	testCases := []struct {
		filePath string
		expected Language
	}{
		{"externs/console.js", LanguageJavaScript},
		{"externs/es6.mjs", LanguageJavaScript},
		{"externs/node.cjs", LanguageJavaScript},
		{"types/dom.d.ts", LanguageTypeScript},
		{"types/lib.TS", LanguageTypeScript},
		{"notes.txt", LanguageUnknown},
		{"Makefile", LanguageUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.filePath, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectLanguage(tc.filePath))
		})
	}
}

func TestParseLanguageString(t *testing.T) {
	assert.Equal(t, LanguageJavaScript, ParseLanguageString("JS"))
	assert.Equal(t, LanguageTypeScript, ParseLanguageString("typescript"))
	assert.Equal(t, LanguageUnknown, ParseLanguageString("closure"))
	assert.Equal(t, "javascript", LanguageJavaScript.String())
}
