package queries

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/ambient/pkg/parser"
)

func setup(t *testing.T) (*parser.ParserManager, *QueryManager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	pm := parser.NewParserManager(logger)
	qm := NewQueryManager(pm, logger)
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return pm, qm
}

func run(t *testing.T, pm *parser.ParserManager, qm *QueryManager, lang parser.Language, src string) []QueryMatch {
	t.Helper()
	tree, err := pm.Parse([]byte(src), lang)
	require.NoError(t, err)
	defer tree.Close()

	q, err := qm.GetQuery(lang, QueryTypeDeclarations)
	require.NoError(t, err)
	matches, err := qm.ExecuteQuery(tree, q, []byte(src))
	require.NoError(t, err)
	return matches
}

func names(matches []QueryMatch) map[string]string {
	out := make(map[string]string)
	for _, m := range matches {
		if c, ok := m.Capture("name"); ok {
			out[c.Text] = m.Category()
		}
	}
	return out
}

func TestQueryCompilation(t *testing.T) {
	_, qm := setup(t)

	for _, lang := range parser.SupportedLanguages() {
		t.Run(lang.String(), func(t *testing.T) {
			q, err := qm.GetQuery(lang, QueryTypeDeclarations)
			require.NoError(t, err)
			require.NotNil(t, q)
		})
	}
}

func TestQueryCaching(t *testing.T) {
	_, qm := setup(t)

	q1, err := qm.GetQuery(parser.LanguageJavaScript, QueryTypeDeclarations)
	require.NoError(t, err)
	q2, err := qm.GetQuery(parser.LanguageJavaScript, QueryTypeDeclarations)
	require.NoError(t, err)
	assert.Same(t, q1, q2)
}

func TestQueryUnknownLanguage(t *testing.T) {
	_, qm := setup(t)

	_, err := qm.GetQuery(parser.LanguageUnknown, QueryTypeDeclarations)
	assert.Error(t, err)
	_, err = qm.GetQuery(parser.LanguageJavaScript, QueryType(42))
	assert.Error(t, err)
}

func TestJavaScriptDeclarations(t *testing.T) {
	pm, qm := setup(t)

	src := `/** @type {Console} */
var console;
const VERSION = "1";
function alert(message) {}
Console.prototype.assert = function(condition, var_args) {};
Console.prototype.memory;
window.setTimeout(f, 10);
`
	got := names(run(t, pm, qm, parser.LanguageJavaScript, src))

	assert.Equal(t, "var", got["console"])
	assert.Equal(t, "var", got["VERSION"])
	assert.Equal(t, "function", got["alert"])
	assert.Equal(t, "assign", got["Console.prototype.assert"])
	assert.Equal(t, "stub", got["Console.prototype.memory"])
	assert.NotContains(t, got, "window.setTimeout", "calls are not declarations")
}

func TestTypeScriptDeclarations(t *testing.T) {
	pm, qm := setup(t)

	src := `declare var console: Console;
declare function alert(message: string): void;
function confirm(message: string): boolean;
`
	got := names(run(t, pm, qm, parser.LanguageTypeScript, src))

	assert.Equal(t, "var", got["console"])
	assert.Equal(t, "function", got["alert"])
	assert.Equal(t, "function", got["confirm"])
}

func TestCaptureLocation(t *testing.T) {
	pm, qm := setup(t)

	matches := run(t, pm, qm, parser.LanguageJavaScript, "\n\nvar console;\n")
	require.Len(t, matches, 1)

	def, ok := matches[0].Capture("definition")
	require.True(t, ok)
	assert.Equal(t, uint32(3), def.Location.StartLine)
	assert.Equal(t, uint32(1), def.Location.StartColumn)
	assert.Equal(t, "var console;", def.Text)
}

func TestConcurrentQueryCompilation(t *testing.T) {
	_, qm := setup(t)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(lang parser.Language) {
			defer wg.Done()
			if _, err := qm.GetQuery(lang, QueryTypeDeclarations); err != nil {
				errs <- err
			}
		}(parser.SupportedLanguages()[i%2])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("compile failed: %v", err)
	}
}

func TestParseCaptureName(t *testing.T) {
	c, f := parseCaptureName("assign.declarator")
	assert.Equal(t, "assign", c)
	assert.Equal(t, "declarator", f)

	c, f = parseCaptureName("plain")
	assert.Equal(t, "plain", c)
	assert.Empty(t, f)
}
