package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"testing/fstest"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/ambient/pkg/externs"
	"github.com/gnana997/ambient/pkg/mcplog"
	"github.com/gnana997/ambient/pkg/metrics"
	"github.com/gnana997/ambient/pkg/source"
	"github.com/gnana997/ambient/pkg/util"
)

const testExterns = `/** @externs */

/** @type {Console} */
var console;

/**
 * @param {*} condition
 * @param {...*} var_args
 */
Console.prototype.assert = function(condition, var_args) {};

/** @param {...*} var_args */
Console.prototype.log = function(var_args) {};

/** @constructor */
function Widget() {}

/** @type {Gadget} */
var gadget;
`

// --- helpers ---

func testHolder(t *testing.T) *externs.Holder {
	t.Helper()
	fsys := fstest.MapFS{"console.js": &fstest.MapFile{Data: []byte(testExterns)}}
	reg, diags, err := externs.Load(context.Background(), []string{"console.js"}, externs.Options{
		Reader: source.FSReader{FS: fsys},
		Logger: util.DiscardLogger(),
	})
	require.NoError(t, err)

	h := externs.NewHolder()
	h.Swap(&externs.Snapshot{Registry: reg, Diagnostics: diags, Files: []string{"console.js"}, LoadedAt: time.Now()})
	return h
}

func testServer(t *testing.T) *Server {
	return NewServer(testHolder(t), nil, util.DiscardLogger())
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case ToolLookupSymbol:
		handler = s.handleLookupSymbol
	case ToolMembersOf:
		handler = s.handleMembersOf
	case ToolListNames:
		handler = s.handleListNames
	case ToolGetDiagnostics:
		handler = s.handleGetDiagnostics
	case ToolRegistryInfo:
		handler = s.handleRegistryInfo
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- lookup_symbol ---

func TestHandleLookupSymbol(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolLookupSymbol, map[string]any{"name": "Console#assert"}))
	assert.False(t, result.IsError)

	var views []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Console.prototype.assert", views[0]["name"])
	assert.Equal(t, "method", views[0]["kind"])
	assert.Equal(t, "Console", views[0]["owner"])
	assert.Equal(t, true, views[0]["prototype"])
	params := views[0]["params"].([]any)
	require.Len(t, params, 2)
	assert.Equal(t, true, params[1].(map[string]any)["variadic"])
}

func TestHandleLookupSymbol_Batch(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolLookupSymbol, map[string]any{"name": "console, Widget, nope"}))

	var views []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "console", views[0]["name"])
	assert.Equal(t, "Console", views[0]["type"])
	assert.Equal(t, "Widget", views[1]["name"])
}

func TestHandleLookupSymbol_NotFound(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolLookupSymbol, map[string]any{"name": "window"}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "window")
}

func TestHandleLookupSymbol_MissingName(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolLookupSymbol, nil))
	assert.True(t, result.IsError)
}

// --- members_of ---

func TestHandleMembersOf(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolMembersOf, map[string]any{"type": "Console"}))
	assert.False(t, result.IsError)

	var out struct {
		Type    string   `json:"type"`
		Members []string `json:"members"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, []string{"assert", "log"}, out.Members)
}

func TestHandleMembersOf_Details(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolMembersOf, map[string]any{"type": "Console", "details": true}))

	var out struct {
		Members []memberView `json:"members"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Len(t, out.Members, 2)
	assert.Equal(t, "method", out.Members[1].Kind)
	assert.Equal(t, "method function(...*): *", out.Members[1].Signature)
}

func TestHandleMembersOf_KnownTypeWithoutMembers(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolMembersOf, map[string]any{"type": "Widget"}))
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"type":"Widget","members":[]}`, resultText(t, result))
}

func TestHandleMembersOf_UnknownType(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolMembersOf, map[string]any{"type": "Gizmo"}))
	assert.True(t, result.IsError)
}

// --- list_names ---

func TestHandleListNames(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolListNames, nil))

	var out struct {
		Names     []string `json:"names"`
		Truncated bool     `json:"truncated"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, []string{"Console.prototype.assert", "Console.prototype.log", "Widget", "console", "gadget"}, out.Names)
	assert.False(t, out.Truncated)
}

func TestHandleListNames_Filtered(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolListNames, map[string]any{"kind": "method", "limit": float64(1)}))

	var out struct {
		Names     []string `json:"names"`
		Truncated bool     `json:"truncated"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, []string{"Console.prototype.assert"}, out.Names)
	assert.True(t, out.Truncated)
}

// --- get_diagnostics ---

func TestHandleGetDiagnostics(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolGetDiagnostics, map[string]any{"severity": "warning"}))

	var diags []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, "UnknownTypeReference", diags[0]["kind"])
	assert.Equal(t, "warning", diags[0]["severity"])

	result = callTool(t, s, makeRequest(ToolGetDiagnostics, map[string]any{"severity": "error"}))
	assert.Equal(t, "[]", resultText(t, result))
}

func TestHandleGetDiagnostics_BadSeverity(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolGetDiagnostics, map[string]any{"severity": "fatal"}))
	assert.True(t, result.IsError)
}

// --- registry_info ---

func TestHandleRegistryInfo(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest(ToolRegistryInfo, nil))

	var info infoView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &info))
	assert.Equal(t, s.holder.Registry().ID(), info.ID)
	assert.Equal(t, 5, info.Entries)
	assert.Equal(t, []string{"console.js"}, info.Files)
	assert.Equal(t, []string{"Widget"}, info.Types)
	assert.Equal(t, 2, info.Kinds["method"])
	assert.Equal(t, 1, info.Diagnostics["warning"])
}

func TestHandlersBeforeLoad(t *testing.T) {
	s := NewServer(externs.NewHolder(), nil, util.DiscardLogger())
	for _, name := range ToolNames {
		result := callTool(t, s, makeRequest(name, map[string]any{"name": "x", "type": "x"}))
		assert.True(t, result.IsError, name)
		assert.Contains(t, resultText(t, result), "no registry loaded")
	}
}

// --- middleware ---

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	s := NewServer(testHolder(t), mcplog.New(&buf), util.DiscardLogger())

	handler := s.loggingMiddleware()(s.handleLookupSymbol)
	_, err := handler(context.Background(), makeRequest(ToolLookupSymbol, map[string]any{"name": "nope"}))
	require.NoError(t, err)

	var entry mcplog.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, ToolLookupSymbol, entry.Tool)
	assert.Equal(t, "nope", entry.Params["name"])
	assert.Equal(t, s.holder.Registry().ID(), entry.RegistryID)
	assert.True(t, entry.IsError)
	assert.Positive(t, entry.ResponseBytes)
}

func TestMetricsMiddleware(t *testing.T) {
	s := testServer(t)
	counter := metrics.ToolCallsTotal.WithLabelValues(ToolRegistryInfo, metrics.OutcomeOK)
	before := testutil.ToFloat64(counter)

	handler := s.metricsMiddleware()(s.handleRegistryInfo)
	_, err := handler(context.Background(), makeRequest(ToolRegistryInfo, nil))
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
