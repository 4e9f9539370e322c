package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool names.
const (
	ToolLookupSymbol   = "lookup_symbol"
	ToolMembersOf      = "members_of"
	ToolListNames      = "list_names"
	ToolGetDiagnostics = "get_diagnostics"
	ToolRegistryInfo   = "registry_info"
)

// ToolNames lists every registered tool.
var ToolNames = []string{
	ToolLookupSymbol,
	ToolMembersOf,
	ToolListNames,
	ToolGetDiagnostics,
	ToolRegistryInfo,
}

func lookupSymbolTool() mcp.Tool {
	return mcp.NewTool(ToolLookupSymbol,
		mcp.WithDescription("Look up declared names in the ambient registry. Returns kind, type, parameters and the file and line that declared each name."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description(`Fully qualified name, e.g. "console" or "Console.prototype.assert". "Type#member" is accepted for prototype members. Several names may be given separated by commas.`),
		),
	)
}

func membersOfTool() mcp.Tool {
	return mcp.NewTool(ToolMembersOf,
		mcp.WithDescription("List the prototype members declared for a type, sorted by name."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description(`Type name, e.g. "Console".`),
		),
		mcp.WithBoolean("details",
			mcp.Description("Include each member's signature."),
		),
	)
}

func listNamesTool() mcp.Tool {
	return mcp.NewTool(ToolListNames,
		mcp.WithDescription("List declared names in namespace order, optionally filtered."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("prefix", mcp.Description(`Only names starting with this, e.g. "goog.dom."`)),
		mcp.WithString("keyword", mcp.Description("Only names containing this, case-insensitive.")),
		mcp.WithString("kind",
			mcp.Description("Only symbols of this kind."),
			mcp.Enum("variable", "function", "method", "property", "constructor", "interface", "typedef", "namespace"),
		),
		mcp.WithNumber("limit", mcp.Description("Maximum number of names to return. Default 200.")),
	)
}

func getDiagnosticsTool() mcp.Tool {
	return mcp.NewTool(ToolGetDiagnostics,
		mcp.WithDescription("Diagnostics reported by the load that built the current registry."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("severity",
			mcp.Description("Minimum severity. Default info."),
			mcp.Enum("info", "warning", "error"),
		),
		mcp.WithString("kind", mcp.Description(`Only this diagnostic kind, e.g. "IncompatibleRedeclaration".`)),
	)
}

func registryInfoTool() mcp.Tool {
	return mcp.NewTool(ToolRegistryInfo,
		mcp.WithDescription("Identity and size of the current registry, the files it was loaded from and the types it declares."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
