package model

var primitiveNames = map[string]bool{
	"number":    true,
	"string":    true,
	"boolean":   true,
	"null":      true,
	"undefined": true,
	"symbol":    true,
}

var nativeTypeNames = map[string]bool{
	"Object":         true,
	"Function":       true,
	"Array":          true,
	"String":         true,
	"Number":         true,
	"Boolean":        true,
	"Symbol":         true,
	"Date":           true,
	"RegExp":         true,
	"Error":          true,
	"EvalError":      true,
	"RangeError":     true,
	"ReferenceError": true,
	"SyntaxError":    true,
	"TypeError":      true,
	"URIError":       true,
	"Arguments":      true,
	"Math":           true,
	"JSON":           true,
}

// DefaultHostTypes are the environment-provided type names resolvable
// without a declaring externs file.
var DefaultHostTypes = []string{
	"Console",
	"Document",
	"Element",
	"Event",
	"EventTarget",
	"HTMLElement",
	"Location",
	"Navigator",
	"Node",
	"Storage",
	"Window",
	"XMLHttpRequest",
}

// IsPrimitive reports whether name is a primitive type name.
func IsPrimitive(name string) bool { return primitiveNames[name] }

// IsNative reports whether name is a built-in object type of the language.
func IsNative(name string) bool { return nativeTypeNames[name] }
