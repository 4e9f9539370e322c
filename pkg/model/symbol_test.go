package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifiedName(t *testing.T) {
	global := &Symbol{Name: "console"}
	assert.Equal(t, "console", global.QualifiedName())

	method := &Symbol{Name: "assert", AttachTo: &Attachment{Path: []string{"Console"}, Prototype: true}}
	assert.Equal(t, "Console.prototype.assert", method.QualifiedName())
	assert.Equal(t, "Console", method.AttachTo.Owner())

	static := &Symbol{Name: "createElement", AttachTo: &Attachment{Path: []string{"goog", "dom"}}}
	assert.Equal(t, "goog.dom.createElement", static.QualifiedName())
}

func TestSignature(t *testing.T) {
	s := &Symbol{
		Name: "assert",
		Kind: SymbolMethod,
		Params: []Param{
			{Name: "condition", Type: Unknown()},
			{Name: "var_args", Type: Unknown(), Variadic: true},
		},
		DeclaredType: Void(),
	}
	assert.Equal(t, "method function(*, ...*): void", s.Signature())

	v := &Symbol{Name: "console", Kind: SymbolVariable, DeclaredType: Ref("Console")}
	assert.Equal(t, "variable Console", v.Signature())
}

func TestParamTypeString(t *testing.T) {
	assert.Equal(t, "number=", Param{Type: Primitive("number"), Optional: true}.TypeString())
	assert.Equal(t, "...*", Param{Type: Unknown(), Variadic: true}.TypeString())
	assert.Equal(t, "s: string", Param{Name: "s", Type: Primitive("string")}.String())
}

func TestCloneIsDeep(t *testing.T) {
	s := &Symbol{
		Name:     "log",
		Params:   []Param{{Name: "x", Type: Unknown()}},
		AttachTo: &Attachment{Path: []string{"Console"}, Prototype: true},
		See:      []string{"https://example.com"},
	}
	c := s.Clone()
	c.Params[0].Name = "y"
	c.AttachTo.Path[0] = "Other"
	c.See[0] = "changed"

	assert.Equal(t, "x", s.Params[0].Name)
	assert.Equal(t, "Console", s.AttachTo.Path[0])
	assert.Equal(t, "https://example.com", s.See[0])
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, SymbolMethod.Callable())
	assert.True(t, SymbolConstructor.Callable())
	assert.False(t, SymbolProperty.Callable())
	assert.True(t, SymbolTypedef.DeclaresType())
	assert.False(t, SymbolFunction.DeclaresType())

	text, err := SymbolNamespace.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "namespace", string(text))
}

func TestNatives(t *testing.T) {
	assert.True(t, IsPrimitive("number"))
	assert.False(t, IsPrimitive("Number"))
	assert.True(t, IsNative("Number"))
	assert.Contains(t, DefaultHostTypes, "Console")
}
