package diag

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeverity(t *testing.T) {
	assert.Equal(t, SeverityWarning, UnknownTypeReference.DefaultSeverity())
	assert.Equal(t, SeverityInfo, DuplicateDeclaration.DefaultSeverity())
	assert.Equal(t, SeverityError, IncompatibleRedeclaration.DefaultSeverity())
	assert.Equal(t, SeverityError, MalformedAnnotation.DefaultSeverity())
}

func TestListQueries(t *testing.T) {
	var l List
	assert.False(t, l.HasErrors())

	l.Report(UnknownTypeReference, "a.js", 3, "unknown type %s", "Foo")
	l.Report(DuplicateDeclaration, "b.js", 1, "duplicate")
	assert.False(t, l.HasErrors())

	l.Report(IncompatibleRedeclaration, "b.js", 7, "conflict")
	assert.True(t, l.HasErrors())

	assert.Equal(t, 1, l.Count(SeverityError))
	assert.Len(t, l.AtLeast(SeverityWarning), 2)
	assert.Len(t, l.OfKind(UnknownTypeReference), 1)
	assert.Equal(t, "a.js:3: warning: UnknownTypeReference: unknown type Foo", l[0].String())
}

func TestListMarshalJSON(t *testing.T) {
	var empty List
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))

	l := List{New(MalformedAnnotation, "a.js", 2, "bad")}
	data, err = json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"severity":"error","kind":"MalformedAnnotation","file":"a.js","line":2,"message":"bad"}]`, string(data))
}

func TestParseSeverity(t *testing.T) {
	s, ok := ParseSeverity("warn")
	assert.True(t, ok)
	assert.Equal(t, SeverityWarning, s)

	_, ok = ParseSeverity("fatal")
	assert.False(t, ok)
}

func TestFatalError(t *testing.T) {
	err := Fatal(SourceUnavailable, "missing.js", fs.ErrNotExist)
	assert.EqualError(t, err, "[SourceUnavailable] missing.js: file does not exist")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	wrapped := fmt.Errorf("load: %w", err)
	assert.True(t, IsKind(wrapped, SourceUnavailable))
	assert.False(t, IsKind(wrapped, IncompatibleRedeclaration))
	assert.False(t, IsKind(errors.New("plain"), SourceUnavailable))

	d := err.Diagnostic()
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "missing.js", d.File)

	f := Fatalf(IncompatibleRedeclaration, "b.js", "%d conflicts", 2)
	assert.EqualError(t, f, "[IncompatibleRedeclaration] b.js: 2 conflicts")
}
