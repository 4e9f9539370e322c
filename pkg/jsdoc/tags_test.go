package jsdoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComment(t *testing.T) {
	c, err := ParseComment(`/**
 * Writes an assertion failure to the console.
 * Only when condition is false.
 * @param {*} condition The value to test.
 * @param {...*} var_args Messages,
 *     continued on the next line.
 * @see https://developer.mozilla.org/docs/Web/API/console/assert
 */`)
	require.NoError(t, err)

	assert.Equal(t, "Writes an assertion failure to the console. Only when condition is false.", c.Description)
	require.Len(t, c.Tags, 3)

	assert.Equal(t, "param", c.Tags[0].Name)
	assert.True(t, c.Tags[0].HasType)
	assert.Equal(t, "*", c.Tags[0].Type)
	assert.Equal(t, "condition The value to test.", c.Tags[0].Text)

	assert.Equal(t, "...*", c.Tags[1].Type)
	assert.Equal(t, "var_args Messages, continued on the next line.", c.Tags[1].Text)

	assert.Equal(t, "see", c.Tags[2].Name)
	assert.False(t, c.Tags[2].HasType)

	assert.True(t, c.Has("see"))
	assert.False(t, c.Has("type"))
	assert.Len(t, c.All("param", "see"), 3)
}

func TestParseCommentSingleLine(t *testing.T) {
	c, err := ParseComment("/** @type {Console} */")
	require.NoError(t, err)
	require.Len(t, c.Tags, 1)
	assert.Equal(t, "type", c.Tags[0].Name)
	assert.Equal(t, "Console", c.Tags[0].Type)
	assert.Empty(t, c.Description)
}

func TestParseCommentNestedBraces(t *testing.T) {
	c, err := ParseComment("/** @typedef {{x: number, y: number}} */")
	require.NoError(t, err)
	require.Len(t, c.Tags, 1)
	assert.Equal(t, "{x: number, y: number}", c.Tags[0].Type)
}

func TestParseCommentUnbalanced(t *testing.T) {
	_, err := ParseComment("/** @type {Array<string> */")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestIsDocComment(t *testing.T) {
	assert.True(t, IsDocComment("/** @type {number} */"))
	assert.False(t, IsDocComment("/* plain */"))
	assert.False(t, IsDocComment("/**/"))
	assert.False(t, IsDocComment("// line"))
}
