package errors

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackPointsAtCaller(t *testing.T) {
	err := New(ErrorTypeInternal, "boom")
	require.NotEmpty(t, err.Stack)
	assert.True(t, strings.HasSuffix(err.Stack[0].Function, "TestStackPointsAtCaller"), err.Stack[0].Function)
	assert.True(t, strings.HasSuffix(err.Stack[0].File, "errors_test.go"))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeFile, "unused"))

	inner := Newf(ErrorTypeNotFound, "missing %s", "app.yaml")
	outer := Wrap(inner, ErrorTypeConfig, "failed to load")
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, "config: failed to load: not_found: missing app.yaml", outer.Error())

	plain := Wrap(fs.ErrNotExist, ErrorTypeFile, "failed to read")
	require.NotEmpty(t, plain.Stack)
	assert.True(t, strings.HasSuffix(plain.Stack[0].Function, "TestWrap"))
	assert.ErrorIs(t, plain, fs.ErrNotExist)
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeValidation, "bad").WithDetail("id", "a").WithDetail("line", 3)
	assert.Equal(t, map[string]interface{}{"id": "a", "line": 3}, err.Details)
}
