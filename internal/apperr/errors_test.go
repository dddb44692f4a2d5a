package apperr

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBindError_Kinds(t *testing.T) {
	missing := &BindError{Document: "/site/a.md", Name: "b"}
	assert.ErrorIs(t, missing, ErrUnresolvedLink)
	assert.NotErrorIs(t, missing, ErrAmbiguousLink)
	assert.Contains(t, missing.Error(), "matches no document")

	dup := &BindError{Document: "/site/a.md", Name: "b", Matches: []string{"/site/x/b.md", "/site/y/b.md"}}
	assert.ErrorIs(t, dup, ErrAmbiguousLink)
	assert.Contains(t, dup.Error(), "matches 2 documents")
}

func TestIOError_Unwrap(t *testing.T) {
	err := &IOError{Op: "read dir", Path: "/nope", Err: fs.ErrNotExist}
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "read dir /nope: file does not exist", err.Error())
}

func TestNotADirectory(t *testing.T) {
	err := NotADirectory("/etc/hosts")
	assert.ErrorIs(t, err, ErrNotADirectory)
	assert.Equal(t, "/etc/hosts is not a directory", err.Error())
}
