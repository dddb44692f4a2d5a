// Package apperr holds the error values shared across wikarden packages.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotADirectory  = errors.New("not a directory")
	ErrUnresolvedLink = errors.New("unresolved interlink")
	ErrAmbiguousLink  = errors.New("ambiguous interlink")
	ErrMalformedImage = errors.New("malformed image source")
)

// IOError records a failed filesystem operation on a path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NotADirectory wraps ErrNotADirectory with the offending path.
func NotADirectory(path string) error {
	return fmt.Errorf("%s is %w", path, ErrNotADirectory)
}

// BindError reports an interlink that did not resolve to exactly one document.
type BindError struct {
	Document string
	Name     string
	Matches  []string
}

func (e *BindError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("%s: interlink {%s} matches no document", e.Document, e.Name)
	}
	return fmt.Sprintf("%s: interlink {%s} matches %d documents: %s",
		e.Document, e.Name, len(e.Matches), strings.Join(e.Matches, ", "))
}

// Unwrap lets errors.Is distinguish missing from ambiguous targets.
func (e *BindError) Unwrap() error {
	if len(e.Matches) == 0 {
		return ErrUnresolvedLink
	}
	return ErrAmbiguousLink
}
