package rx

import (
	"errors"
	"fmt"

	"github.com/wasilibs/go-rx/internal"
)

var (
	// ErrInvalidArgument is wrapped by errors about arguments rather than patterns: an
	// empty pattern, an unknown backend, syntax or engine, a nil replacement.
	ErrInvalidArgument = errors.New("rx: invalid argument")

	// ErrNoActiveMatch is returned by the group accessors of a Match that is not
	// positioned on a match.
	ErrNoActiveMatch = errors.New("rx: no active match")

	// ErrTooFewGroups is returned by Iter.FillMap for patterns with fewer than two
	// capture groups.
	ErrTooFewGroups = errors.New("rx: pattern needs at least two capture groups")
)

// CompileError describes a malformed pattern.
type CompileError struct {
	Backend Backend
	Pattern string
	// Pos is the byte offset in Pattern the problem was found at, or -1 if unknown.
	Pos int
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("error parsing %v pattern: %s: %s", e.Backend, e.Msg, internal.QuoteForError(e.Pattern))
}

// IndexError is returned when a capture group index is out of range.
type IndexError struct {
	Index     int
	NumGroups int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("rx: group index %d out of range [0, %d]", e.Index, e.NumGroups)
}

// TemplateError describes a malformed replacement template.
type TemplateError struct {
	Template string
	// Pos is the byte offset in Template of the offending '%'.
	Pos int
	Msg string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("rx: invalid template %s at offset %d: %s", internal.QuoteForError(e.Template), e.Pos, e.Msg)
}
