package internal

import (
	"errors"
	"fmt"
	"regexp/syntax"
	"sort"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/wasilibs/go-rx/internal/lua"
)

// Engine is a compiled pattern as seen by the matching backends.
type Engine interface {
	// NumGroups returns the number of capturing groups, not counting the whole match.
	NumGroups() int

	// FindAt appends to dst the index pairs of the leftmost match starting at or after
	// byte offset at, group 0 first, and returns the extended slice. Groups that did not
	// participate are reported as -1. A return value of nil indicates no match, in which
	// case dst is left untouched. Text before at is still visible to anchors.
	FindAt(src string, at int, dst []int) []int
}

// Syntax selects how a POSIX pattern is written.
type Syntax int

const (
	SyntaxExtended Syntax = iota
	SyntaxBasic
	SyntaxLua
)

type CompileOptions struct {
	// Lua selects the native Lua pattern matcher. Syntax and Engine are ignored.
	Lua bool

	Syntax Syntax

	// Engine names the regex engine used for POSIX patterns. Empty means DefaultEngine.
	Engine string
}

// Error describes a malformed pattern.
type Error struct {
	Msg string
	// Pos is the byte offset in the pattern the problem was detected at, -1 if unknown.
	Pos int
}

func (e *Error) Error() string {
	return e.Msg
}

var ErrUnknownEngine = errors.New("unknown regex engine")

// EngineFactory compiles a parsed POSIX expression.
type EngineFactory func(re *syntax.Regexp) (Engine, error)

const DefaultEngine = "re2"

var (
	enginesMu sync.RWMutex
	engines   = map[string]EngineFactory{}
)

// Register makes an engine available under name. It fails if the name is taken.
func Register(name string, f EngineFactory) error {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if _, ok := engines[name]; ok {
		return fmt.Errorf("regex engine %q already registered", name)
	}
	engines[name] = f
	return nil
}

// Engines returns the registered engine names, sorted.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupEngine(name string) (EngineFactory, bool) {
	if name == "" {
		name = DefaultEngine
	}
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	f, ok := engines[name]
	return f, ok
}

// Compile compiles expr for the backend described by opts. Malformed patterns are
// reported as *Error; anything else is a problem with the options.
func Compile(expr string, opts CompileOptions) (Engine, error) {
	if opts.Lua {
		p, err := lua.Compile(expr)
		if err != nil {
			var le *lua.Error
			if errors.As(err, &le) {
				return nil, &Error{Msg: le.Msg, Pos: le.Pos}
			}
			return nil, err
		}
		return p, nil
	}

	f, ok := lookupEngine(opts.Engine)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, opts.Engine)
	}

	ere := expr
	var err error
	switch opts.Syntax {
	case SyntaxExtended:
	case SyntaxBasic:
		ere, err = TranslateBRE(expr)
	case SyntaxLua:
		ere, err = TranslateLua(expr)
	default:
		return nil, fmt.Errorf("unknown syntax %d", opts.Syntax)
	}
	if err != nil {
		return nil, err
	}

	re, err := ParseERE(ere)
	if err != nil {
		return nil, err
	}
	return f(re)
}

// NextPos returns the position to resume searching at after an empty match at pos,
// always advancing at least one character.
func NextPos(src string, pos int, runes bool) int {
	if !runes || pos >= len(src) {
		return pos + 1
	}
	_, width := utf8.DecodeRuneInString(src[pos:])
	return pos + width
}

func QuoteForError(s string) string {
	if strconv.CanBackquote(s) {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}
