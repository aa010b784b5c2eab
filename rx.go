// Package rx compiles POSIX regular expressions and Lua string patterns behind one
// interface.
//
// A Pattern is compiled once and then used for stateless queries (Matches, Find), a
// stateful cursor over a text (Match), lazy iteration (Gmatch) and global substitution
// (Gsub) with a template, a lookup table or a callback.
//
// Two backends are available. The Lua backend matches Lua 5.4 string patterns
// natively:
//
//	words := rx.MustCompile(`%a+`, rx.Lua)
//	start, end, _ := words.Find("baad! bad! argh", 0) // 0, 4
//
// The POSIX backend delegates to a regex engine. Patterns are POSIX extended regular
// expressions by default; WithSyntax selects basic regular expressions or Lua pattern
// syntax translated to an extended regular expression instead:
//
//	tags := rx.MustCompile(`<(%a+)>`, rx.POSIX, rx.WithSyntax(rx.LuaSyntax))
//	s, _ := tags.Gsub("hah <hello> you", rx.Template("[%1]")) // "hah [hello] you"
//
// All offsets are byte offsets into the text and ranges are half-open.
//
// In both backends ^ anchors at the start of the text only, also when searching from
// an offset, and $ anchors at the end of the text only.
package rx

import (
	"errors"
	"fmt"

	"github.com/wasilibs/go-rx/internal"
)

// Backend selects the matching engine behind a Pattern.
type Backend int

const (
	// POSIX patterns are regular expressions matched by a regex engine.
	POSIX Backend = iota
	// Lua patterns are Lua string patterns matched natively.
	Lua
)

func (b Backend) String() string {
	switch b {
	case POSIX:
		return "posix"
	case Lua:
		return "lua"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

// ParseBackend returns the backend with the given name as printed by Backend.String.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "posix":
		return POSIX, nil
	case "lua":
		return Lua, nil
	}
	return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidArgument, s)
}

// Syntax selects how a POSIX pattern is written.
type Syntax int

const (
	// Extended is POSIX extended regular expression syntax, as egrep.
	Extended Syntax = iota
	// Basic is POSIX basic regular expression syntax, as grep.
	Basic
	// LuaSyntax is Lua string pattern syntax, translated to an extended regular
	// expression. Constructs without a regular expression equivalent (lazy '-', %b,
	// %f, back-references and position captures) fail to compile.
	LuaSyntax
)

func (s Syntax) String() string {
	switch s {
	case Extended:
		return "extended"
	case Basic:
		return "basic"
	case LuaSyntax:
		return "lua"
	}
	return fmt.Sprintf("Syntax(%d)", int(s))
}

// ParseSyntax returns the syntax with the given name as printed by Syntax.String.
func ParseSyntax(s string) (Syntax, error) {
	switch s {
	case "extended":
		return Extended, nil
	case "basic":
		return Basic, nil
	case "lua":
		return LuaSyntax, nil
	}
	return 0, fmt.Errorf("%w: unknown syntax %q", ErrInvalidArgument, s)
}

// Engines returns the names of the regex engines available to the POSIX backend.
func Engines() []string {
	return internal.Engines()
}

type options struct {
	syntax    Syntax
	syntaxSet bool
	engine    string
}

// Option configures Compile.
type Option func(*options)

// WithSyntax selects the syntax of a POSIX pattern. The default is Extended.
func WithSyntax(s Syntax) Option {
	return func(o *options) {
		o.syntax = s
		o.syntaxSet = true
	}
}

// WithEngine selects the regex engine of a POSIX pattern by name: "re2" (the default,
// RE2 compiled to WebAssembly) or "coregex" (pure Go). Both match leftmost-longest as
// POSIX requires.
func WithEngine(name string) Option {
	return func(o *options) {
		o.engine = name
	}
}

// Pattern is a compiled pattern. A Pattern is immutable and safe for concurrent use by
// multiple goroutines.
//
// A malformed pattern still yields a Pattern, which reports the problem through Valid
// and Err and never matches.
type Pattern struct {
	backend Backend
	syntax  Syntax
	engine  string
	expr    string

	impl internal.Engine
	err  *CompileError
}

// Compile compiles expr for backend.
//
// If expr is malformed, Compile returns a non-nil invalid Pattern together with its
// *CompileError, so callers may check either. Every match operation on an invalid
// Pattern fails: boolean queries report false and the others return the same error.
//
// Compile returns a nil Pattern and an error wrapping ErrInvalidArgument if expr is
// empty or the backend, syntax or engine is unknown.
func Compile(expr string, backend Backend, opts ...Option) (*Pattern, error) {
	if expr == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidArgument)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	copts := internal.CompileOptions{Engine: o.engine}
	switch backend {
	case POSIX:
		switch o.syntax {
		case Extended:
			copts.Syntax = internal.SyntaxExtended
		case Basic:
			copts.Syntax = internal.SyntaxBasic
		case LuaSyntax:
			copts.Syntax = internal.SyntaxLua
		default:
			return nil, fmt.Errorf("%w: unknown syntax %v", ErrInvalidArgument, o.syntax)
		}
		if copts.Engine == "" {
			copts.Engine = internal.DefaultEngine
		}
	case Lua:
		if o.syntaxSet && o.syntax != LuaSyntax {
			return nil, fmt.Errorf("%w: %v syntax is not available for lua patterns", ErrInvalidArgument, o.syntax)
		}
		if o.engine != "" {
			return nil, fmt.Errorf("%w: lua patterns have no engine choice", ErrInvalidArgument)
		}
		o.syntax = LuaSyntax
		copts.Lua = true
	default:
		return nil, fmt.Errorf("%w: unknown backend %v", ErrInvalidArgument, backend)
	}

	p := &Pattern{
		backend: backend,
		syntax:  o.syntax,
		engine:  copts.Engine,
		expr:    expr,
	}

	impl, err := internal.Compile(expr, copts)
	if err != nil {
		var ie *internal.Error
		if !errors.As(err, &ie) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		pos := ie.Pos
		if backend == POSIX && o.syntax != Extended {
			// Offsets into the translated expression mean nothing to the caller.
			pos = -1
		}
		p.err = &CompileError{
			Backend: backend,
			Pattern: expr,
			Pos:     pos,
			Msg:     ie.Msg,
		}
		return p, p.err
	}
	p.impl = impl
	return p, nil
}

// MustCompile is like Compile but panics if the pattern cannot be compiled. It
// simplifies safe initialization of global variables holding compiled patterns.
func MustCompile(expr string, backend Backend, opts ...Option) *Pattern {
	p, err := Compile(expr, backend, opts...)
	if err != nil {
		panic(`rx: Compile(` + internal.QuoteForError(expr) + `): ` + err.Error())
	}
	return p
}

// CompileLua compiles a Lua string pattern.
func CompileLua(expr string) (*Pattern, error) {
	return Compile(expr, Lua)
}

// CompilePOSIX compiles a POSIX extended regular expression.
func CompilePOSIX(expr string) (*Pattern, error) {
	return Compile(expr, POSIX)
}

// Valid reports whether the pattern compiled.
func (p *Pattern) Valid() bool {
	return p.err == nil
}

// Err returns the *CompileError of an invalid pattern and nil otherwise.
func (p *Pattern) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

func (p *Pattern) Backend() Backend {
	return p.backend
}

// Syntax returns the syntax the pattern was written in. It is LuaSyntax for the Lua
// backend.
func (p *Pattern) Syntax() Syntax {
	return p.syntax
}

// Engine returns the name of the regex engine, or "" for the Lua backend.
func (p *Pattern) Engine() string {
	return p.engine
}

// NumGroups returns the number of capture groups declared by the pattern, not counting
// the whole match. It is 0 for an invalid pattern.
func (p *Pattern) NumGroups() int {
	if p.impl == nil {
		return 0
	}
	return p.impl.NumGroups()
}

// String returns the source text used to compile the pattern.
func (p *Pattern) String() string {
	return p.expr
}

// Matches reports whether text contains any match of the pattern.
func (p *Pattern) Matches(text string) bool {
	if p.impl == nil {
		return false
	}
	var buf [8]int
	return p.impl.FindAt(text, 0, buf[:0]) != nil
}

// Find returns the bounds of the first match starting at or after byte offset init,
// like Lua's string.find. A negative init counts back from the end of text. ok is
// false if there is no match, if init is past the end of text or if the pattern is
// invalid.
//
// Unlike string.find, a leading ^ still anchors at the start of text rather than at
// init, so with init > 0 such a pattern never matches.
func (p *Pattern) Find(text string, init int) (start, end int, ok bool) {
	if p.impl == nil {
		return 0, 0, false
	}
	if init < 0 {
		init += len(text)
		if init < 0 {
			init = 0
		}
	}
	if init > len(text) {
		return 0, 0, false
	}
	loc := p.impl.FindAt(text, init, make([]int, 0, 2*(p.impl.NumGroups()+1)))
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// nextPos is where to search after an empty match at pos. POSIX engines match whole
// characters, Lua patterns bytes.
func (p *Pattern) nextPos(text string, pos int) int {
	return internal.NextPos(text, pos, p.backend == POSIX)
}
