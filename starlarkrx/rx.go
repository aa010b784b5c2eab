// Package starlarkrx exposes rx patterns to Starlark scripts.
//
//	rx = module(compile)
//
// def compile(pattern, backend="lua", syntax="extended", engine=""):
//
//	Compiles pattern and returns an rx.pattern, or fails with the compile error.
//
// An rx.pattern has the attributes pattern, backend and groups, and the methods
//
//	matches(text)              True if the pattern matches anywhere in text
//	find(text, init=0)         (start, end) of the first match at or after init, or None
//	match(text)                the first rx.match, or None
//	gmatch(text)               a list of every rx.match
//	gsub(text, repl, n=-1)     (result, count)
//
// repl is a template string where %N is group N, for a run of one or more digits, and %%
// is a literal %. It may also be a dict keyed by the first group or a function called
// with each rx.match. A function returning None keeps the match.
//
// An rx.match has the attribute string and the methods group(i=0), span(i=0) and
// groups(), the last returning the captures after group 0 as a tuple. Groups that did
// not participate are None and span to (-1, -1).
package starlarkrx

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/wasilibs/go-rx"
)

var Module = &starlarkstruct.Module{
	Name: "rx",
	Members: starlark.StringDict{
		"compile": starlark.NewBuiltin("rx.compile", compile),
	},
}

// ExecFile runs a script with rx predeclared and returns its globals.
func ExecFile(thread *starlark.Thread, filename string, src any) (starlark.StringDict, error) {
	return starlark.ExecFile(thread, filename, src, starlark.StringDict{"rx": Module})
}

func compile(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		expr    string
		backend = "lua"
		syntax  = "extended"
		engine  string
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &expr, "backend?", &backend, "syntax?", &syntax, "engine?", &engine); err != nil {
		return nil, err
	}

	be, err := rx.ParseBackend(backend)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	var opts []rx.Option
	if be == rx.POSIX {
		sy, err := rx.ParseSyntax(syntax)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		opts = append(opts, rx.WithSyntax(sy))
		if engine != "" {
			opts = append(opts, rx.WithEngine(engine))
		}
	}
	p, err := rx.Compile(expr, be, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return &Pattern{p: p}, nil
}

// Pattern is the Starlark value of a compiled pattern. It is immutable.
type Pattern struct {
	p *rx.Pattern
}

// Unwrap returns the compiled pattern.
func (p *Pattern) Unwrap() *rx.Pattern { return p.p }

func (p *Pattern) String() string        { return fmt.Sprintf("rx.pattern(%q)", p.p.String()) }
func (p *Pattern) Type() string          { return "rx.pattern" }
func (p *Pattern) Freeze()               {}
func (p *Pattern) Truth() starlark.Bool  { return starlark.True }
func (p *Pattern) Hash() (uint32, error) { return starlark.String(p.p.String()).Hash() }

var patternMethods = map[string]*starlark.Builtin{
	"matches": starlark.NewBuiltin("matches", patternMatches),
	"find":    starlark.NewBuiltin("find", patternFind),
	"match":   starlark.NewBuiltin("match", patternMatch),
	"gmatch":  starlark.NewBuiltin("gmatch", patternGmatch),
	"gsub":    starlark.NewBuiltin("gsub", patternGsub),
}

func (p *Pattern) Attr(name string) (starlark.Value, error) {
	switch name {
	case "pattern":
		return starlark.String(p.p.String()), nil
	case "backend":
		return starlark.String(p.p.Backend().String()), nil
	case "groups":
		return starlark.MakeInt(p.p.NumGroups()), nil
	}
	if m, ok := patternMethods[name]; ok {
		return m.BindReceiver(p), nil
	}
	return nil, nil
}

func (p *Pattern) AttrNames() []string {
	names := []string{"backend", "groups", "pattern"}
	for name := range patternMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func patternMatches(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
		return nil, err
	}
	return starlark.Bool(b.Receiver().(*Pattern).p.Matches(text)), nil
}

func patternFind(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		text string
		init int
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "text", &text, "init?", &init); err != nil {
		return nil, err
	}
	start, end, ok := b.Receiver().(*Pattern).p.Find(text, init)
	if !ok {
		return starlark.None, nil
	}
	return starlark.Tuple{starlark.MakeInt(start), starlark.MakeInt(end)}, nil
}

func patternMatch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
		return nil, err
	}
	m := b.Receiver().(*Pattern).p.Match(text)
	if !m.Matches() {
		return starlark.None, nil
	}
	return &Match{m: m}, nil
}

func patternGmatch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
		return nil, err
	}
	var elems []starlark.Value
	for m := range b.Receiver().(*Pattern).p.All(text) {
		elems = append(elems, &Match{m: m})
	}
	return starlark.NewList(elems), nil
}

func patternGsub(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		text string
		repl starlark.Value
		n    = -1
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "text", &text, "repl", &repl, "n?", &n); err != nil {
		return nil, err
	}

	var (
		r       rx.Replacement
		callErr func() error
	)
	switch repl := repl.(type) {
	case starlark.String:
		r = rx.Template(repl.GoString())
	case *starlark.Dict:
		l, err := lookup(repl)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		r = l
	case starlark.Callable:
		r, callErr = Callback(thread, repl)
	default:
		return nil, fmt.Errorf("%s: repl must be string, dict or callable, not %s", b.Name(), repl.Type())
	}

	result, count, err := b.Receiver().(*Pattern).p.GsubN(text, r, n)
	if err == nil && callErr != nil {
		err = callErr()
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.Tuple{starlark.String(result), starlark.MakeInt(count)}, nil
}

// lookup converts a dict with string keys to an rx.Lookup. Values other than strings
// are rendered with str.
func lookup(d *starlark.Dict) (rx.Lookup, error) {
	l := make(rx.Lookup, d.Len())
	for _, item := range d.Items() {
		k, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("lookup key %s is not a string", item[0])
		}
		if v, ok := starlark.AsString(item[1]); ok {
			l[k] = v
		} else {
			l[k] = item[1].String()
		}
	}
	return l, nil
}

// Callback adapts a Starlark callable to an rx.Func. The callable receives an rx.match
// and returns a string, or None to keep the match. An rx.Func cannot fail, so the first
// error is kept and returned by the second result; matches after it are kept as they are.
func Callback(thread *starlark.Thread, fn starlark.Callable) (rx.Func, func() error) {
	var firstErr error
	f := func(m *rx.Match) string {
		if firstErr != nil {
			return m.String()
		}
		v, err := starlark.Call(thread, fn, starlark.Tuple{&Match{m: m}}, nil)
		if err != nil {
			firstErr = err
			return m.String()
		}
		switch v := v.(type) {
		case starlark.String:
			return v.GoString()
		case starlark.NoneType:
			return m.String()
		}
		firstErr = fmt.Errorf("%s returned %s, want string or None", fn.Name(), v.Type())
		return m.String()
	}
	return f, func() error { return firstErr }
}

// Match is the Starlark value of a single match. It is immutable.
type Match struct {
	m *rx.Match
}

func (m *Match) String() string        { return fmt.Sprintf("rx.match(%q)", m.m.String()) }
func (m *Match) Type() string          { return "rx.match" }
func (m *Match) Freeze()               {}
func (m *Match) Truth() starlark.Bool  { return starlark.True }
func (m *Match) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: rx.match") }

var matchMethods = map[string]*starlark.Builtin{
	"group":  starlark.NewBuiltin("group", matchGroup),
	"span":   starlark.NewBuiltin("span", matchSpan),
	"groups": starlark.NewBuiltin("groups", matchGroups),
}

func (m *Match) Attr(name string) (starlark.Value, error) {
	if name == "string" {
		return starlark.String(m.m.String()), nil
	}
	if b, ok := matchMethods[name]; ok {
		return b.BindReceiver(m), nil
	}
	return nil, nil
}

func (m *Match) AttrNames() []string {
	return []string{"group", "groups", "span", "string"}
}

func groupIndex(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (int, error) {
	i := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "i?", &i); err != nil {
		return 0, err
	}
	return i, nil
}

func matchGroup(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	i, err := groupIndex(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	m := b.Receiver().(*Match).m
	start, end, err := m.Range(i)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	if start < 0 {
		return starlark.None, nil
	}
	return starlark.String(m.Text()[start:end]), nil
}

func matchSpan(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	i, err := groupIndex(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	start, end, err := b.Receiver().(*Match).m.Range(i)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.Tuple{starlark.MakeInt(start), starlark.MakeInt(end)}, nil
}

func matchGroups(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	m := b.Receiver().(*Match).m
	ranges := m.Ranges()
	groups := make(starlark.Tuple, 0, len(ranges)/2)
	for i := 2; i < len(ranges); i += 2 {
		if ranges[i] < 0 {
			groups = append(groups, starlark.None)
			continue
		}
		groups = append(groups, starlark.String(m.Text()[ranges[i]:ranges[i+1]]))
	}
	return groups, nil
}
