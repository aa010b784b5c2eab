package rx

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Replacement computes the text that replaces each match in Gsub. The implementations
// are Template, Lookup and Func.
type Replacement interface {
	// check validates the replacement against the pattern before any matching.
	check(p *Pattern) error
	expand(dst []byte, m *Match) []byte
}

// Template is a replacement string in which %N stands for the text of group N, with N
// a run of decimal digits and %0 the whole match, and %% for a literal percent sign.
// Groups that did not participate expand to nothing.
type Template string

func (t Template) check(p *Pattern) error {
	tmpl := string(t)
	for off := 0; ; {
		i := strings.IndexByte(tmpl[off:], '%')
		if i < 0 {
			return nil
		}
		pos := off + i
		rest := tmpl[pos+1:]
		switch {
		case rest == "":
			return &TemplateError{Template: tmpl, Pos: pos, Msg: "dangling '%'"}
		case rest[0] == '%':
			off = pos + 2
			continue
		}
		digits := leadingDigits(rest)
		if digits == "" {
			return &TemplateError{Template: tmpl, Pos: pos, Msg: "invalid use of '%' in replacement string"}
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n > p.NumGroups() {
			return &TemplateError{Template: tmpl, Pos: pos, Msg: fmt.Sprintf("invalid capture index %%%s in replacement string", digits)}
		}
		off = pos + 1 + len(digits)
	}
}

func (t Template) expand(dst []byte, m *Match) []byte {
	tmpl := string(t)
	for len(tmpl) > 0 {
		before, after, ok := strings.Cut(tmpl, "%")
		if !ok {
			break
		}
		dst = append(dst, before...)
		if after[0] == '%' {
			// Treat %% as %.
			dst = append(dst, '%')
			tmpl = after[1:]
			continue
		}
		digits := leadingDigits(after)
		n, _ := strconv.Atoi(digits)
		if start, end := m.loc[2*n], m.loc[2*n+1]; start >= 0 {
			dst = append(dst, m.text[start:end]...)
		}
		tmpl = after[len(digits):]
	}
	return append(dst, tmpl...)
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	return s[:i]
}

// Lookup replaces each match with the value stored under the text of its group 1. A
// match whose key is absent is left as it is.
type Lookup map[string]string

func (l Lookup) check(p *Pattern) error {
	if p.NumGroups() < 1 {
		return &IndexError{Index: 1, NumGroups: p.NumGroups()}
	}
	return nil
}

func (l Lookup) expand(dst []byte, m *Match) []byte {
	if v, ok := l[m.MustGroup(1)]; ok {
		return append(dst, v...)
	}
	return append(dst, m.String()...)
}

// LookupOf builds a Lookup from a map with values of any type that can be rendered as
// a string, such as numbers, booleans and fmt.Stringer implementations.
func LookupOf[V any](values map[string]V) (Lookup, error) {
	l := make(Lookup, len(values))
	for k, v := range values {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("%w: lookup value for %q: %v", ErrInvalidArgument, k, err)
		}
		l[k] = s
	}
	return l, nil
}

// Func replaces each match with the result of calling it. It receives a snapshot of the
// cursor, which it may keep.
type Func func(m *Match) string

func (f Func) check(*Pattern) error {
	if f == nil {
		return fmt.Errorf("%w: nil replacement func", ErrInvalidArgument)
	}
	return nil
}

func (f Func) expand(dst []byte, m *Match) []byte {
	return append(dst, f(m.clone())...)
}

// Getenv replaces each match with the value of the environment variable named by its
// group 1, or by the whole match if the pattern has no groups. Unset variables expand
// to the empty string.
var Getenv Func = func(m *Match) string {
	name := m.String()
	if m.p.NumGroups() > 0 {
		name = m.MustGroup(1)
	}
	return os.Getenv(name)
}

// Gsub returns a copy of text in which every match of the pattern is replaced as
// repl directs. Text between matches is copied unchanged. If there is no match the
// result is text itself.
func (p *Pattern) Gsub(text string, repl Replacement) (string, error) {
	s, _, err := p.GsubN(text, repl, -1)
	return s, err
}

// GsubN is like Gsub but replaces at most n matches, or all of them if n < 0. It also
// returns the number of replacements made.
func (p *Pattern) GsubN(text string, repl Replacement, n int) (string, int, error) {
	if repl == nil {
		return text, 0, fmt.Errorf("%w: nil replacement", ErrInvalidArgument)
	}
	if err := p.Err(); err != nil {
		return text, 0, err
	}
	if err := repl.check(p); err != nil {
		return text, 0, err
	}

	var (
		buf     []byte
		lastEnd int
		count   int
	)
	for m := p.Match(text); m.matched && count != n; m.Next() {
		buf = append(buf, text[lastEnd:m.loc[0]]...)
		buf = repl.expand(buf, m)
		lastEnd = m.loc[1]
		count++
	}
	if count == 0 {
		return text, 0, nil
	}
	buf = append(buf, text[lastEnd:]...)
	return string(buf), count, nil
}

// Substitute is p.Gsub(text, repl) as a function.
func Substitute(p *Pattern, text string, repl Replacement) (string, error) {
	return p.Gsub(text, repl)
}
